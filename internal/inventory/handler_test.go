package inventory

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/partshelf/partshelf/internal/observability"
)

func newTestHandler(t *testing.T, repo *memoryRepo) http.Handler {
	t.Helper()
	svc, _ := newTestService(repo)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, svc, observability.NewMetrics())

	r := chi.NewRouter()
	r.Route("/parts", h.MountCutRoute)
	r.Route("/inventory", h.MountRoutes)
	return r
}

func TestHandleCutSuccess(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.add(LotWithSpec{
		Lot:         Lot{SKU: "RES-10K", Quantity: 2, Condition: ConditionNew},
		DefaultSpec: 100,
	})
	require.Equal(t, int64(1), id)
	router := newTestHandler(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/parts/cut", strings.NewReader(`{"inventoryId":1,"useAmount":25}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `"success":true`)
	require.Contains(t, body, `"original_id":1`)
	require.Contains(t, body, `"remaining_spec":75`)
}

func TestHandleCutMissingBody(t *testing.T) {
	router := newTestHandler(t, newMemoryRepo())

	req := httptest.NewRequest(http.MethodPost, "/parts/cut", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "both required")
}

func TestHandleCutUnknownLot(t *testing.T) {
	router := newTestHandler(t, newMemoryRepo())

	req := httptest.NewRequest(http.MethodPost, "/parts/cut", strings.NewReader(`{"inventoryId":42,"useAmount":5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCutExceedsSpec(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(LotWithSpec{
		Lot:         Lot{SKU: "RES-10K", Quantity: 1, Condition: ConditionNew},
		DefaultSpec: 10,
	})
	router := newTestHandler(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/parts/cut", strings.NewReader(`{"inventoryId":1,"useAmount":11}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "exceeds current spec")
}

func TestHandleListStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(LotWithSpec{Lot: Lot{SKU: "CAP-1U", Quantity: 3, Condition: ConditionNew}, DefaultSpec: 10})
	router := newTestHandler(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/inventory/?category=Capacitor", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"sku":"CAP-1U"`)
}

func TestStockFilterFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/inventory/?category=IC,Resistor&category=Capacitor&packageCode=0603&supplierCode=SUP-1", nil)
	filter := stockFilterFromQuery(req.URL.Query())

	require.Equal(t, []string{"IC", "Resistor", "Capacitor"}, filter.Categories)
	require.Equal(t, []string{"0603"}, filter.PackageCodes)
	require.Equal(t, "SUP-1", filter.SupplierCode)
}
