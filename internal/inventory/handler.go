package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/partshelf/partshelf/internal/auth"
	"github.com/partshelf/partshelf/internal/observability"
	"github.com/partshelf/partshelf/internal/platform/httpx"
)

// Handler wires HTTP endpoints for inventory operations.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics *observability.Metrics
}

// NewHandler constructs an inventory handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics}
}

// MountCutRoute registers the cut endpoint under the /parts subtree.
func (h *Handler) MountCutRoute(r chi.Router) {
	r.Post("/cut", h.handleCut)
}

// MountRoutes registers the inventory-centric listing.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleListStock)
}

type cutRequest struct {
	InventoryID int64   `json:"inventoryId"`
	UseAmount   float64 `json:"useAmount"`
}

type cutResponse struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	OriginalID    int64   `json:"original_id"`
	RemainingSpec float64 `json:"remaining_spec"`
}

func (h *Handler) handleCut(w http.ResponseWriter, r *http.Request) {
	var req cutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	result, err := h.service.Cut(r.Context(), CutInput{
		LotID:     req.InventoryID,
		UseAmount: req.UseAmount,
		Actor:     identity.Subject,
	})
	if err != nil {
		h.observeCutError(err)
		switch {
		case errors.Is(err, ErrMissingInput):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "inventoryId and useAmount are both required")
		case errors.Is(err, ErrLotNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "inventory lot not found")
		case errors.Is(err, ErrInsufficientQuantity):
			httpx.Problem(w, http.StatusBadRequest, "Insufficient Quantity", "lot has no remaining quantity")
		case errors.Is(err, ErrExceedsSpec):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "use amount exceeds current spec")
		default:
			h.logger.Error("cut lot", slog.Any("error", err), slog.Int64("lot_id", req.InventoryID))
			httpx.RespondError(w, err)
		}
		return
	}

	h.metrics.ObserveCut("ok")
	h.logger.Info("lot cut",
		slog.Int64("lot_id", result.LotID),
		slog.Float64("use_amount", req.UseAmount),
		slog.Float64("remaining_spec", result.RemainingSpec))
	httpx.JSON(w, http.StatusOK, cutResponse{
		Success:       true,
		Message:       "cut completed",
		OriginalID:    result.LotID,
		RemainingSpec: result.RemainingSpec,
	})
}

func (h *Handler) handleListStock(w http.ResponseWriter, r *http.Request) {
	filter := stockFilterFromQuery(r.URL.Query())
	rows, err := h.service.ListStock(r.Context(), filter)
	if err != nil {
		h.logger.Error("list stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) observeCutError(err error) {
	switch {
	case errors.Is(err, ErrMissingInput):
		h.metrics.ObserveCut("missing_input")
	case errors.Is(err, ErrLotNotFound):
		h.metrics.ObserveCut("not_found")
	case errors.Is(err, ErrInsufficientQuantity):
		h.metrics.ObserveCut("insufficient")
	case errors.Is(err, ErrExceedsSpec):
		h.metrics.ObserveCut("exceeds_spec")
	default:
		h.metrics.ObserveCut("error")
	}
}

func stockFilterFromQuery(q url.Values) StockFilter {
	return StockFilter{
		Categories:   splitCSV(q, "category"),
		PackageCodes: splitCSV(q, "packageCode"),
		SupplierCode: q.Get("supplierCode"),
	}
}

func splitCSV(q url.Values, name string) []string {
	var out []string
	for _, raw := range q[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
