package jobs

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func newScanRouter(t *testing.T, client *Client) chi.Router {
	t.Helper()
	handler := NewHandler(nil, client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := chi.NewRouter()
	router.Route("/jobs", func(r chi.Router) {
		handler.MountAdminRoutes(r)
	})
	return router
}

func TestScanEndpointEnqueuesSweep(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	router := newScanRouter(t, client)

	req := httptest.NewRequest(http.MethodPost, "/jobs/scan", strings.NewReader(`{"threshold":3}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var body struct {
		TaskID string `json:"task_id"`
		Queue  string `json:"queue"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.TaskID)
	require.Equal(t, QueueDefault, body.Queue)
}

func TestScanEndpointAcceptsEmptyBody(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	router := newScanRouter(t, client)

	req := httptest.NewRequest(http.MethodPost, "/jobs/scan", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestScanEndpointRejectsMalformedBody(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	router := newScanRouter(t, client)

	req := httptest.NewRequest(http.MethodPost, "/jobs/scan", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanEndpointWithoutClient(t *testing.T) {
	router := newScanRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/jobs/scan", strings.NewReader(`{"threshold":3}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
