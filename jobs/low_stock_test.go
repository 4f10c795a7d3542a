package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/partshelf/partshelf/internal/inventory"
	jobmetrics "github.com/partshelf/partshelf/internal/jobs"
)

type stubScanner struct {
	threshold float64
	rows      []inventory.LowStockRow
	err       error
}

func (s *stubScanner) ListLowStock(ctx context.Context, threshold float64) ([]inventory.LowStockRow, error) {
	s.threshold = threshold
	return s.rows, s.err
}

func newScanTask(t *testing.T, payload LowStockPayload) *asynq.Task {
	t.Helper()
	task, err := NewLowStockScanTask(payload)
	require.NoError(t, err)
	return task
}

func TestLowStockScanUsesPayloadThreshold(t *testing.T) {
	scanner := &stubScanner{rows: []inventory.LowStockRow{{SKU: "RES-10K", Name: "Resistor 10k", PieceCount: 2}}}
	job := NewLowStockScanJob(scanner, slog.New(slog.NewTextHandler(io.Discard, nil)), nil, 5)

	err := job.Handle(context.Background(), newScanTask(t, LowStockPayload{Threshold: 3}))
	require.NoError(t, err)
	require.InDelta(t, 3, scanner.threshold, 1e-9)
}

func TestLowStockScanFallsBackToDefaultThreshold(t *testing.T) {
	scanner := &stubScanner{}
	job := NewLowStockScanJob(scanner, nil, nil, 5)

	err := job.Handle(context.Background(), newScanTask(t, LowStockPayload{}))
	require.NoError(t, err)
	require.InDelta(t, 5, scanner.threshold, 1e-9)
}

func TestLowStockScanPropagatesScannerError(t *testing.T) {
	boom := errors.New("db down")
	scanner := &stubScanner{err: boom}
	job := NewLowStockScanJob(scanner, nil, nil, 5)

	err := job.Handle(context.Background(), newScanTask(t, LowStockPayload{Threshold: 1}))
	require.ErrorIs(t, err, boom)
}

func TestLowStockScanRecordsFailureMetric(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	scanner := &stubScanner{err: errors.New("db down")}
	job := NewLowStockScanJob(scanner, nil, metrics, 5)

	err := job.Handle(context.Background(), newScanTask(t, LowStockPayload{Threshold: 1}))
	require.Error(t, err)

	failures, gatherErr := testutil.GatherAndCount(registry, "partshelf_jobs_failures_total")
	require.NoError(t, gatherErr)
	require.Equal(t, 1, failures)
}

func TestLowStockScanSkipsMalformedPayload(t *testing.T) {
	job := NewLowStockScanJob(&stubScanner{}, nil, nil, 5)

	err := job.Handle(context.Background(), asynq.NewTask(TaskLowStockScan, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
