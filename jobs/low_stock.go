package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/partshelf/partshelf/internal/inventory"
	jobmetrics "github.com/partshelf/partshelf/internal/jobs"
)

// LowStockScanner reports parts whose usable piece count fell below a threshold.
type LowStockScanner interface {
	ListLowStock(ctx context.Context, threshold float64) ([]inventory.LowStockRow, error)
}

// LowStockScanJob sweeps the inventory for parts that need restocking.
type LowStockScanJob struct {
	Scanner          LowStockScanner
	Logger           *slog.Logger
	Metrics          *jobmetrics.Metrics
	DefaultThreshold float64
}

// NewLowStockScanJob wires dependencies for the low stock handler.
func NewLowStockScanJob(scanner LowStockScanner, logger *slog.Logger, metrics *jobmetrics.Metrics, threshold float64) *LowStockScanJob {
	return &LowStockScanJob{Scanner: scanner, Logger: logger, Metrics: metrics, DefaultThreshold: threshold}
}

// Handle processes low stock sweep tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Scanner == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	threshold := payload.Threshold
	if threshold <= 0 {
		threshold = j.DefaultThreshold
	}
	if threshold <= 0 {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskLowStockScan)
	defer func() {
		err = tracker.End(err)
	}()

	rows, err := j.Scanner.ListLowStock(ctx, threshold)
	if err != nil {
		return err
	}
	for _, row := range rows {
		j.Metrics.SetLowStock(row.SKU, row.PieceCount)
		j.logger().Warn("part below restock threshold",
			slog.String("sku", row.SKU),
			slog.String("name", row.Name),
			slog.Float64("pieces", row.PieceCount),
			slog.Float64("threshold", threshold))
	}
	j.logger().Info("low stock sweep complete",
		slog.Int("flagged", len(rows)),
		slog.Float64("threshold", threshold))
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
