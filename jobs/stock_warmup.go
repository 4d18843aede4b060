package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/reports"
)

// StockWarmupJob pre-populates the cached stock list so the first request
// after an invalidation does not pay the full query cost.
type StockWarmupJob struct {
	Reports *reports.Service
	Logger  *slog.Logger
}

// NewStockWarmupJob wires dependencies for the warmup handler.
func NewStockWarmupJob(reportsSvc *reports.Service, logger *slog.Logger) *StockWarmupJob {
	return &StockWarmupJob{Reports: reportsSvc, Logger: logger}
}

// Handle processes stock warmup tasks.
func (j *StockWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("stock warmup: handler not configured")
	}
	started := time.Now()
	if err := j.Reports.Warm(ctx); err != nil {
		j.Logger.Error("stock warmup failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("stock warmup done", slog.Duration("took", time.Since(started)))
	return nil
}
