package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/usecase"
)

type BackgroundTasks struct {
	ReconciliationUsecase usecase.ReconciliationUsecase
	BatchInterval         time.Duration
	Logger                *slog.Logger
}

func NewBackgroundTasks(reconciliationUC usecase.ReconciliationUsecase, batchInterval time.Duration, logger *slog.Logger) *BackgroundTasks {
	return &BackgroundTasks{
		ReconciliationUsecase: reconciliationUC,
		BatchInterval:         batchInterval,
		Logger:                logger,
	}
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	go bt.startBatchReconciliation(ctx)
}

// startBatchReconciliation is disabled by a non-positive interval.
func (bt *BackgroundTasks) startBatchReconciliation(ctx context.Context) {
	if bt.BatchInterval <= 0 {
		bt.Logger.Info("periodic batch reconciliation disabled")
		return
	}
	ticker := time.NewTicker(bt.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := bt.ReconciliationUsecase.RecomputeAll(ctx); err != nil {
				bt.Logger.Error("periodic batch reconciliation failed", "error", err)
			}
		}
	}
}
