package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DisablePeriodCleaner удаляет давно закончившиеся периоды отключения
type DisablePeriodCleaner interface {
	CleanupExpired(ctx context.Context, retention time.Duration) (int64, error)
}

type DisablePeriodCleanupWorker struct {
	cleaner   DisablePeriodCleaner
	interval  time.Duration
	retention time.Duration
}

func NewDisablePeriodCleanupWorker(cleaner DisablePeriodCleaner, interval, retention time.Duration) *DisablePeriodCleanupWorker {
	return &DisablePeriodCleanupWorker{
		cleaner:   cleaner,
		interval:  interval,
		retention: retention,
	}
}

func (w *DisablePeriodCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Info("Disable period cleanup worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Disable period cleanup worker stopped")
			return
		case <-ticker.C:
			w.cleanup(ctx)
		}
	}
}

// cleanup выполняет очистку истекших периодов отключения
func (w *DisablePeriodCleanupWorker) cleanup(ctx context.Context) {
	deleted, err := w.cleaner.CleanupExpired(ctx, w.retention)
	if err != nil {
		logrus.Errorf("Failed to clean up disable periods: %v", err)
		return
	}

	if deleted == 0 {
		logrus.Debug("No expired disable periods found for cleanup")
		return
	}
	logrus.Infof("Disable period cleanup completed: %d removed", deleted)
}
