package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type reportCleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// StartReportCleanup schedules periodic removal of expired report files. The caller stops the
// returned scheduler on shutdown.
func StartReportCleanup(schedule string, cleaner reportCleaner, logger *zap.Logger) (*cron.Cron, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := cleaner.CleanupExpired(ctx); err != nil {
			logger.Warn("report cleanup failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	logger.Info("report cleanup scheduled", zap.String("schedule", schedule))
	return c, nil
}
