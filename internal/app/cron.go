package app

import (
	"context"
	"fmt"
	"time"

	"github.com/guardnest/core/internal/modules/auth/session"
	pkgcron "github.com/guardnest/core/internal/pkg/cron"
	"go.uber.org/zap"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, svc *session.Service, logger *zap.Logger) {
	cronLogger := logger.Named("CronService")

	sched.Register(pkgcron.Job{
		Name:        "cleanup_sessions",
		Description: "delete sessions past either expiry",
		Interval:    time.Hour,
		Fn: func(ctx context.Context) error {
			deleted, err := svc.Sweep(time.Now())
			if err != nil {
				cronLogger.Warn("session sweep failed", zap.Error(err))
				return err
			}
			cronLogger.Info(fmt.Sprintf("session sweep done, deleted %d rows", deleted))
			return nil
		},
	})
}
