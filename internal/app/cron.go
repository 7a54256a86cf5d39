package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ecosphere/core/internal/modules/content/blog"
	"github.com/ecosphere/core/internal/modules/content/news"
	"github.com/ecosphere/core/internal/modules/storage/backup"
	appconfigs "github.com/ecosphere/core/internal/modules/system/core/configs"
	pkgcron "github.com/ecosphere/core/internal/pkg/cron"
	pkgredis "github.com/ecosphere/core/internal/pkg/redis"
	sessionpkg "github.com/ecosphere/core/internal/pkg/session"
	"github.com/ecosphere/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionRetention = 30 * 24 * time.Hour

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, rc *pkgredis.Client, logger *zap.Logger) {
	cfgSvc := appconfigs.NewService(db)
	aggregator := news.NewAggregator(cfgSvc, rc, logger)
	taskSvc := taskqueue.NewService(rc)
	blogSvc := blog.NewService(db)
	cronLogger := logger.Named("CronService")

	sched.Register(pkgcron.Job{
		Name:        "refresh_news_feed",
		Description: "refresh the external news feed cache",
		Interval:    30 * time.Minute,
		Fn: func(ctx context.Context) error {
			if err := aggregator.Refresh(ctx); err != nil {
				cronLogger.Warn("news feed refresh failed", zap.Error(err))
				return err
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "cleanup_sessions",
		Description: "purge login sessions past their retention window",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			deleted, err := sessionpkg.CleanupExpired(db, sessionRetention)
			if err != nil {
				cronLogger.Warn("session cleanup failed", zap.Error(err))
				return err
			}
			cronLogger.Info(fmt.Sprintf("session cleanup removed %d rows", deleted))
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "reconcile_like_counts",
		Description: "recompute denormalized blog like counters",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			affected, err := blogSvc.ReconcileLikeCounts()
			if err != nil {
				cronLogger.Warn("like count reconcile failed", zap.Error(err))
				return err
			}
			cronLogger.Info("like counts reconciled", zap.Int64("rows", affected))
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "auto_backup",
		Description: "back up the database to local disk",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cfg, err := cfgSvc.Get()
			if err != nil {
				return err
			}
			if !cfg.BackupPolicy.Enable {
				return nil
			}
			if err := backup.CreateLocalBackup(db); err != nil {
				cronLogger.Warn("backup failed", zap.Error(err))
				return err
			}
			cronLogger.Info("backup completed")
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "cleanup_tasks",
		Description: "drop finished background tasks older than three days",
		Interval:    12 * time.Hour,
		Fn: func(ctx context.Context) error {
			return taskSvc.DeleteCompleted(ctx, time.Now().Add(-72*time.Hour).UnixMilli())
		},
	})
}
