package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/investorcrm/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Job names
const (
	JobOverdueTasks = "overdue_tasks"
	JobGoogleSync   = "google_sync"
	JobNewsRefresh  = "news_refresh"
	JobPurgeDeleted = "purge_deleted"
)

// OverdueSweeper marks tasks overdue and emits one notification per task
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context, now time.Time) (int, error)
}

// GoogleSyncer syncs mail and calendar for every connected user
type GoogleSyncer interface {
	SyncAll(ctx context.Context) (int, error)
}

// NewsRefresher warms the news cache
type NewsRefresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

// Purger hard-deletes rows that have been in the trash since before the cutoff
type Purger interface {
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
}

// Tasks groups the collaborators of the built-in jobs. Nil members are not scheduled.
type Tasks struct {
	Overdue    OverdueSweeper
	GoogleSync GoogleSyncer
	News       NewsRefresher
	Purge      Purger
}

// RegisterTasks registers the built-in jobs with the schedules from cfg
func (s *Scheduler) RegisterTasks(cfg config.SchedulerConfig, t Tasks) error {
	now := func() time.Time { return time.Now().UTC() }

	if t.Overdue != nil {
		if err := s.Register(JobOverdueTasks, cfg.OverdueTaskCron, func(ctx context.Context) error {
			n, err := t.Overdue.SweepOverdue(ctx, now())
			s.logCount(JobOverdueTasks, n)
			return err
		}); err != nil {
			return err
		}
	}
	if t.GoogleSync != nil && cfg.GoogleSyncInterval > 0 {
		spec := fmt.Sprintf("@every %s", cfg.GoogleSyncInterval)
		if err := s.Register(JobGoogleSync, spec, func(ctx context.Context) error {
			n, err := t.GoogleSync.SyncAll(ctx)
			s.logCount(JobGoogleSync, n)
			return err
		}); err != nil {
			return err
		}
	}
	if t.News != nil {
		if err := s.Register(JobNewsRefresh, cfg.NewsRefreshCron, func(ctx context.Context) error {
			n, err := t.News.RefreshAll(ctx)
			s.logCount(JobNewsRefresh, n)
			return err
		}); err != nil {
			return err
		}
	}
	if t.Purge != nil {
		retention := cfg.PurgeRetention
		if err := s.Register(JobPurgeDeleted, cfg.PurgeCron, func(ctx context.Context) error {
			n, err := t.Purge.PurgeDeleted(ctx, now().Add(-retention))
			s.logCount(JobPurgeDeleted, int(n))
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) logCount(name string, n int) {
	if n > 0 {
		s.logger.Info("Job processed items", zap.String("job", name), zap.Int("count", n))
	}
}
