// Package scheduler drives the daily task from a cron expression stored in
// durable settings. Every instance runs its own loop; the distributed lock
// inside the task keeps the actual work on a single instance per fire.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/visitgate-api/internal/application/dailytask"
	"github.com/visitgate-api/internal/domain"
	"github.com/visitgate-api/internal/infrastructure/dynamo"
)

// SettingsSource reads operator-editable settings. Matches dynamo.SettingsRepo.
type SettingsSource interface {
	Get(ctx context.Context, key string) (string, error)
}

type Scheduler struct {
	settings    SettingsSource
	task        dailytask.Service
	defaultExpr string
	// errPause separates a failed run from the next cron computation so a
	// persistently failing task doesn't spin.
	errPause time.Duration
}

func New(settings SettingsSource, task dailytask.Service, defaultExpr string) *Scheduler {
	return &Scheduler{
		settings:    settings,
		task:        task,
		defaultExpr: defaultExpr,
		errPause:    30 * time.Second,
	}
}

// Run loops until ctx is cancelled. The cron expression is re-read from
// settings on every cycle so operators can reschedule without a restart.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		expr := s.cronExpr(ctx)
		schedule, err := cron.ParseStandard(expr)
		if err != nil {
			slog.Warn("invalid cron expression, using default", "expr", expr, "default", s.defaultExpr, "err", err)
			schedule, err = cron.ParseStandard(s.defaultExpr)
			if err != nil {
				slog.Error("default cron expression invalid, scheduler stopping", "expr", s.defaultExpr, "err", err)
				return
			}
		}

		next := schedule.Next(time.Now())
		slog.Debug("scheduler sleeping", "until", next)
		if !sleepUntil(ctx, next) {
			return
		}

		if _, err := s.task.Run(ctx); err != nil {
			slog.Error("scheduled daily task failed", "err", err)
			if !sleepFor(ctx, s.errPause) {
				return
			}
		}
	}
}

func (s *Scheduler) cronExpr(ctx context.Context) string {
	expr, err := s.settings.Get(ctx, dynamo.SettingKeyDailyCron)
	if errors.Is(err, domain.ErrNotFound) {
		return s.defaultExpr
	}
	if err != nil {
		slog.Warn("could not read cron setting, using default", "err", err)
		return s.defaultExpr
	}
	return expr
}

// sleepUntil blocks until the deadline or cancellation; false on cancel.
func sleepUntil(ctx context.Context, t time.Time) bool {
	return sleepFor(ctx, time.Until(t))
}

func sleepFor(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
