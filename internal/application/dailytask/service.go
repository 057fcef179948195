package dailytask

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/visitgate-api/internal/cache"
	"github.com/visitgate-api/internal/infrastructure/hooks"
)

const (
	// LockKey guards the daily task across every instance of the deployment.
	LockKey = "daily_task_lock"
	// lockTTL bounds how long a crashed holder can block the task.
	lockTTL = 5 * time.Minute
)

// Notifier receives the end-of-run summary. Matches sns.Notifier.
type Notifier interface {
	Notify(ctx context.Context, subject, message string) error
}

type Service interface {
	// Run executes the daily task if this instance wins the distributed
	// lock. Returns false when another instance holds the lock — the normal
	// outcome for all but one instance per cycle, not an error. Safe to call
	// concurrently from the scheduler and the manual admin trigger.
	Run(ctx context.Context) (bool, error)
}

type ServiceDeps struct {
	Cache       cache.Store
	InstanceID  string
	Calendar    hooks.Trigger
	Contacts    hooks.Trigger
	Invitations hooks.Trigger
	Notifier    Notifier // optional
}

type service struct {
	cache       cache.Store
	instanceID  string
	calendar    hooks.Trigger
	contacts    hooks.Trigger
	invitations hooks.Trigger
	notifier    Notifier
}

func NewService(deps ServiceDeps) Service {
	return &service{
		cache:       deps.Cache,
		instanceID:  deps.InstanceID,
		calendar:    deps.Calendar,
		contacts:    deps.Contacts,
		invitations: deps.Invitations,
		notifier:    deps.Notifier,
	}
}

func (s *service) Run(ctx context.Context) (bool, error) {
	acquired, err := s.cache.TryAcquireLock(ctx, LockKey, s.instanceID, lockTTL)
	if err != nil {
		return false, fmt.Errorf("acquire daily task lock: %w", err)
	}
	if !acquired {
		slog.Info("daily task lock held elsewhere, skipping cycle", "instance", s.instanceID)
		return false, nil
	}

	defer func() {
		// Release survives caller cancellation; the TTL is the safety net
		// if this process dies before getting here.
		released, rerr := s.cache.ReleaseLock(context.WithoutCancel(ctx), LockKey, s.instanceID)
		switch {
		case rerr != nil:
			slog.Warn("daily task lock release failed", "instance", s.instanceID, "err", rerr)
		case !released:
			// Expected when the run outlived the TTL and another instance
			// re-acquired; the compare-and-delete refused to touch its lock.
			slog.Info("daily task lock no longer held by this instance", "instance", s.instanceID)
		default:
			slog.Info("daily task lock released", "instance", s.instanceID)
		}
	}()

	slog.Info("daily task starting", "instance", s.instanceID)

	// Each step runs regardless of its siblings' outcomes.
	var failed []string
	steps := []struct {
		name    string
		trigger hooks.Trigger
	}{
		{"calendar_sync", s.calendar},
		{"contacts_sync", s.contacts},
		{"invitation_dispatch", s.invitations},
	}
	for _, step := range steps {
		if step.trigger == nil {
			continue
		}
		if err := step.trigger.Trigger(ctx); err != nil {
			slog.Error("daily task step failed", "step", step.name, "err", err)
			failed = append(failed, step.name)
		}
	}

	s.notify(ctx, failed)

	if len(failed) > 0 {
		return true, fmt.Errorf("daily task steps failed: %s", strings.Join(failed, ", "))
	}
	return true, nil
}

func (s *service) notify(ctx context.Context, failed []string) {
	if s.notifier == nil {
		return
	}
	message := "daily task completed"
	if len(failed) > 0 {
		message = "daily task completed with failures: " + strings.Join(failed, ", ")
	}
	if err := s.notifier.Notify(ctx, "visitgate daily task", message); err != nil {
		slog.Warn("daily task notification failed", "err", err)
	}
}
