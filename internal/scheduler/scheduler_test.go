package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/visitgate-api/internal/domain"
)

type stubSettings struct {
	expr string
	err  error
}

func (s *stubSettings) Get(context.Context, string) (string, error) {
	return s.expr, s.err
}

type countingTask struct {
	runs atomic.Int32
}

func (t *countingTask) Run(context.Context) (bool, error) {
	t.runs.Add(1)
	return true, nil
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New(&stubSettings{err: domain.ErrNotFound}, &countingTask{}, "*/15 * * * *")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancellation")
	}
}

func TestRun_InvalidStoredExpressionFallsBackToDefault(t *testing.T) {
	task := &countingTask{}
	s := New(&stubSettings{expr: "not a cron line"}, task, "*/15 * * * *")

	// The loop must survive the bad stored expression and keep scheduling
	// off the default instead of exiting.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancellation")
	}
}

func TestCronExpr_FallsBackToDefault(t *testing.T) {
	s := New(&stubSettings{err: domain.ErrNotFound}, &countingTask{}, "*/15 * * * *")
	assert.Equal(t, "*/15 * * * *", s.cronExpr(context.Background()))
}

func TestCronExpr_ReadsFreshValue(t *testing.T) {
	settings := &stubSettings{expr: "0 6 * * *"}
	s := New(settings, &countingTask{}, "*/15 * * * *")
	assert.Equal(t, "0 6 * * *", s.cronExpr(context.Background()))

	// Operator updates the setting; the next cycle sees it without restart.
	settings.expr = "30 7 * * *"
	assert.Equal(t, "30 7 * * *", s.cronExpr(context.Background()))
}
