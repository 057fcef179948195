package dailytask

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/visitgate-api/internal/cache"
)

type mockTrigger struct{ mock.Mock }

func (m *mockTrigger) Trigger(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, subject, message string) error {
	return m.Called(ctx, subject, message).Error(0)
}

func okTrigger() *mockTrigger {
	t := &mockTrigger{}
	t.On("Trigger", mock.Anything).Return(nil)
	return t
}

func TestRun_ExecutesAllStepsAndReleasesLock(t *testing.T) {
	store := cache.NewMemory()
	cal, con, inv := okTrigger(), okTrigger(), okTrigger()
	svc := NewService(ServiceDeps{
		Cache: store, InstanceID: "inst-a",
		Calendar: cal, Contacts: con, Invitations: inv,
	})

	ran, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	cal.AssertExpectations(t)
	con.AssertExpectations(t)
	inv.AssertExpectations(t)

	// Lock was released: a different instance can run immediately.
	ok, err := store.TryAcquireLock(context.Background(), LockKey, "inst-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRun_SkipsWhenLockHeldElsewhere(t *testing.T) {
	store := cache.NewMemory()
	ok, err := store.TryAcquireLock(context.Background(), LockKey, "other-instance", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	cal := &mockTrigger{}
	svc := NewService(ServiceDeps{Cache: store, InstanceID: "inst-a", Calendar: cal})

	ran, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	cal.AssertNotCalled(t, "Trigger", mock.Anything)

	// The other instance's lock was not disturbed.
	v, err := store.Get(context.Background(), LockKey)
	require.NoError(t, err)
	assert.Equal(t, "other-instance", v)
}

func TestRun_StepFailureDoesNotAbortSiblings(t *testing.T) {
	store := cache.NewMemory()
	cal := okTrigger()
	con := &mockTrigger{}
	con.On("Trigger", mock.Anything).Return(errors.New("contacts api down"))
	inv := okTrigger()

	svc := NewService(ServiceDeps{
		Cache: store, InstanceID: "inst-a",
		Calendar: cal, Contacts: con, Invitations: inv,
	})

	ran, err := svc.Run(context.Background())
	assert.True(t, ran)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contacts_sync")
	inv.AssertExpectations(t)

	// Lock released even though a step failed.
	ok, lockErr := store.TryAcquireLock(context.Background(), LockKey, "inst-b", time.Minute)
	require.NoError(t, lockErr)
	assert.True(t, ok)
}

func TestRun_NotifiesSummary(t *testing.T) {
	store := cache.NewMemory()
	n := &mockNotifier{}
	n.On("Notify", mock.Anything, mock.Anything, "daily task completed").Return(nil)

	svc := NewService(ServiceDeps{
		Cache: store, InstanceID: "inst-a",
		Calendar: okTrigger(), Notifier: n,
	})

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	n.AssertExpectations(t)
}

func TestRun_NotifierFailureIsNonFatal(t *testing.T) {
	store := cache.NewMemory()
	n := &mockNotifier{}
	n.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("sns down"))

	svc := NewService(ServiceDeps{Cache: store, InstanceID: "inst-a", Notifier: n})

	ran, err := svc.Run(context.Background())
	assert.True(t, ran)
	assert.NoError(t, err)
}
