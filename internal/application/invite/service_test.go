package invite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visitgate-api/internal/cache"
	"github.com/visitgate-api/internal/domain"
)

func newTestService() (Service, cache.Store) {
	store := cache.NewMemory()
	return NewService(ServiceDeps{Cache: store}), store
}

func TestCreate_EmptyEmail(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestCreateResolve(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tok, err := svc.Create(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	email, err := svc.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)
}

func TestResolve_DoesNotConsume(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tok, err := svc.Create(ctx, "a@x.com")
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, tok)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, tok)
	assert.NoError(t, err)
}

func TestResolve_UnknownToken(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Resolve(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConsume_EmailMismatchLeavesToken(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tok, err := svc.Create(ctx, "a@x.com")
	require.NoError(t, err)

	err = svc.Consume(ctx, tok, "b@x.com")
	assert.ErrorIs(t, err, domain.ErrMismatch)

	// The token survives a mismatched consume attempt.
	email, err := svc.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)
}

func TestConsume_CaseSensitive(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tok, err := svc.Create(ctx, "a@x.com")
	require.NoError(t, err)

	err = svc.Consume(ctx, tok, "A@X.COM")
	assert.ErrorIs(t, err, domain.ErrMismatch)
}

func TestConsume_ValidDoesNotDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tok, err := svc.Create(ctx, "a@x.com")
	require.NoError(t, err)

	require.NoError(t, svc.Consume(ctx, tok, "a@x.com"))

	// Consume is validation only; Burn is the consuming step.
	_, err = svc.Resolve(ctx, tok)
	assert.NoError(t, err)

	require.NoError(t, svc.Burn(ctx, tok))
	_, err = svc.Resolve(ctx, tok)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConsume_Expired(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	tok, err := svc.Create(ctx, "a@x.com")
	require.NoError(t, err)

	// Shrink the token's TTL to force expiry.
	require.NoError(t, store.Set(ctx, "register:token:"+tok, "a@x.com", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	err = svc.Consume(ctx, tok, "a@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOutstanding(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tokA, err := svc.Create(ctx, "a@x.com")
	require.NoError(t, err)
	tokB, err := svc.Create(ctx, "b@x.com")
	require.NoError(t, err)

	got, err := svc.Outstanding(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Invitation{
		{Token: tokA, Email: "a@x.com"},
		{Token: tokB, Email: "b@x.com"},
	}, got)
}
