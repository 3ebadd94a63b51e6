package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDenylist(t *testing.T) (*TokenDenylist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTokenDenylist(client), mr
}

func TestDenyAndIsDenied(t *testing.T) {
	d, _ := newTestDenylist(t)
	ctx := context.Background()

	denied, err := d.IsDenied(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, denied)

	require.NoError(t, d.Deny(ctx, "jti-1", time.Minute))

	denied, err = d.IsDenied(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, denied)

	// Other token IDs are unaffected.
	denied, err = d.IsDenied(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, denied)
}

func TestDenyEntryExpiresWithToken(t *testing.T) {
	d, mr := newTestDenylist(t)
	ctx := context.Background()

	require.NoError(t, d.Deny(ctx, "jti-1", time.Minute))

	mr.FastForward(2 * time.Minute)

	denied, err := d.IsDenied(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, denied)
}

func TestNilClientDegradesOpen(t *testing.T) {
	d := NewTokenDenylist(nil)
	ctx := context.Background()

	denied, err := d.IsDenied(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, denied)

	assert.Error(t, d.Deny(ctx, "jti-1", time.Minute))
}

func TestDenyNonPositiveTTLIsNoop(t *testing.T) {
	d, mr := newTestDenylist(t)

	require.NoError(t, d.Deny(context.Background(), "jti-1", 0))
	assert.False(t, mr.Exists(denylistPrefix+"jti-1"))
}
