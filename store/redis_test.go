package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), "redis://"+mr.Addr()+"/0", ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedis_Contract(t *testing.T) {
	r, _ := newTestRedis(t, time.Hour)
	runContract(t, r)
}

func TestRedis_KeysCarryTTL(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, 10*time.Minute)

	require.NoError(t, r.Open(ctx, "k"))
	require.NoError(t, r.Append(ctx, "k", Batch{rec("one")}))

	assert.Equal(t, 10*time.Minute, mr.TTL(markerKey("k")))
	assert.Equal(t, 10*time.Minute, mr.TTL(listKey("k")))

	require.NoError(t, r.Delete(ctx, "k"))
	assert.False(t, mr.Exists(markerKey("k")))
	assert.False(t, mr.Exists(listKey("k")))
}

func TestRedis_ExpiredAreaIsNotOpen(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, time.Minute)

	require.NoError(t, r.Open(ctx, "k"))
	require.NoError(t, r.Append(ctx, "k", Batch{rec("one")}))
	mr.FastForward(2 * time.Minute)

	assert.ErrorIs(t, r.Append(ctx, "k", Batch{rec("two")}), ErrNotOpen)
	got, err := r.ReadAll(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, got)

	// The expired key can be opened again.
	require.NoError(t, r.Open(ctx, "k"))
}

func TestNewRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(context.Background(), "redis://"+addr+"/0", time.Minute)
	assert.ErrorContains(t, err, "redis unreachable")
}
