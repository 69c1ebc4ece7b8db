package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	keys map[string]struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: map[string]struct{}{}}
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = struct{}{}
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			delete(f.keys, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestGuardCheck(t *testing.T) {
	g := New(newFakeStore())

	require.NoError(t, g.Check(context.Background(), 1, "k1"))
	require.ErrorIs(t, g.Check(context.Background(), 1, "k1"), ErrDuplicateRequest)

	// Keys are scoped per user.
	require.NoError(t, g.Check(context.Background(), 2, "k1"))
}

func TestGuardRelease(t *testing.T) {
	g := New(newFakeStore())

	require.NoError(t, g.Check(context.Background(), 1, "k1"))
	g.Release(context.Background(), 1, "k1")
	require.NoError(t, g.Check(context.Background(), 1, "k1"))
}

func TestGuardEmptyKey(t *testing.T) {
	g := New(newFakeStore())

	require.NoError(t, g.Check(context.Background(), 1, ""))
	require.NoError(t, g.Check(context.Background(), 1, ""))
}

func TestGuardNil(t *testing.T) {
	var g *Guard
	require.NoError(t, g.Check(context.Background(), 1, "k1"))
	g.Release(context.Background(), 1, "k1")
}
