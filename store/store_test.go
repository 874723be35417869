package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shopreco/core"
)

func TestKeyValueStores(t *testing.T) {
	tests := []struct {
		name string
		open func(t *testing.T) core.KeyValueStore
	}{
		{
			name: "memory",
			open: func(t *testing.T) core.KeyValueStore { return NewMemoryStore() },
		},
		{
			name: "redis",
			open: func(t *testing.T) core.KeyValueStore {
				mr := miniredis.RunT(t)
				return NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
			},
		},
		{
			name: "bolt",
			open: func(t *testing.T) core.KeyValueStore {
				s, err := NewBoltStore(filepath.Join(t.TempDir(), "shopreco.db"))
				require.NoError(t, err)
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.open(t)
			defer s.Close()
			exerciseKeyValueStore(t, s)
		})
	}
}

func exerciseKeyValueStore(t *testing.T, s core.KeyValueStore) {
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.True(t, core.IsStoreNotFound(err))

	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	require.NoError(t, s.BatchSet(ctx, map[string][]byte{"b": []byte("2"), "c": []byte("3")}))

	v, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", string(v))

	got, err := s.BatchGet(ctx, []string{"a", "b", "nope"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, got)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.True(t, core.IsStoreNotFound(err))

	// hash
	require.NoError(t, s.HSet(ctx, "catalog:products", "p1", []byte(`{"id":"p1"}`)))
	require.NoError(t, s.HSet(ctx, "catalog:products", "p2", []byte(`{"id":"p2"}`)))

	hv, err := s.HGet(ctx, "catalog:products", "p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p1"}`, string(hv))

	_, err = s.HGet(ctx, "catalog:products", "p9")
	assert.True(t, core.IsStoreNotFound(err))

	some, err := s.HMGet(ctx, "catalog:products", "p2", "p9")
	require.NoError(t, err)
	assert.Len(t, some, 1)
	assert.Contains(t, some, "p2")

	all, err := s.HGetAll(ctx, "catalog:products")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err := s.HLen(ctx, "catalog:products")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	// list
	empty, err := s.LRange(ctx, "interactions:log", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.RPush(ctx, "interactions:log", []byte("e1"), []byte("e2")))
	require.NoError(t, s.RPush(ctx, "interactions:log", []byte("e3")))

	list, err := s.LRange(ctx, "interactions:log", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("e1"), []byte("e2"), []byte("e3")}, list)

	tail, err := s.LRange(ctx, "interactions:log", -2, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("e2"), []byte("e3")}, tail)
}

func TestListRange(t *testing.T) {
	tests := []struct {
		name        string
		n           int64
		start, stop int64
		lo, hi      int64
		ok          bool
	}{
		{name: "whole", n: 3, start: 0, stop: -1, lo: 0, hi: 2, ok: true},
		{name: "clamped stop", n: 3, start: 1, stop: 10, lo: 1, hi: 2, ok: true},
		{name: "negative start", n: 3, start: -1, stop: -1, lo: 2, hi: 2, ok: true},
		{name: "empty list", n: 0, start: 0, stop: -1, ok: false},
		{name: "inverted", n: 3, start: 2, stop: 1, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi, ok := listRange(tt.n, tt.start, tt.stop)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.lo, lo)
				assert.Equal(t, tt.hi, hi)
			}
		})
	}
}
