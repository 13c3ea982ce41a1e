package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type session struct {
	State int    `json:"state"`
	Name  string `json:"name,omitempty"`
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestMemoryStoreRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore[session](time.Minute)
	s.Now = func() time.Time { return now }

	_, ok, err := s.Load(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, 7, session{State: 3, Name: "Ali"}))
	got, ok, err := s.Load(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, session{State: 3, Name: "Ali"}, got)

	now = now.Add(time.Minute)
	_, ok, err = s.Load(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[session](0)
	require.NoError(t, s.Save(ctx, 1, session{State: 1}))
	require.NoError(t, s.Save(ctx, 2, session{State: 2}))
	require.NoError(t, s.Clear(ctx, 1))

	_, ok, _ := s.Load(ctx, 1)
	assert.False(t, ok)
	got, ok, _ := s.Load(ctx, 2)
	assert.True(t, ok)
	assert.Equal(t, 2, got.State)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedisClient(t)
	s := NewRedisStore[session](client, "", 10*time.Minute)

	_, ok, err := s.Load(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, 42, session{State: 5, Name: "Sara"}))
	assert.True(t, mr.Exists("session:42"))

	got, ok, err := s.Load(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, session{State: 5, Name: "Sara"}, got)

	mr.FastForward(11 * time.Minute)
	_, ok, err = s.Load(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, 42, session{State: 1}))
	require.NoError(t, s.Clear(ctx, 42))
	assert.False(t, mr.Exists("session:42"))
}

func TestRedisStoreCorruptValue(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	require.NoError(t, mr.Set("session:9", "{not json"))

	_, _, err := NewRedisStore[session](client, "", 0).Load(context.Background(), 9)
	assert.ErrorContains(t, err, "decode session")
}

func TestNewSelectsBackend(t *testing.T) {
	s, closeFn, err := New[session](Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore[session]{}, s)
	assert.NoError(t, closeFn())

	_, _, err = New[session](Options{Backend: "redis"})
	assert.Error(t, err)

	_, _, err = New[session](Options{Backend: "etcd"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
