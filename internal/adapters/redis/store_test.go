//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "github.com/pusoydos/pusoy-backend/internal/adapters/redis"
	"github.com/pusoydos/pusoy-backend/internal/domain/card"
	"github.com/pusoydos/pusoy-backend/internal/domain/round"
	"github.com/pusoydos/pusoy-backend/internal/ports"
)

const (
	expireSeconds   = 120
	maxWaitDuration = 120 * time.Second
)

func setupStore(t *testing.T) *redisstore.Store {
	t.Helper()
	ctx := context.Background()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "connect to docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "alpine",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "start redis container")
	_ = resource.Expire(expireSeconds)

	addr := resource.GetHostPort("6379/tcp")
	pool.MaxWait = maxWaitDuration

	var client *goredis.Client
	err = pool.Retry(func() error {
		client = goredis.NewClient(&goredis.Options{Addr: addr})
		return client.Ping(ctx).Err()
	})
	require.NoError(t, err, "redis not reachable")
	t.Cleanup(func() {
		_ = client.Close()
		_ = pool.Purge(resource)
	})

	return redisstore.New(client)
}

func newTestRound(gameID uint64) *round.Round {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return round.New(gameID, []byte(`{"players":[{"id":1},{"id":2}],"turn":0,"phase":"playing"}`), now)
}

func TestStore_RoundLifecycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.GetByID(ctx, 99)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	r := newTestRound(1)
	require.NoError(t, s.Insert(ctx, r))
	assert.ErrorIs(t, s.Insert(ctx, r), ports.ErrAlreadyExists)

	got, err := s.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, r.GameID, got.GameID)
	assert.Equal(t, r.State, got.State)
	assert.Equal(t, 0, got.StateVersion)

	require.NoError(t, s.Insert(ctx, newTestRound(2)))
	rounds, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rounds, 2)
}

func TestStore_PersistPlayCAS(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	r := newTestRound(1)
	require.NoError(t, s.Insert(ctx, r))

	now := time.Now().UTC().Truncate(time.Millisecond)
	played := []card.Card{{Rank: card.Two, Suit: card.Clubs}}
	updated := r.WithState([]byte(`{"turn":1}`), now)
	require.NoError(t, s.PersistPlay(ctx, updated, r.StateVersion, round.NewPlayRecord(1, 7, played, now)))

	got, err := s.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StateVersion)
	assert.Equal(t, []byte(`{"turn":1}`), got.State)

	// A stale writer observes the conflict.
	stale := r.WithState([]byte(`{"stale":true}`), now)
	err = s.PersistPlay(ctx, stale, r.StateVersion, round.NewPlayRecord(1, 8, nil, now))
	assert.ErrorIs(t, err, ports.ErrVersionConflict)

	hist, err := s.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, uint64(7), hist[0].UserID)
	assert.Equal(t, played, hist[0].Cards)
	assert.False(t, hist[0].Pass)
}

func TestStore_PersistPlayMissingRound(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	r := newTestRound(5)
	err := s.PersistPlay(ctx, r.WithState([]byte(`{}`), time.Now().UTC()), 0,
		round.NewPlayRecord(5, 1, nil, time.Now().UTC()))
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
