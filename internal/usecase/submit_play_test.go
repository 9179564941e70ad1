package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pusoydos/pusoy-backend/internal/adapters/memory"
	"github.com/pusoydos/pusoy-backend/internal/domain/card"
	"github.com/pusoydos/pusoy-backend/internal/domain/round"
	"github.com/pusoydos/pusoy-backend/internal/engine/pusoy"
	"github.com/pusoydos/pusoy-backend/internal/ports"
	"github.com/pusoydos/pusoy-backend/internal/usecase"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGame scripts engine behavior for orchestration tests.
type fakeGame struct {
	next      uint64
	seated    map[uint64]bool
	applyOut  []byte
	applyErr  error
	applyCall atomic.Int32
}

func (g *fakeGame) NextPlayer() (uint64, error) { return g.next, nil }

func (g *fakeGame) Player(userID uint64) (ports.PlayerView, error) {
	if !g.seated[userID] {
		return ports.PlayerView{}, pusoy.ErrNotInGame
	}
	return ports.PlayerView{UserID: userID}, nil
}

func (g *fakeGame) Apply(_ uint64, _ []card.Card) ([]byte, error) {
	g.applyCall.Add(1)
	return g.applyOut, g.applyErr
}

type fakeEngine struct {
	game    *fakeGame
	loadErr error
}

func (e *fakeEngine) Load(_ []byte) (ports.Game, error) {
	if e.loadErr != nil {
		return nil, e.loadErr
	}
	return e.game, nil
}

// spyStore wraps the memory store and counts persist calls.
type spyStore struct {
	*memory.Store
	persistCalls int
}

func (s *spyStore) PersistPlay(ctx context.Context, r *round.Round, expectedVersion int, rec round.PlayRecord) error {
	s.persistCalls++
	return s.Store.PersistPlay(ctx, r, expectedVersion, rec)
}

func seedRound(t *testing.T, store ports.RoundStore, gameID uint64) *round.Round {
	t.Helper()
	r := round.New(gameID, []byte(`{}`), time.Now().UTC())
	require.NoError(t, store.Insert(context.Background(), r))
	return r
}

func TestSubmit_RoundNotFound(t *testing.T) {
	store := &spyStore{Store: memory.New()}
	eng := &fakeEngine{game: &fakeGame{next: 1, seated: map[uint64]bool{1: true}}}
	sub := usecase.NewMoveSubmitter(store, eng, discardLogger())

	_, err := sub.Submit(context.Background(), 1, 42, nil)
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.Zero(t, store.persistCalls, "nothing persisted for a missing round")
}

func TestSubmit_CorruptStateIsFatal(t *testing.T) {
	store := &spyStore{Store: memory.New()}
	seedRound(t, store, 42)
	eng := &fakeEngine{loadErr: pusoy.ErrBadState}
	sub := usecase.NewMoveSubmitter(store, eng, discardLogger())

	_, err := sub.Submit(context.Background(), 1, 42, nil)
	assert.ErrorIs(t, err, usecase.ErrCorruptState)
	assert.Zero(t, store.persistCalls)
}

func TestSubmit_TurnRejected(t *testing.T) {
	store := &spyStore{Store: memory.New()}
	seedRound(t, store, 42)
	game := &fakeGame{next: 2, seated: map[uint64]bool{1: true, 2: true}}
	sub := usecase.NewMoveSubmitter(store, &fakeEngine{game: game}, discardLogger())

	_, err := sub.Submit(context.Background(), 1, 42, nil)
	assert.ErrorIs(t, err, pusoy.ErrNotYourTurn)
	assert.Zero(t, game.applyCall.Load(), "move never reaches the engine on a turn violation")
	assert.Zero(t, store.persistCalls, "no state mutation on a turn violation")
}

func TestSubmit_UnseatedUserRejected(t *testing.T) {
	store := &spyStore{Store: memory.New()}
	seedRound(t, store, 42)
	game := &fakeGame{next: 2, seated: map[uint64]bool{2: true}}
	sub := usecase.NewMoveSubmitter(store, &fakeEngine{game: game}, discardLogger())

	_, err := sub.Submit(context.Background(), 99, 42, nil)
	assert.ErrorIs(t, err, pusoy.ErrNotInGame)
	assert.Zero(t, store.persistCalls)
}

func TestSubmit_EngineRejectionNotPersisted(t *testing.T) {
	store := &spyStore{Store: memory.New()}
	seedRound(t, store, 42)
	game := &fakeGame{next: 1, seated: map[uint64]bool{1: true}, applyErr: pusoy.ErrTooWeak}
	sub := usecase.NewMoveSubmitter(store, &fakeEngine{game: game}, discardLogger())

	_, err := sub.Submit(context.Background(), 1, 42, nil)
	assert.ErrorIs(t, err, pusoy.ErrTooWeak)
	assert.Zero(t, store.persistCalls)
}

func TestSubmit_AppliedPersistsEngineOutputExactly(t *testing.T) {
	store := &spyStore{Store: memory.New()}
	seeded := seedRound(t, store, 42)
	engineOut := []byte(`{"players":[],"turn":0,"phase":"playing","marker":"engine-output"}`)
	game := &fakeGame{next: 1, seated: map[uint64]bool{1: true}, applyOut: engineOut}
	sub := usecase.NewMoveSubmitter(store, &fakeEngine{game: game}, discardLogger())

	hand, err := card.ParseTokens([]string{"Clubs 2"})
	require.NoError(t, err)

	got, err := sub.Submit(context.Background(), 1, 42, hand)
	require.NoError(t, err)
	assert.Equal(t, engineOut, got.State, "persisted state is the engine output, untransformed")
	assert.Equal(t, seeded.StateVersion+1, got.StateVersion)

	stored, err := store.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, engineOut, stored.State)

	hist, err := store.History(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, uint64(1), hist[0].UserID)
	assert.Equal(t, hand, hist[0].Cards)
	assert.False(t, hist[0].Pass)
}

func TestSubmit_PassRecorded(t *testing.T) {
	store := &spyStore{Store: memory.New()}
	seedRound(t, store, 42)
	game := &fakeGame{next: 1, seated: map[uint64]bool{1: true}, applyOut: []byte(`{}`)}
	sub := usecase.NewMoveSubmitter(store, &fakeEngine{game: game}, discardLogger())

	_, err := sub.Submit(context.Background(), 1, 42, nil)
	require.NoError(t, err)

	hist, err := store.History(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.True(t, hist[0].Pass)
}

// gateStore holds every GetByID until all expected readers have loaded, so
// two submissions are guaranteed to race on the same snapshot version.
type gateStore struct {
	*memory.Store
	gate *sync.WaitGroup
}

func (s *gateStore) GetByID(ctx context.Context, gameID uint64) (*round.Round, error) {
	r, err := s.Store.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	s.gate.Done()
	s.gate.Wait()
	return r, nil
}

func TestSubmit_ConcurrentSubmissionsCannotBothPersist(t *testing.T) {
	gate := &sync.WaitGroup{}
	gate.Add(2)
	store := &gateStore{Store: memory.New(), gate: gate}
	seedRound(t, store, 42)

	game := &fakeGame{next: 1, seated: map[uint64]bool{1: true}, applyOut: []byte(`{}`)}
	sub := usecase.NewMoveSubmitter(store, &fakeEngine{game: game}, discardLogger())

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := sub.Submit(context.Background(), 1, 42, nil)
			errs <- err
		}()
	}

	var applied, conflicts int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			applied++
		case assert.ErrorIs(t, err, ports.ErrVersionConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, applied, "exactly one submission wins")
	assert.Equal(t, 1, conflicts, "the loser observes a version conflict")
}
