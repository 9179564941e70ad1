package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pusoydos/pusoy-backend/internal/domain/card"
	"github.com/pusoydos/pusoy-backend/internal/domain/round"
	"github.com/pusoydos/pusoy-backend/internal/engine/pusoy"
	"github.com/pusoydos/pusoy-backend/internal/ports"
)

// ErrCorruptState means a stored round failed to reconstruct into a game.
// Stored state is only ever written by the engine, so this is a
// data-integrity signal, not a user-facing rejection.
var ErrCorruptState = errors.New("stored round state is corrupt")

// MoveSubmitter drives one move submission: load the round, check the turn,
// let the engine validate and apply, persist the result.
type MoveSubmitter struct {
	store  ports.RoundStore
	engine ports.GameEngine
	log    *slog.Logger
}

func NewMoveSubmitter(store ports.RoundStore, engine ports.GameEngine, log *slog.Logger) *MoveSubmitter {
	return &MoveSubmitter{store: store, engine: engine, log: log}
}

// Submit applies hand for userID in gameID and returns the persisted round.
//
// Failure identities, matchable with errors.Is:
//   - ports.ErrNotFound: no round for gameID (stale link, deleted game)
//   - pusoy.ErrNotYourTurn: userID is not the expected mover
//   - pusoy.ErrNotInGame: userID is not seated in the game
//   - other engine rule errors: the play is not legal right now
//   - ports.ErrVersionConflict: a concurrent submission won; re-load and retry
//   - ErrCorruptState: the snapshot would not load (fatal for the request)
//
// Nothing is persisted unless the engine accepts the move, and the persisted
// state is exactly the engine's output.
func (m *MoveSubmitter) Submit(ctx context.Context, userID, gameID uint64, hand []card.Card) (*round.Round, error) {
	r, err := m.store.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			m.log.Info("no round found for game", "game_id", gameID)
		}
		return nil, err
	}

	g, err := m.engine.Load(r.State)
	if err != nil {
		m.log.Error("stored round failed to load", "game_id", gameID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}

	next, err := g.NextPlayer()
	if err != nil {
		return nil, err
	}
	if next != userID {
		// Distinguish a mistimed submission from one by a user who is not
		// seated at all. No apply call, no state mutation either way.
		if _, err := g.Player(userID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: next player is %d", pusoy.ErrNotYourTurn, next)
	}

	newState, err := g.Apply(userID, hand)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated := r.WithState(newState, now)
	rec := round.NewPlayRecord(gameID, userID, hand, now)
	if err := m.store.PersistPlay(ctx, updated, r.StateVersion, rec); err != nil {
		if errors.Is(err, ports.ErrVersionConflict) {
			m.log.Info("concurrent submission lost the race", "game_id", gameID, "user_id", userID)
		}
		return nil, err
	}

	m.log.Info("play applied", "game_id", gameID, "user_id", userID, "cards", len(hand))
	return updated, nil
}
