package ports

import (
	"context"
	"errors"

	"github.com/pusoydos/pusoy-backend/internal/domain/card"
	"github.com/pusoydos/pusoy-backend/internal/domain/round"
)

// Sentinel store errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrAlreadyExists   = errors.New("already exists")
)

// RoundStore is the persistence interface for rounds. A missing round is a
// normal outcome (ErrNotFound), not a fault.
type RoundStore interface {
	GetByID(ctx context.Context, gameID uint64) (*round.Round, error)

	// List returns every stored round, finished games included. The store
	// cannot tell them apart: state is an opaque blob it never reads.
	List(ctx context.Context) ([]*round.Round, error)

	Insert(ctx context.Context, r *round.Round) error

	// PersistPlay overwrites the round only when the stored StateVersion
	// equals expectedVersion, and appends rec to the play history in the
	// same atomic step. Returns ErrVersionConflict when a concurrent
	// submission won the race; the caller may re-load and retry.
	PersistPlay(ctx context.Context, r *round.Round, expectedVersion int, rec round.PlayRecord) error

	// History returns the accepted plays for a game in submission order.
	History(ctx context.Context, gameID uint64) ([]round.PlayRecord, error)
}

// PlayerView is what the engine exposes about one seated player.
type PlayerView struct {
	UserID    uint64
	CardsLeft int
	Passed    bool
	Finished  bool
}

// Game is a loaded game the engine can answer questions about and advance.
type Game interface {
	// NextPlayer reports whose turn it is.
	NextPlayer() (uint64, error)
	// Player looks up a seated player by user id.
	Player(userID uint64) (PlayerView, error)
	// Apply validates hand for userID against the game rules and returns
	// the serialized state after the play. The loaded game is not mutated,
	// so a rejected play leaves no trace. An empty hand is a pass.
	Apply(userID uint64, hand []card.Card) ([]byte, error)
}

// GameEngine reconstructs games from stored snapshots. A Load failure means
// the snapshot is corrupt; stored state should always be loadable.
type GameEngine interface {
	Load(state []byte) (Game, error)
}
