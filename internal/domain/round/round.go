package round

import (
	"time"

	"github.com/google/uuid"

	"github.com/pusoydos/pusoy-backend/internal/domain/card"
)

// Round is one game's stored snapshot. State is an opaque serialized blob
// owned by the engine; the rest of the system loads it, hands it to the
// engine, and persists whatever the engine returns, never looking inside.
type Round struct {
	GameID       uint64
	State        []byte
	StateVersion int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// New wraps a freshly dealt engine state into a version-zero round.
func New(gameID uint64, state []byte, now time.Time) *Round {
	return &Round{
		GameID:       gameID,
		State:        state,
		StateVersion: 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// WithState returns a copy carrying the new engine state and a bumped
// version. The receiver is never mutated, so the caller can pass the copy to
// a compare-and-swap update while the original still holds the expected
// version.
func (r *Round) WithState(state []byte, now time.Time) *Round {
	return &Round{
		GameID:       r.GameID,
		State:        state,
		StateVersion: r.StateVersion + 1,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    now,
	}
}

// PlayRecord is one accepted play, kept as history alongside the snapshot.
// An empty Cards slice records a pass.
type PlayRecord struct {
	ID        uuid.UUID
	GameID    uint64
	UserID    uint64
	Cards     []card.Card
	Pass      bool
	CreatedAt time.Time
}

// NewPlayRecord builds the history entry for an accepted play.
func NewPlayRecord(gameID, userID uint64, cards []card.Card, now time.Time) PlayRecord {
	return PlayRecord{
		ID:        uuid.New(),
		GameID:    gameID,
		UserID:    userID,
		Cards:     cards,
		Pass:      len(cards) == 0,
		CreatedAt: now,
	}
}
