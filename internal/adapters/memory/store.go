package memory

import (
	"context"
	"sync"

	"github.com/pusoydos/pusoy-backend/internal/domain/round"
	"github.com/pusoydos/pusoy-backend/internal/ports"
)

// Store is a thread-safe in-memory RoundStore, used in tests and local runs.
type Store struct {
	mu sync.Mutex

	rounds map[uint64]*round.Round

	// history: gameID -> accepted plays in submission order
	history map[uint64][]round.PlayRecord
}

func New() *Store {
	return &Store{
		rounds:  make(map[uint64]*round.Round),
		history: make(map[uint64][]round.PlayRecord),
	}
}

func (s *Store) GetByID(_ context.Context, gameID uint64) (*round.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[gameID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return r, nil
}

func (s *Store) List(_ context.Context) ([]*round.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*round.Round, 0, len(s.rounds))
	for _, r := range s.rounds {
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) Insert(_ context.Context, r *round.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[r.GameID]; ok {
		return ports.ErrAlreadyExists
	}
	s.rounds[r.GameID] = r
	return nil
}

// PersistPlay overwrites the round only when the current stored StateVersion
// equals expectedVersion, appending the play record in the same step. The
// losing side of a race gets ErrVersionConflict and nothing is written.
func (s *Store) PersistPlay(_ context.Context, r *round.Round, expectedVersion int, rec round.PlayRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rounds[r.GameID]
	if !ok {
		return ports.ErrNotFound
	}
	if cur.StateVersion != expectedVersion {
		return ports.ErrVersionConflict
	}
	s.rounds[r.GameID] = r
	s.history[r.GameID] = append(s.history[r.GameID], rec)
	return nil
}

func (s *Store) History(_ context.Context, gameID uint64) ([]round.PlayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hist := s.history[gameID]
	out := make([]round.PlayRecord, len(hist))
	copy(out, hist)
	return out, nil
}
