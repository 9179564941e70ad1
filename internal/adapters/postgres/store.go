package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pusoydos/pusoy-backend/internal/domain/card"
	"github.com/pusoydos/pusoy-backend/internal/domain/round"
	"github.com/pusoydos/pusoy-backend/internal/ports"
)

const queryGetByID = `
SELECT game_id, state, state_version, created_at, updated_at
FROM rounds
WHERE game_id = $1`

const queryList = `
SELECT game_id, state, state_version, created_at, updated_at
FROM rounds
ORDER BY created_at ASC`

const queryInsert = `
INSERT INTO rounds (game_id, state, state_version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (game_id) DO NOTHING`

const queryUpdateRound = `
UPDATE rounds SET
    state         = $1,
    state_version = $2,
    updated_at    = $3
WHERE game_id = $4 AND state_version = $5`

const queryInsertPlay = `
INSERT INTO plays (id, game_id, user_id, cards, pass, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

const queryHistory = `
SELECT id, game_id, user_id, cards, pass, created_at
FROM plays
WHERE game_id = $1
ORDER BY seq ASC`

// Store is a PostgreSQL-backed RoundStore.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetByID(ctx context.Context, gameID uint64) (*round.Round, error) {
	row := s.pool.QueryRow(ctx, queryGetByID, int64(gameID))
	r, err := scanRound(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	return r, err
}

func (s *Store) List(ctx context.Context) ([]*round.Round, error) {
	rows, err := s.pool.Query(ctx, queryList)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*round.Round
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Insert(ctx context.Context, r *round.Round) error {
	tag, err := s.pool.Exec(ctx, queryInsert,
		int64(r.GameID), r.State, r.StateVersion, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrAlreadyExists
	}
	return nil
}

// PersistPlay updates the round with a CAS on state_version and records the
// play in the same transaction. A concurrent submission that already bumped
// the version makes the UPDATE match zero rows, and the whole transaction
// rolls back with ErrVersionConflict.
func (s *Store) PersistPlay(ctx context.Context, r *round.Round, expectedVersion int, rec round.PlayRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, queryUpdateRound,
		r.State, r.StateVersion, r.UpdatedAt, int64(r.GameID), expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing round from a lost race.
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM rounds WHERE game_id = $1)`, int64(r.GameID),
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ports.ErrNotFound
		}
		return ports.ErrVersionConflict
	}

	cardsJSON, err := json.Marshal(rec.Cards)
	if err != nil {
		return fmt.Errorf("marshal play cards: %w", err)
	}
	if _, err := tx.Exec(ctx, queryInsertPlay,
		rec.ID, int64(rec.GameID), int64(rec.UserID), cardsJSON, rec.Pass, rec.CreatedAt,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) History(ctx context.Context, gameID uint64) ([]round.PlayRecord, error) {
	rows, err := s.pool.Query(ctx, queryHistory, int64(gameID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []round.PlayRecord{}
	for rows.Next() {
		var (
			rec       round.PlayRecord
			gid, uid  int64
			cardsJSON []byte
		)
		if err := rows.Scan(&rec.ID, &gid, &uid, &cardsJSON, &rec.Pass, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.GameID = uint64(gid)
		rec.UserID = uint64(uid)
		var cards []card.Card
		if err := json.Unmarshal(cardsJSON, &cards); err != nil {
			return nil, fmt.Errorf("unmarshal play cards: %w", err)
		}
		rec.Cards = cards
		out = append(out, rec)
	}
	return out, rows.Err()
}

// scanRound reads a round row from either a pgx.Row or pgx.Rows.
func scanRound(s interface {
	Scan(dest ...any) error
}) (*round.Round, error) {
	var (
		gameID int64
		r      round.Round
	)
	if err := s.Scan(&gameID, &r.State, &r.StateVersion, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.GameID = uint64(gameID)
	return &r, nil
}
