package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pusoydos/pusoy-backend/internal/domain/round"
	"github.com/pusoydos/pusoy-backend/internal/ports"
)

const (
	roundKeyPrefix = "round:"
	playsKeyPrefix = "plays:"
	indexKey       = "rounds"
)

// Store is a Redis-backed RoundStore. Rounds are stored as JSON blobs keyed
// by game id; optimistic concurrency rides on WATCH, so a conflicting write
// between load and save aborts the transaction.
type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// storedRound is the JSON shape kept under round:<id>.
type storedRound struct {
	GameID       uint64          `json:"game_id"`
	State        json.RawMessage `json:"state"`
	StateVersion int             `json:"state_version"`
	CreatedAt    int64           `json:"created_at"`
	UpdatedAt    int64           `json:"updated_at"`
}

func roundKey(gameID uint64) string {
	return roundKeyPrefix + strconv.FormatUint(gameID, 10)
}

func playsKey(gameID uint64) string {
	return playsKeyPrefix + strconv.FormatUint(gameID, 10)
}

func (s *Store) GetByID(ctx context.Context, gameID uint64) (*round.Round, error) {
	val, err := s.client.Get(ctx, roundKey(gameID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get round: %w", err)
	}
	return decodeRound([]byte(val))
}

func (s *Store) List(ctx context.Context) ([]*round.Round, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	out := make([]*round.Round, 0, len(ids))
	for _, id := range ids {
		gameID, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			continue
		}
		r, err := s.GetByID(ctx, gameID)
		if errors.Is(err, ports.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, r *round.Round) error {
	blob, err := encodeRound(r)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, roundKey(r.GameID), blob, 0).Result()
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	if !ok {
		return ports.ErrAlreadyExists
	}
	return s.client.SAdd(ctx, indexKey, strconv.FormatUint(r.GameID, 10)).Err()
}

// PersistPlay performs the CAS inside a WATCH block: the stored version must
// still equal expectedVersion when the transaction queues, and any concurrent
// write to the round key aborts it.
func (s *Store) PersistPlay(ctx context.Context, r *round.Round, expectedVersion int, rec round.PlayRecord) error {
	key := roundKey(r.GameID)

	txf := func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ports.ErrNotFound
		}
		if err != nil {
			return err
		}
		cur, err := decodeRound([]byte(val))
		if err != nil {
			return err
		}
		if cur.StateVersion != expectedVersion {
			return ports.ErrVersionConflict
		}

		blob, err := encodeRound(r)
		if err != nil {
			return err
		}
		recJSON, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal play record: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, blob, 0)
			pipe.RPush(ctx, playsKey(r.GameID), recJSON)
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ports.ErrVersionConflict
	}
	return err
}

func (s *Store) History(ctx context.Context, gameID uint64) ([]round.PlayRecord, error) {
	vals, err := s.client.LRange(ctx, playsKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	out := make([]round.PlayRecord, 0, len(vals))
	for _, v := range vals {
		var rec round.PlayRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal play record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func encodeRound(r *round.Round) ([]byte, error) {
	blob, err := json.Marshal(storedRound{
		GameID:       r.GameID,
		State:        json.RawMessage(r.State),
		StateVersion: r.StateVersion,
		CreatedAt:    r.CreatedAt.UnixMilli(),
		UpdatedAt:    r.UpdatedAt.UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal round: %w", err)
	}
	return blob, nil
}

func decodeRound(blob []byte) (*round.Round, error) {
	var sr storedRound
	if err := json.Unmarshal(blob, &sr); err != nil {
		return nil, fmt.Errorf("unmarshal round: %w", err)
	}
	return &round.Round{
		GameID:       sr.GameID,
		State:        []byte(sr.State),
		StateVersion: sr.StateVersion,
		CreatedAt:    time.UnixMilli(sr.CreatedAt).UTC(),
		UpdatedAt:    time.UnixMilli(sr.UpdatedAt).UTC(),
	}, nil
}
