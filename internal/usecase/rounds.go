package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/pusoydos/pusoy-backend/internal/domain/round"
	"github.com/pusoydos/pusoy-backend/internal/ports"
)

// DealFunc produces the opening snapshot for a set of players. Wired to the
// engine's dealer in main; kept as a func so round creation stays decoupled
// from any one rule set.
type DealFunc func(playerIDs []uint64) ([]byte, error)

// RoundLister backs the games-list page. Finished rounds stay listed; the
// page can tell them apart from the play history.
type RoundLister struct {
	store ports.RoundStore
}

func NewRoundLister(store ports.RoundStore) *RoundLister {
	return &RoundLister{store: store}
}

func (l *RoundLister) List(ctx context.Context) ([]*round.Round, error) {
	return l.store.List(ctx)
}

// RoundGetter backs the play page: one round plus its play history.
type RoundGetter struct {
	store ports.RoundStore
}

func NewRoundGetter(store ports.RoundStore) *RoundGetter {
	return &RoundGetter{store: store}
}

func (g *RoundGetter) Get(ctx context.Context, gameID uint64) (*round.Round, []round.PlayRecord, error) {
	r, err := g.store.GetByID(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	hist, err := g.store.History(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	return r, hist, nil
}

// RoundCreator deals and stores a new round.
type RoundCreator struct {
	store ports.RoundStore
	deal  DealFunc
	log   *slog.Logger
}

func NewRoundCreator(store ports.RoundStore, deal DealFunc, log *slog.Logger) *RoundCreator {
	return &RoundCreator{store: store, deal: deal, log: log}
}

func (c *RoundCreator) Create(ctx context.Context, gameID uint64, playerIDs []uint64) (*round.Round, error) {
	state, err := c.deal(playerIDs)
	if err != nil {
		return nil, err
	}
	r := round.New(gameID, state, time.Now().UTC())
	if err := c.store.Insert(ctx, r); err != nil {
		return nil, err
	}
	c.log.Info("round created", "game_id", gameID, "players", len(playerIDs))
	return r, nil
}
