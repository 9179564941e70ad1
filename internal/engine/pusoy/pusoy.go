// Package pusoy implements the Pusoy Dos rules engine behind the move
// submission path. Games are loaded from opaque JSON snapshots and every
// accepted play produces a fresh snapshot; a loaded game is never mutated.
package pusoy

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"github.com/pusoydos/pusoy-backend/internal/domain/card"
	"github.com/pusoydos/pusoy-backend/internal/ports"
)

// Rule errors returned by Apply. These are gameplay rejections, distinct from
// decode errors and storage errors.
var (
	ErrNotInGame    = errors.New("user is not seated in this game")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrGameFinished = errors.New("game is finished")
	ErrCardNotHeld  = errors.New("card is not in your hand")
	ErrInvalidCombo = errors.New("cards do not form a playable combination")
	ErrTooWeak      = errors.New("combination does not beat the last play")
	ErrMustPlay     = errors.New("cannot pass when leading a trick")
)

// ErrBadState means a stored snapshot could not be reconstructed into a game.
var ErrBadState = errors.New("corrupt game state")

const (
	phasePlaying = "playing"
	phaseEnded   = "ended"
)

type playerState struct {
	ID       uint64      `json:"id"`
	Hand     []card.Card `json:"hand"`
	Passed   bool        `json:"passed"`
	Finished bool        `json:"finished"`
}

// state is the serialized snapshot. Turn and LastPlayIdx are seat indexes.
type state struct {
	Players     []playerState `json:"players"`
	Turn        int           `json:"turn"`
	LastPlay    []card.Card   `json:"last_play,omitempty"`
	LastPlayIdx int           `json:"last_play_idx"`
	Phase       string        `json:"phase"`
	FinishOrder []uint64      `json:"finish_order,omitempty"`
}

// Engine implements ports.GameEngine.
type Engine struct{}

func New() Engine { return Engine{} }

// Load reconstructs a game from a stored snapshot. Any failure here is a
// data-integrity problem, not user error: snapshots are only ever written by
// this package.
func (Engine) Load(raw []byte) (ports.Game, error) {
	var st state
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadState, err)
	}
	if len(st.Players) < 2 {
		return nil, fmt.Errorf("%w: %d players", ErrBadState, len(st.Players))
	}
	if st.Turn < 0 || st.Turn >= len(st.Players) {
		return nil, fmt.Errorf("%w: turn %d out of range", ErrBadState, st.Turn)
	}
	if st.Phase != phasePlaying && st.Phase != phaseEnded {
		return nil, fmt.Errorf("%w: phase %q", ErrBadState, st.Phase)
	}
	return &game{st: st}, nil
}

// NewDeal shuffles a full deck with rng, deals 13 cards to each of 2-4
// players, and returns the opening snapshot. The holder of the lowest dealt
// card leads.
func NewDeal(playerIDs []uint64, rng *rand.Rand) ([]byte, error) {
	if len(playerIDs) < 2 || len(playerIDs) > 4 {
		return nil, fmt.Errorf("pusoy: need 2-4 players, got %d", len(playerIDs))
	}

	deck := newDeck()
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	st := state{Players: make([]playerState, len(playerIDs)), Phase: phasePlaying}
	for i, id := range playerIDs {
		st.Players[i] = playerState{
			ID:   id,
			Hand: append([]card.Card(nil), deck[i*13:(i+1)*13]...),
		}
	}

	// Lowest dealt card decides the opening seat.
	st.Turn = openingSeat(st.Players)
	st.LastPlayIdx = st.Turn

	return json.Marshal(st)
}

// Seat pairs a user with an explicit hand for NewFixedDeal.
type Seat struct {
	UserID uint64
	Hand   []card.Card
}

// NewFixedDeal builds an opening snapshot from explicit hands, for lobbies
// that deal externally and for fixtures. The holder of the lowest card leads,
// same as NewDeal.
func NewFixedDeal(seats []Seat) ([]byte, error) {
	if len(seats) < 2 || len(seats) > 4 {
		return nil, fmt.Errorf("pusoy: need 2-4 players, got %d", len(seats))
	}
	st := state{Players: make([]playerState, len(seats)), Phase: phasePlaying}
	for i, seat := range seats {
		if len(seat.Hand) == 0 {
			return nil, fmt.Errorf("pusoy: seat %d has no cards", i)
		}
		st.Players[i] = playerState{
			ID:   seat.UserID,
			Hand: append([]card.Card(nil), seat.Hand...),
		}
	}
	st.Turn = openingSeat(st.Players)
	st.LastPlayIdx = st.Turn
	return json.Marshal(st)
}

func openingSeat(players []playerState) int {
	seat, best := 0, -1
	for i, p := range players {
		for _, c := range p.Hand {
			if best == -1 || order(c) < best {
				best = order(c)
				seat = i
			}
		}
	}
	return seat
}

func newDeck() []card.Card {
	deck := make([]card.Card, 0, 52)
	for _, s := range []card.Suit{card.Clubs, card.Hearts, card.Diamonds, card.Spades} {
		for r := card.Two; r <= card.Ace; r++ {
			deck = append(deck, card.Card{Rank: r, Suit: s})
		}
	}
	return deck
}

type game struct {
	st state
}

func (g *game) NextPlayer() (uint64, error) {
	if g.st.Phase != phasePlaying {
		return 0, ErrGameFinished
	}
	return g.st.Players[g.st.Turn].ID, nil
}

func (g *game) Player(userID uint64) (ports.PlayerView, error) {
	for _, p := range g.st.Players {
		if p.ID == userID {
			return ports.PlayerView{
				UserID:    p.ID,
				CardsLeft: len(p.Hand),
				Passed:    p.Passed,
				Finished:  p.Finished,
			}, nil
		}
	}
	return ports.PlayerView{}, ErrNotInGame
}

// Apply validates the hand against the current trick and returns the snapshot
// after the play. Hands are treated as unordered sets; submission order never
// changes the meaning of a play.
func (g *game) Apply(userID uint64, hand []card.Card) ([]byte, error) {
	if g.st.Phase != phasePlaying {
		return nil, ErrGameFinished
	}

	seat := -1
	for i, p := range g.st.Players {
		if p.ID == userID {
			seat = i
			break
		}
	}
	if seat == -1 {
		return nil, ErrNotInGame
	}
	if seat != g.st.Turn {
		return nil, ErrNotYourTurn
	}

	st := g.st.clone()

	if len(hand) == 0 {
		if len(st.LastPlay) == 0 {
			return nil, ErrMustPlay
		}
		st.Players[seat].Passed = true
		st.advance()
		return json.Marshal(st)
	}

	remaining, ok := remove(st.Players[seat].Hand, hand)
	if !ok {
		return nil, ErrCardNotHeld
	}

	played, ok := classify(hand)
	if !ok {
		return nil, ErrInvalidCombo
	}
	if len(st.LastPlay) > 0 {
		last, _ := classify(st.LastPlay)
		if !beats(played, last) {
			return nil, ErrTooWeak
		}
	}

	st.Players[seat].Hand = remaining
	st.LastPlay = append([]card.Card(nil), hand...)
	st.LastPlayIdx = seat

	if len(remaining) == 0 {
		st.Players[seat].Finished = true
		st.FinishOrder = append(st.FinishOrder, userID)
	}
	if st.activePlayers() <= 1 {
		st.Phase = phaseEnded
	} else {
		st.advance()
	}

	return json.Marshal(st)
}

func (s state) clone() state {
	out := s
	out.Players = make([]playerState, len(s.Players))
	for i, p := range s.Players {
		out.Players[i] = p
		out.Players[i].Hand = append([]card.Card(nil), p.Hand...)
	}
	out.LastPlay = append([]card.Card(nil), s.LastPlay...)
	out.FinishOrder = append([]uint64(nil), s.FinishOrder...)
	return out
}

func (s *state) activePlayers() int {
	n := 0
	for _, p := range s.Players {
		if !p.Finished {
			n++
		}
	}
	return n
}

// advance moves the turn to the next eligible seat. When play comes back
// around to the seat that made the last play, the trick is over: the board
// clears, pass flags reset, and that seat (or the next active one, if it has
// gone out) leads again.
func (s *state) advance() {
	n := len(s.Players)
	for i := 1; i <= n; i++ {
		c := (s.Turn + i) % n
		p := s.Players[c]
		if p.Finished || p.Passed {
			continue
		}
		if c == s.LastPlayIdx {
			s.newTrick(c)
			return
		}
		s.Turn = c
		return
	}
	s.newTrick(s.LastPlayIdx)
}

func (s *state) newTrick(leader int) {
	s.LastPlay = nil
	for i := range s.Players {
		s.Players[i].Passed = false
	}
	n := len(s.Players)
	for i := 0; i < n; i++ {
		c := (leader + i) % n
		if !s.Players[c].Finished {
			s.Turn = c
			return
		}
	}
}

// remove takes the played cards out of hand, duplicates respected. Reports
// false if any played card is not held.
func remove(hand, played []card.Card) ([]card.Card, bool) {
	out := append([]card.Card(nil), hand...)
	for _, pc := range played {
		found := false
		for i := range out {
			if out[i] == pc {
				out = append(out[:i], out[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return out, true
}
