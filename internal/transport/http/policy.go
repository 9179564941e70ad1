package http

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/pusoydos/pusoy-backend/internal/domain/card"
	"github.com/pusoydos/pusoy-backend/internal/engine/pusoy"
	"github.com/pusoydos/pusoy-backend/internal/ports"
	"github.com/pusoydos/pusoy-backend/internal/usecase"
)

// Policy maps submission outcomes to navigational targets. Every outcome
// resolves to a redirect; nothing surfaces as an error page. The base URL is
// passed in at construction, there is no process-wide hostname.
type Policy struct {
	base string
}

func NewPolicy(base string) Policy {
	return Policy{base: strings.TrimRight(base, "/")}
}

func (p Policy) Home() string {
	return p.base + "/"
}

func (p Policy) GamesList() string {
	return p.base + "/games"
}

func (p Policy) Play(gameID uint64) string {
	return fmt.Sprintf("%s/play/%d", p.base, gameID)
}

// playWithReason keeps the play page as the target but carries the rejection
// reason in the query string instead of discarding it.
func (p Policy) playWithReason(gameID uint64, reason string) string {
	return p.Play(gameID) + "?reason=" + url.QueryEscape(reason)
}

// Resolve picks the redirect target for a failed submission. A missing round
// sends the player back to the games list; every rejection returns to the
// play page with a machine-readable reason so the page can explain itself.
func (p Policy) Resolve(gameID uint64, err error) string {
	if errors.Is(err, ports.ErrNotFound) {
		return p.GamesList()
	}
	return p.playWithReason(gameID, reasonCode(err))
}

func reasonCode(err error) string {
	switch {
	case errors.Is(err, card.ErrMalformedToken):
		return "malformed_card"
	case errors.Is(err, card.ErrUnknownSuit):
		return "unknown_suit"
	case errors.Is(err, card.ErrUnknownRank):
		return "unknown_rank"
	case errors.Is(err, pusoy.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, pusoy.ErrNotInGame):
		return "not_in_game"
	case errors.Is(err, pusoy.ErrGameFinished):
		return "game_finished"
	case errors.Is(err, pusoy.ErrCardNotHeld):
		return "card_not_held"
	case errors.Is(err, pusoy.ErrInvalidCombo):
		return "invalid_combination"
	case errors.Is(err, pusoy.ErrTooWeak):
		return "too_weak"
	case errors.Is(err, pusoy.ErrMustPlay):
		return "must_play"
	case errors.Is(err, ports.ErrVersionConflict):
		// Retryable: the page should re-load the round and resubmit.
		return "conflict"
	case errors.Is(err, usecase.ErrCorruptState):
		return "internal"
	default:
		return "internal"
	}
}
