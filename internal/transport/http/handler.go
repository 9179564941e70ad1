package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pusoydos/pusoy-backend/internal/domain/card"
	"github.com/pusoydos/pusoy-backend/internal/domain/round"
	"github.com/pusoydos/pusoy-backend/internal/ports"
	"github.com/pusoydos/pusoy-backend/internal/usecase"
)

// roundJSON is the wire representation of a round summary. The snapshot
// itself stays server-side: it contains every player's hand.
type roundJSON struct {
	GameID       uint64    `json:"game_id"`
	StateVersion int       `json:"state_version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// playJSON is one history entry; cards use the "<Suit> <Rank>" wire form.
type playJSON struct {
	ID        string    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Cards     []string  `json:"cards"`
	Pass      bool      `json:"pass"`
	CreatedAt time.Time `json:"created_at"`
}

func toRoundJSON(r *round.Round) roundJSON {
	return roundJSON{
		GameID:       r.GameID,
		StateVersion: r.StateVersion,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toPlayJSON(recs []round.PlayRecord) []playJSON {
	out := make([]playJSON, len(recs))
	for i, rec := range recs {
		cards := make([]string, len(rec.Cards))
		for j, c := range rec.Cards {
			cards[j] = c.String()
		}
		out[i] = playJSON{
			ID:        rec.ID.String(),
			UserID:    rec.UserID,
			Cards:     cards,
			Pass:      rec.Pass,
			CreatedAt: rec.CreatedAt,
		}
	}
	return out
}

// sessionTTL bounds how long an issued session cookie stays valid.
const sessionTTL = 7 * 24 * time.Hour

// Handlers holds all usecase dependencies.
type Handlers struct {
	submitter *usecase.MoveSubmitter
	lister    *usecase.RoundLister
	getter    *usecase.RoundGetter
	creator   *usecase.RoundCreator
	identity  Sessions
	policy    Policy
	log       *slog.Logger
}

func NewHandlers(
	submitter *usecase.MoveSubmitter,
	lister *usecase.RoundLister,
	getter *usecase.RoundGetter,
	creator *usecase.RoundCreator,
	identity Sessions,
	policy Policy,
	log *slog.Logger,
) *Handlers {
	return &Handlers{
		submitter: submitter,
		lister:    lister,
		getter:    getter,
		creator:   creator,
		identity:  identity,
		policy:    policy,
		log:       log,
	}
}

// handleLogin issues the session cookie. There is no password store; players
// pick an id and get a signed cookie for it, lobby style.
func (h *Handlers) handleLogin(c echo.Context) error {
	var body struct {
		UserID uint64 `json:"user_id"`
	}
	if err := c.Bind(&body); err != nil || body.UserID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id required"})
	}

	tok, err := h.identity.MintSession(body.UserID, sessionTTL)
	if err != nil {
		h.log.Error("session mint failed", "user_id", body.UserID, "error", err)
		return internalErr(c)
	}
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(sessionTTL),
	})
	return c.JSON(http.StatusOK, map[string]uint64{"user_id": body.UserID})
}

func (h *Handlers) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) handleHome(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"games": h.policy.GamesList(),
	})
}

func (h *Handlers) handleListRounds(c echo.Context) error {
	rounds, err := h.lister.List(c.Request().Context())
	if err != nil {
		return internalErr(c)
	}
	out := make([]roundJSON, len(rounds))
	for i, r := range rounds {
		out[i] = toRoundJSON(r)
	}
	return c.JSON(http.StatusOK, map[string]any{"rounds": out})
}

func (h *Handlers) handleGetRound(c echo.Context) error {
	gameID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, h.policy.Home())
	}

	r, hist, err := h.getter.Get(c.Request().Context(), gameID)
	if errors.Is(err, ports.ErrNotFound) {
		return c.Redirect(http.StatusSeeOther, h.policy.GamesList())
	}
	if err != nil {
		return internalErr(c)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"round": toRoundJSON(r),
		"plays": toPlayJSON(hist),
	})
}

// handleSubmitMove is the move submission path. Card identity arrives in the
// form field names, one field per selected card; an empty form is a pass.
// Every outcome resolves to a redirect per the response policy.
func (h *Handlers) handleSubmitMove(c echo.Context) error {
	userID, err := h.identity.UserID(c)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, h.policy.Home())
	}

	gameID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, h.policy.Home())
	}

	// Body fields only. The play page address may carry a reason query
	// parameter from an earlier rejection, and query keys are not cards.
	req := c.Request()
	if err := req.ParseForm(); err != nil {
		return c.Redirect(http.StatusSeeOther, h.policy.Resolve(gameID, card.ErrMalformedToken))
	}
	hand, err := card.ParseHand(req.PostForm)
	if err != nil {
		h.log.Info("hand decode rejected", "game_id", gameID, "user_id", userID, "error", err)
		return c.Redirect(http.StatusSeeOther, h.policy.Resolve(gameID, err))
	}

	if _, err := h.submitter.Submit(c.Request().Context(), userID, gameID, hand); err != nil {
		return c.Redirect(http.StatusSeeOther, h.policy.Resolve(gameID, err))
	}
	return c.Redirect(http.StatusSeeOther, h.policy.Play(gameID))
}

// handleCreateRound deals a fresh round. JSON in, JSON out; this is an
// operator/lobby surface, not part of the redirect flow.
func (h *Handlers) handleCreateRound(c echo.Context) error {
	if _, err := h.identity.UserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	}

	var body struct {
		GameID  uint64   `json:"game_id"`
		Players []uint64 `json:"players"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}

	r, err := h.creator.Create(c.Request().Context(), body.GameID, body.Players)
	if errors.Is(err, ports.ErrAlreadyExists) {
		return c.JSON(http.StatusConflict, map[string]string{"error": "game already exists"})
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, toRoundJSON(r))
}

func internalErr(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
