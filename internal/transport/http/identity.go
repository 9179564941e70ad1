package http

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// ErrNoSession means the request carries no usable authenticated session.
// It is an expected outcome, handled with a redirect to the home page.
var ErrNoSession = errors.New("no authenticated session")

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "session"

// Identity resolves the authenticated user for a request. The narrow
// interface keeps the handlers independent of how sessions are issued.
type Identity interface {
	UserID(c echo.Context) (uint64, error)
}

// Sessions both resolves and issues sessions. The login handler needs the
// issuing half; everything else sees only Identity.
type Sessions interface {
	Identity
	MintSession(userID uint64, ttl time.Duration) (string, error)
}

// JWTIdentity reads an HS256-signed session cookie whose subject claim is the
// user id.
type JWTIdentity struct {
	secret []byte
}

func NewJWTIdentity(secret string) *JWTIdentity {
	return &JWTIdentity{secret: []byte(secret)}
}

func (j *JWTIdentity) UserID(c echo.Context) (uint64, error) {
	ck, err := c.Cookie(SessionCookie)
	if err != nil || ck.Value == "" {
		return 0, ErrNoSession
	}

	tok, err := jwt.Parse(ck.Value, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil || !tok.Valid {
		return 0, ErrNoSession
	}

	sub, err := tok.Claims.GetSubject()
	if err != nil {
		return 0, ErrNoSession
	}
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, ErrNoSession
	}
	return userID, nil
}

// MintSession issues a signed session token for userID, valid for ttl.
// Backs the login endpoint; tests use it to forge sessions too.
func (j *JWTIdentity) MintSession(userID uint64, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}
