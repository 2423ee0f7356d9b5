package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotlite/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the name of the HTTP-only cookie carrying the signed session record.
const SessionCookie = "session"

// DefaultSessionDays is the signed session's validity window in days.
const DefaultSessionDays = 7

// SessionPayload is the session record carried in the signed cookie.
type SessionPayload struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type sessionClaims struct {
	UserID       string `json:"userId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session records and owns the cookie's lifecycle.
//
// CreateSession, UpdateSession, and DeleteSession are the only legal mutators
// of the session cookie.
type Codec struct {
	secret   []byte
	validity time.Duration
	secure   bool
	logger   *log.Logger

	// now is overridable in tests.
	now func() time.Time
}

// NewCodec creates a session codec with the given signing secret.
//
// validDays defaults to [DefaultSessionDays]; secure controls the cookie's
// Secure attribute and should be true behind HTTPS.
func NewCodec(secret string, validDays int, secure bool, logger *log.Logger) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: session secret is required", shared.ErrInvalidConfig)
	}
	if validDays <= 0 {
		validDays = DefaultSessionDays
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Codec{
		secret:   []byte(secret),
		validity: time.Duration(validDays) * 24 * time.Hour,
		secure:   secure,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Encode signs the payload into a compact token. The token's expiry is the
// payload's ExpiresAt, or now plus the validity window when unset.
func (c *Codec) Encode(p SessionPayload) (string, error) {
	now := c.now()
	expiresAt := p.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(c.validity)
	}

	claims := sessionClaims{
		UserID:       p.UserID,
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}

	return signed, nil
}

// Decode verifies a token's signature and expiry and returns its payload.
//
// Any malformed, unsigned, expired, or empty input yields nil rather than an
// error; an empty cookie is the steady state for signed-out visitors and is
// never logged, while a non-empty invalid one is.
func (c *Codec) Decode(raw string) *SessionPayload {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(), jwt.WithTimeFunc(c.now))

	if err != nil || !parsed.Valid {
		if !errors.Is(err, jwt.ErrTokenMalformed) {
			c.logger.Warn("failed to verify session", "error", err)
		}
		return nil
	}

	return &SessionPayload{
		UserID:       claims.UserID,
		AccessToken:  claims.AccessToken,
		RefreshToken: claims.RefreshToken,
		ExpiresAt:    claims.ExpiresAt.Time,
	}
}

// ReadSession decodes the session cookie on an incoming request.
// Returns nil when the cookie is absent or invalid.
func (c *Codec) ReadSession(r *http.Request) *SessionPayload {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	return c.Decode(cookie.Value)
}

// CreateSession mints a new session record for the user and sets the cookie.
func (c *Codec) CreateSession(w http.ResponseWriter, userID string, ts TokenSet) error {
	expiresAt := c.now().Add(c.validity)

	signed, err := c.Encode(SessionPayload{
		UserID:       userID,
		AccessToken:  ts.AccessToken,
		RefreshToken: ts.RefreshToken,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return err
	}

	http.SetCookie(w, c.cookie(signed, expiresAt))
	return nil
}

// UpdateSession replaces the access token (and optionally the refresh token)
// in the current session, re-signs it, and resets its expiry.
func (c *Codec) UpdateSession(w http.ResponseWriter, r *http.Request, accessToken, refreshToken string) error {
	payload := c.ReadSession(r)
	if payload == nil {
		return shared.ErrNotAuthenticated
	}

	if refreshToken == "" {
		refreshToken = payload.RefreshToken
	}

	expiresAt := c.now().Add(c.validity)
	signed, err := c.Encode(SessionPayload{
		UserID:       payload.UserID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return err
	}

	http.SetCookie(w, c.cookie(signed, expiresAt))
	return nil
}

// DeleteSession removes the session cookie.
func (c *Codec) DeleteSession(w http.ResponseWriter) {
	cookie := c.cookie("", time.Time{})
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}

func (c *Codec) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
