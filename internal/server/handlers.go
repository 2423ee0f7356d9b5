package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotlite/internal/auth"
	"github.com/desertthunder/spotlite/internal/services"
	"github.com/desertthunder/spotlite/internal/shared"
)

// verifierCookie holds the PKCE code verifier across the redirect round-trip
// to the authorization server. It lives only for the login attempt.
const verifierCookie = "pkce_verifier"

// stateCookie holds the CSRF state for the same round-trip.
const stateCookie = "oauth_state"

// loginAttemptTTL bounds how long a started login attempt stays redeemable.
const loginAttemptTTL = 10 * time.Minute

// fallbackUserID is recorded when the profile fetch after an exchange fails;
// the session is still valid, the display name is just unknown.
const fallbackUserID = "spotify_user"

// ErrorRenderer renders a login-flow error page. The default writes plain text.
type ErrorRenderer func(w http.ResponseWriter, status int, message string)

// AuthHandler serves the authentication surface: the browser PKCE flow
// (/login/start, /callback) and the JSON endpoints (/api/token, /api/logout).
type AuthHandler struct {
	exchanger   *auth.Exchanger
	codec       *auth.Codec
	logger      *log.Logger
	apiBaseURL  string
	renderError ErrorRenderer
	secure      bool
}

var _ Handler = (*AuthHandler)(nil)

// AuthHandlerOpts configures an AuthHandler.
type AuthHandlerOpts struct {
	Exchanger   *auth.Exchanger
	Codec       *auth.Codec
	Logger      *log.Logger
	APIBaseURL  string // resource API base, overridable in tests
	RenderError ErrorRenderer
	Secure      bool // sets the Secure attribute on flow cookies
}

// NewAuthHandler creates the authentication handler. Exchanger may be nil when
// credentials are not configured; affected endpoints then answer 500.
func NewAuthHandler(opts AuthHandlerOpts) *AuthHandler {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.RenderError == nil {
		opts.RenderError = func(w http.ResponseWriter, status int, message string) {
			http.Error(w, message, status)
		}
	}

	return &AuthHandler{
		exchanger:   opts.Exchanger,
		codec:       opts.Codec,
		logger:      opts.Logger,
		apiBaseURL:  opts.APIBaseURL,
		renderError: opts.RenderError,
		secure:      opts.Secure,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{"/login/start", "/callback", "/api/token", "/api/logout"}
}

// ServeHTTP dispatches to the route-specific handlers.
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login/start":
		h.loginStart(w, r)
	case "/callback":
		h.callback(w, r)
	case "/api/token":
		h.token(w, r)
	case "/api/logout":
		h.logout(w, r)
	default:
		http.NotFound(w, r)
	}
}

// loginStart begins a PKCE login attempt: it mints the verifier/challenge
// pair, parks the verifier and CSRF state in short-lived cookies, and sends
// the browser to the authorization server.
func (h *AuthHandler) loginStart(w http.ResponseWriter, r *http.Request) {
	if h.exchanger == nil {
		h.renderError(w, http.StatusInternalServerError, "Spotify client ID not configured")
		return
	}

	verifier, err := auth.GenerateVerifier(auth.VerifierLength)
	if err != nil {
		// No weak fallback: without secure randomness the flow must not start.
		h.logger.Error("failed to generate PKCE verifier", "error", err)
		h.renderError(w, http.StatusInternalServerError, "Unable to start login")
		return
	}

	state := shared.GenerateID()
	expires := time.Now().Add(loginAttemptTTL)
	http.SetCookie(w, h.flowCookie(verifierCookie, verifier, expires))
	http.SetCookie(w, h.flowCookie(stateCookie, state, expires))

	http.Redirect(w, r, h.exchanger.AuthURL(state, auth.DeriveChallenge(verifier)), http.StatusTemporaryRedirect)
}

// callback completes the browser flow: it validates state, redeems the code
// with the parked verifier, mints the session, and lands on the home page.
// The verifier cookie is cleared before the exchange, so a re-entrant
// callback for the same code cannot run a second exchange.
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		h.logger.Warn("authorization denied", "error", errParam)
		h.renderError(w, http.StatusBadRequest, "Authorization failed: "+errParam)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.renderError(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	stateC, err := r.Cookie(stateCookie)
	if err != nil || stateC.Value == "" || stateC.Value != query.Get("state") {
		h.renderError(w, http.StatusBadRequest, "Invalid state parameter")
		return
	}

	verifierC, err := r.Cookie(verifierCookie)
	if err != nil || verifierC.Value == "" {
		h.renderError(w, http.StatusBadRequest, "Login attempt expired, please try again")
		return
	}
	verifier := verifierC.Value
	h.clearFlowCookies(w)

	if h.exchanger == nil {
		h.renderError(w, http.StatusInternalServerError, "Spotify client ID not configured")
		return
	}

	tokens, err := h.exchanger.Exchange(r.Context(), code, verifier)
	if err != nil {
		h.logger.Error("code exchange failed", "error", err)
		h.renderError(w, http.StatusBadRequest, "Failed to exchange authorization code for tokens")
		return
	}

	userID := h.fetchUserID(r, *tokens)
	if err := h.codec.CreateSession(w, userID, *tokens); err != nil {
		h.logger.Error("failed to create session", "error", err)
		h.renderError(w, http.StatusInternalServerError, "Unable to create session")
		return
	}

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// token is the JSON exchange endpoint for non-browser clients: POST
// {code, codeVerifier} in, token triple out, session cookie set on success.
func (h *AuthHandler) token(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	var body struct {
		Code         string `json:"code"`
		CodeVerifier string `json:"codeVerifier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	if body.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Authorization code is required"})
		return
	}
	if body.CodeVerifier == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Code verifier is required"})
		return
	}
	if h.exchanger == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Spotify client ID not configured"})
		return
	}

	tokens, err := h.exchanger.Exchange(r.Context(), body.Code, body.CodeVerifier)
	if err != nil {
		var upstream *auth.UpstreamError
		if errors.As(err, &upstream) {
			message := upstream.Remote.Description
			if message == "" {
				message = "Failed to exchange authorization code for tokens"
			}
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   message,
				"details": upstream.Remote.Code,
			})
			return
		}

		h.logger.Error("code exchange failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal server error"})
		return
	}

	userID := h.fetchUserID(r, *tokens)
	if err := h.codec.CreateSession(w, userID, *tokens); err != nil {
		h.logger.Error("failed to create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
	})
}

// logout deletes the session. Always succeeds from the caller's perspective.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	h.codec.DeleteSession(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// fetchUserID looks up the profile behind a fresh token set so the session
// records a real user id. Falls back to a placeholder on failure.
func (h *AuthHandler) fetchUserID(r *http.Request, tokens auth.TokenSet) string {
	store := auth.NewMemoryStore(tokens.AccessToken, tokens.RefreshToken)
	gw := services.NewGateway(services.GatewayOpts{
		Store:     store,
		Refresher: h.exchanger,
		Logger:    h.logger,
	})

	profile, err := services.NewSpotifyService(gw, h.apiBaseURL).Profile(r.Context())
	if err != nil {
		h.logger.Warn("failed to fetch profile after exchange", "error", err)
		return fallbackUserID
	}
	return profile.ID
}

func (h *AuthHandler) flowCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) clearFlowCookies(w http.ResponseWriter) {
	for _, name := range []string{verifierCookie, stateCookie} {
		cookie := h.flowCookie(name, "", time.Time{})
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
