package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotlite/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// defaultScopes covers every view the client renders.
var defaultScopes = []string{
	"playlist-read-private",
	"playlist-read-collaborative",
	"user-follow-read",
	"user-library-read",
	"user-read-currently-playing",
	"user-read-email",
	"user-read-private",
	"user-read-recently-played",
	"user-top-read",
}

// Exchanger performs the two token-endpoint grants: trading an authorization
// code (plus PKCE verifier) for a token pair, and trading a refresh token for
// a new access token.
//
// It is the only component that talks to the remote token endpoint. The two
// grants are issued as explicit form POSTs rather than through
// [oauth2.Config.Exchange] so the remote's error code and description survive
// into [shared.ErrUpstreamAuth] and so refresh failure can be non-exceptional.
type Exchanger struct {
	config *oauth2.Config
	client *http.Client
	logger *log.Logger
}

// NewExchanger creates an Exchanger from the Spotify credentials config.
func NewExchanger(cfg shared.SpotifyConfig, client *http.Client, logger *log.Logger) (*Exchanger, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: spotify client_id is not configured", shared.ErrMissingCredentials)
	}
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = "http://127.0.0.1:8080/callback"
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}

	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Exchanger{
		config: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		},
		client: client,
		logger: logger,
	}, nil
}

// AuthURL builds the authorization redirect for the given state and S256 challenge.
func (e *Exchanger) AuthURL(state, challenge string) string {
	return e.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("code_challenge", challenge),
	)
}

// RedirectURI returns the configured OAuth redirect URI.
func (e *Exchanger) RedirectURI() string {
	return e.config.RedirectURL
}

// Exchange trades an authorization code and its PKCE verifier for a token pair.
//
// Both inputs are required. A remote rejection surfaces as
// [shared.ErrUpstreamAuth] carrying the remote's error code and description;
// it is never retried.
func (e *Exchanger) Exchange(ctx context.Context, code, verifier string) (*TokenSet, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code is required", shared.ErrInvalidRequest)
	}
	if verifier == "" {
		return nil, fmt.Errorf("%w: code verifier is required", shared.ErrInvalidRequest)
	}

	form := url.Values{
		"client_id":     {e.config.ClientID},
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {e.config.RedirectURL},
		"code_verifier": {verifier},
	}

	resp, err := e.postForm(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		remote := decodeRemoteError(resp)
		e.logger.Error("token exchange failed", "status", resp.StatusCode, "error", remote.Code, "description", remote.Description)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Remote: remote}
	}

	var tokens TokenSet
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("%w: failed to decode token response: %v", shared.ErrAPIRequest, err)
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access_token", shared.ErrUpstreamAuth)
	}

	return &tokens, nil
}

// Refresh trades a refresh token for a new access token.
//
// Returns nil on any failure rather than an error: callers distinguish "could
// not refresh, the session is over" from transient errors by the nil result,
// and escalate to session teardown. The old refresh token is reused when the
// remote does not rotate it.
func (e *Exchanger) Refresh(ctx context.Context, refreshToken string) *TokenSet {
	if refreshToken == "" {
		return nil
	}

	form := url.Values{
		"client_id":     {e.config.ClientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	resp, err := e.postForm(ctx, form)
	if err != nil {
		e.logger.Warn("token refresh request failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		remote := decodeRemoteError(resp)
		e.logger.Warn("token refresh rejected", "status", resp.StatusCode, "error", remote.Code, "description", remote.Description)
		return nil
	}

	var tokens TokenSet
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		e.logger.Warn("failed to decode refresh response", "error", err)
		return nil
	}
	if tokens.AccessToken == "" {
		e.logger.Warn("refresh response missing access_token")
		return nil
	}

	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	if tokens.ExpiresIn == 0 {
		tokens.ExpiresIn = 3600
	}

	return &tokens
}

func (e *Exchanger) postForm(ctx context.Context, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return e.client.Do(req)
}

// UpstreamError is a token-endpoint rejection, carrying the remote's error
// code and description. Matches [shared.ErrUpstreamAuth] under [errors.Is].
type UpstreamError struct {
	StatusCode int
	Remote     RemoteError
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%v: %s", shared.ErrUpstreamAuth, e.Remote)
}

func (e *UpstreamError) Unwrap() error { return shared.ErrUpstreamAuth }

// RemoteError is the token endpoint's error body.
type RemoteError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (r RemoteError) String() string {
	if r.Description != "" {
		return fmt.Sprintf("%s (%s)", r.Description, r.Code)
	}
	if r.Code != "" {
		return r.Code
	}
	return "unknown error"
}

func decodeRemoteError(resp *http.Response) RemoteError {
	var remote RemoteError
	// Body may not be JSON; the zero value reads as "unknown error".
	_ = json.NewDecoder(resp.Body).Decode(&remote)
	return remote
}
