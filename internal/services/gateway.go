package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotlite/internal/auth"
	"github.com/desertthunder/spotlite/internal/shared"
	"golang.org/x/time/rate"
)

// Response is a raw API response read fully into memory.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Refresher trades a refresh token for a new token set, returning nil when the
// refresh definitively failed. Implemented by [auth.Exchanger].
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) *auth.TokenSet
}

// Callbacks notify the owner of the token store about credential transitions.
//
// Whoever owns the store supplies these; the gateway never reaches into
// session or cookie state itself.
type Callbacks struct {
	OnTokenRefreshed func(ts auth.TokenSet) // fired after a successful mid-request refresh
	OnSessionExpired func()                 // fired when refresh is impossible or rejected
}

// Gateway performs authenticated requests against the Spotify Web API.
//
// Every request carries the store's current access token as a bearer
// credential. A 401 triggers at most one refresh-and-retry cycle per logical
// request; a second 401 is returned as-is. Concurrent requests observing 401s
// may each refresh independently; the redundant grants are tolerated rather
// than coalesced behind a single flight.
type Gateway struct {
	store     auth.TokenStore
	refresher Refresher
	client    *http.Client
	limiter   *rate.Limiter
	callbacks Callbacks
	logger    *log.Logger
}

// GatewayOpts configures a Gateway.
type GatewayOpts struct {
	Store     auth.TokenStore
	Refresher Refresher
	Client    *http.Client
	Limiter   *rate.Limiter
	Callbacks Callbacks
	Logger    *log.Logger
}

// NewGateway creates a Gateway. Store and Refresher are required; the client
// defaults to [http.DefaultClient] and the limiter to 10 req/s with a burst
// of 5, comfortably under Spotify's rolling quota.
func NewGateway(opts GatewayOpts) *Gateway {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Limit(10), 5)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Gateway{
		store:     opts.Store,
		refresher: opts.Refresher,
		client:    opts.Client,
		limiter:   opts.Limiter,
		callbacks: opts.Callbacks,
		logger:    opts.Logger,
	}
}

// Get performs an authenticated GET against the given URL.
func (g *Gateway) Get(ctx context.Context, url string) (*Response, error) {
	return g.do(ctx, url, false)
}

func (g *Gateway) do(ctx context.Context, url string, isRetry bool) (*Response, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	access := g.store.Access()
	if access == "" {
		return nil, shared.ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+access)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !isRetry {
		if g.refreshTokens(ctx) {
			return g.do(ctx, url, true)
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

// refreshTokens attempts the refresh grant once. On success the store and the
// owner are updated and true is returned; on definitive failure the store is
// cleared, the owner is told the session expired, and false is returned so the
// caller propagates the original 401.
func (g *Gateway) refreshTokens(ctx context.Context) bool {
	refreshToken := g.store.Refresh()
	if refreshToken == "" {
		g.logger.Info("no refresh token held, signing out")
		g.expire()
		return false
	}

	tokens := g.refresher.Refresh(ctx, refreshToken)
	if tokens == nil {
		g.logger.Info("token refresh failed, signing out")
		g.expire()
		return false
	}

	g.store.Set(*tokens)
	if g.callbacks.OnTokenRefreshed != nil {
		g.callbacks.OnTokenRefreshed(*tokens)
	}

	g.logger.Debug("access token refreshed")
	return true
}

func (g *Gateway) expire() {
	g.store.Clear()
	if g.callbacks.OnSessionExpired != nil {
		g.callbacks.OnSessionExpired()
	}
}
