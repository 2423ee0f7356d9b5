package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/desertthunder/spotlite/internal/auth"
	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/repositories"
	"github.com/desertthunder/spotlite/internal/server"
	"github.com/desertthunder/spotlite/internal/services"
	"github.com/desertthunder/spotlite/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin runs the PKCE authorization flow with a loopback callback server
// and stores the resulting tokens in the accounts table.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if config == nil {
		var err error
		if _, statErr := os.Stat(configPath); statErr == nil {
			config, err = shared.LoadConfig(configPath)
			if err != nil {
				r.logger.Warnf("failed to load config, using defaults %v", err)
				config = shared.DefaultConfig()
			}
		} else {
			config = shared.DefaultConfig()
		}
	}

	exchanger := r.exchanger
	if exchanger == nil {
		var err error
		exchanger, err = auth.NewExchanger(config.Credentials.Spotify, r.httpClient, r.logger)
		if err != nil {
			return fmt.Errorf("%w: Spotify client_id must be set in %s", shared.ErrMissingCredentials, configPath)
		}
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	tokens, err := r.doOAuth(ctx, config, exchanger)
	if err != nil {
		return err
	}

	profile, err := r.fetchProfile(ctx, exchanger, tokens)
	if err != nil {
		return fmt.Errorf("%w: failed to fetch profile after login: %v", shared.ErrAPIRequest, err)
	}

	accounts := repositories.NewAccountRepository(db)
	if err := saveAccount(accounts, profile, tokens); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Signed in as %s (%s)\n\n", profile.DisplayName, profile.ID)
	r.writePlain("You can now use: spotlite serve, spotlite tui, spotlite export\n")

	return nil
}

// AuthStatus prints the stored account and whether its access token is still valid.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	accounts := repositories.NewAccountRepository(db)
	acct, err := r.storedAccount(accounts)
	if err != nil {
		r.writePlain("✗ Not authenticated\n")
		r.writePlain("Run 'spotlite auth login' to authorize\n")
		return nil
	}

	r.writePlain("✓ Authenticated\n")
	r.writePlain("Account: %s", acct.UserID())
	if acct.DisplayName() != "" {
		r.writePlain(" (%s)", acct.DisplayName())
	}
	r.writePlain("\n")

	expiry := acct.TokenExpiresAt()
	switch {
	case expiry.IsZero():
		r.writePlain("Access token: expiry unknown\n")
	case expiry.Before(time.Now()):
		r.writePlain("Access token: expired %s (will refresh on next use)\n", expiry.Format(time.RFC1123))
	default:
		r.writePlain("Access token: valid until %s\n", expiry.Format(time.RFC1123))
	}

	if acct.RefreshToken() == "" {
		r.writePlain("Refresh token: none held\n")
	}

	return nil
}

// AuthLogout discards the stored token pair. The account row is kept.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	accounts := repositories.NewAccountRepository(db)
	acct, err := r.storedAccount(accounts)
	if err != nil {
		r.writePlain("✗ No stored tokens\n")
		return nil
	}

	acct.ClearTokens()
	if err := accounts.Update(acct); err != nil {
		return fmt.Errorf("failed to clear stored tokens: %w", err)
	}

	r.logger.Info("stored tokens cleared", "account", acct.UserID())
	return r.writePlain("✓ Logged out\n")
}

// doOAuth executes the PKCE authorization flow with a local HTTP server.
func (r *Runner) doOAuth(ctx context.Context, config *shared.Config, exchanger *auth.Exchanger) (*auth.TokenSet, error) {
	verifier, err := auth.GenerateVerifier(0)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	state := shared.GenerateID()

	authURL := exchanger.AuthURL(state, auth.DeriveChallenge(verifier))
	oauthHandler := server.NewOAuthHandler(exchanger, state, verifier)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		shutdownServer(httpServer)
		return nil, fmt.Errorf("authorization timed out after 2 minutes")
	case <-ctx.Done():
		shutdownServer(httpServer)
		return nil, ctx.Err()
	}

	shutdownServer(httpServer)

	if err := result.Error(); err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}

	return result.Tokens, nil
}

// fetchProfile retrieves the authenticated user's profile using the fresh token pair.
func (r *Runner) fetchProfile(ctx context.Context, exchanger *auth.Exchanger, tokens *auth.TokenSet) (*models.UserProfile, error) {
	store := auth.NewMemoryStore(tokens.AccessToken, tokens.RefreshToken)
	gw := services.NewGateway(services.GatewayOpts{
		Store:     store,
		Refresher: exchanger,
		Client:    r.httpClient,
		Logger:    r.logger,
	})
	return services.NewSpotifyService(gw, "").Profile(ctx)
}

// saveAccount upserts the account row holding the token pair.
func saveAccount(accounts *repositories.AccountRepository, profile *models.UserProfile, tokens *auth.TokenSet) error {
	if acct, err := accounts.GetByUserID(profile.ID); err == nil {
		acct.SetDisplayName(profile.DisplayName)
		acct.SetTokens(tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresAt())
		if err := accounts.Update(acct); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		return nil
	}

	acct := models.NewAccount(0, profile.ID, profile.DisplayName)
	acct.SetTokens(tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresAt())
	if err := accounts.Create(acct); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func shutdownServer(s *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Shutdown(shutdownCtx)
}
