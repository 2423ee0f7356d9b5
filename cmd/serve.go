package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/desertthunder/spotlite/internal/auth"
	"github.com/desertthunder/spotlite/internal/repositories"
	"github.com/desertthunder/spotlite/internal/shared"
	"github.com/desertthunder/spotlite/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the local web application.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.config

	host := config.Server.Host
	if flagHost := cmd.String("host"); flagHost != "" {
		host = flagHost
	}
	port := config.Server.Port
	if flagPort := cmd.Int("port"); flagPort != 0 {
		port = int(flagPort)
	}

	secret := config.Session.Secret
	if secret == "" {
		generated, err := auth.GenerateVerifier(0)
		if err != nil {
			return fmt.Errorf("failed to generate session secret: %w", err)
		}
		secret = generated
		r.logger.Warn("session.secret not set, using an ephemeral secret; sessions will not survive restarts")
	}

	codec, err := auth.NewCodec(secret, config.Session.ValidDays, config.Session.SecureOnly, r.logger)
	if err != nil {
		return fmt.Errorf("failed to create session codec: %w", err)
	}

	if r.exchanger == nil {
		r.logger.Warn("Spotify client_id not configured; login will be unavailable", "config", r.configPath)
	}

	var cache *repositories.TrackCacheAdapter
	if _, err := os.Stat(config.Database.Path); err == nil {
		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		cache = repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db))
	} else {
		r.logger.Info("database not found, serving without the local track cache", "path", config.Database.Path)
	}

	app, err := web.NewApp(web.AppOpts{
		Codec:     codec,
		Exchanger: r.exchanger,
		Logger:    r.logger,
		Cache:     cache,
		Secure:    config.Session.SecureOnly,
	})
	if err != nil {
		return fmt.Errorf("failed to create web app: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	r.logger.Info("starting web app", "addr", addr)
	r.writePlain("→ spotlite listening at http://%s\n", addr)

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
