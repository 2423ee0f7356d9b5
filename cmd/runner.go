package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotlite/internal/auth"
	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/repositories"
	"github.com/desertthunder/spotlite/internal/services"
	"github.com/desertthunder/spotlite/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	exchanger  *auth.Exchanger
	spotify    services.Service
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Exchanger  *auth.Exchanger
	Spotify    services.Service
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		exchanger:  opts.Exchanger,
		spotify:    opts.Spotify,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger, used when the TUI redirects logs to a file.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, serveCommand, exportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openDatabase opens the configured SQLite database. The file must already
// exist; setup creates it and runs migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	path := r.config.Database.Path
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: database not found at %s, run 'spotlite setup' first", shared.ErrMissingConfig, path)
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
}

// storedAccount returns the first account holding tokens, or an error telling
// the user to log in.
func (r *Runner) storedAccount(accounts *repositories.AccountRepository) (*models.Account, error) {
	list, err := accounts.List(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}

	for _, acct := range list {
		if acct.AccessToken() != "" {
			return acct, nil
		}
	}

	return nil, fmt.Errorf("%w: no stored tokens, run 'spotlite auth login'", shared.ErrNotAuthenticated)
}

// spotifyService builds a Spotify service over a gateway seeded from the
// stored account. Rotated tokens are written back to the accounts table.
func (r *Runner) spotifyService(db *sql.DB) (services.Service, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}
	if r.exchanger == nil {
		return nil, fmt.Errorf("%w: Spotify client_id must be set in %s", shared.ErrMissingCredentials, r.configPath)
	}

	accounts := repositories.NewAccountRepository(db)
	acct, err := r.storedAccount(accounts)
	if err != nil {
		return nil, err
	}

	store := auth.NewMemoryStore(acct.AccessToken(), acct.RefreshToken())
	gw := services.NewGateway(services.GatewayOpts{
		Store:     store,
		Refresher: r.exchanger,
		Client:    r.httpClient,
		Logger:    r.logger,
		Callbacks: services.Callbacks{
			OnTokenRefreshed: func(ts auth.TokenSet) {
				refresh := ts.RefreshToken
				if refresh == "" {
					refresh = acct.RefreshToken()
				}
				acct.SetTokens(ts.AccessToken, refresh, ts.ExpiresAt())
				if err := accounts.Update(acct); err != nil {
					r.logger.Warn("failed to persist rotated tokens", "error", err)
				}
			},
			OnSessionExpired: func() {
				acct.ClearTokens()
				if err := accounts.Update(acct); err != nil {
					r.logger.Warn("failed to clear stored tokens", "error", err)
				}
			},
		},
	})

	return services.NewSpotifyService(gw, ""), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
