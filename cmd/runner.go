package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dailycast/internal/formatter"
	"github.com/desertthunder/dailycast/internal/repositories"
	"github.com/desertthunder/dailycast/internal/services"
	"github.com/desertthunder/dailycast/internal/session"
	"github.com/desertthunder/dailycast/internal/shared"
	"github.com/desertthunder/dailycast/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The session stack is built lazily by [Runner.connect] so commands like setup work without a database.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	open       func(string) error

	db           *sql.DB
	tokens       *session.TokenStore
	gateway      *services.Gateway
	history      *repositories.PlaybackRepository
	orchestrator *tasks.SessionOrchestrator
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	// Config, when set, is used as is. Otherwise ConfigPath is loaded (or defaults) and env overrides applied.
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	// Open hands podcast URLs to a player. Defaults to [shared.OpenURL].
	Open func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Open == nil {
		opts.Open = shared.OpenURL
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		open:       opts.Open,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, prefsCommand, podcastCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger. Only effective before [Runner.connect].
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// loadConfig resolves the configuration once: explicit config, then the config file, then defaults.
func (r *Runner) loadConfig() (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	config := shared.DefaultConfig()
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err == nil {
			if config, err = shared.LoadConfig(r.configPath); err != nil {
				return nil, err
			}
		} else {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := shared.SetLogLevel(r.logger, config.Log.Level); err != nil {
		return nil, err
	}

	r.config = config
	return config, nil
}

// connect builds the session stack and restores any persisted session.
func (r *Runner) connect(ctx context.Context) error {
	if r.orchestrator != nil {
		return nil
	}

	config, err := r.loadConfig()
	if err != nil {
		return err
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	r.history = repositories.NewPlaybackRepository(db)

	var slot session.Slot
	switch config.Session.Storage {
	case "memory":
		slot = &session.MemorySlot{}
	default:
		slot = repositories.NewSessionRepository(db, session.TokenSlot)
	}
	r.tokens = session.NewTokenStore(slot, shared.WithLogger(r.logger, "component", "tokens"))

	client := r.httpClient
	if client == nil {
		client = &http.Client{Timeout: config.Service.Timeout()}
	}
	r.gateway = services.NewGateway(services.GatewayConfig{
		Endpoint:          config.Service.Endpoint,
		Client:            client,
		RequestsPerSecond: config.Service.RequestsPerSecond,
		Burst:             config.Service.Burst,
	}, r.tokens, shared.WithLogger(r.logger, "component", "gateway"))

	r.orchestrator = tasks.NewSessionOrchestrator(tasks.Options{
		API:      services.NewPodcastService(r.gateway),
		Tokens:   r.tokens,
		Notifier: r.gateway,
		Recorder: r.history,
		Logger:   shared.WithLogger(r.logger, "component", "session"),
	})

	r.logger.Debug("session stack ready", "endpoint", r.gateway.Endpoint(), "storage", config.Session.Storage)
	return r.orchestrator.Start(ctx)
}

// session connects and requires a logged in user.
func (r *Runner) session(ctx context.Context) (*tasks.SessionOrchestrator, error) {
	if err := r.connect(ctx); err != nil {
		return nil, err
	}
	if !r.orchestrator.State().Authenticated {
		return nil, fmt.Errorf("%w: run 'dailycast auth login' first", shared.ErrUnauthenticated)
	}
	return r.orchestrator, nil
}

// Close releases the database.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// reportFailure prints the notice the orchestrator produced for err, then returns err.
func (r *Runner) reportFailure(err error) error {
	if r.orchestrator == nil || errors.Is(err, shared.ErrAuthRejected) {
		return err
	}
	if n := r.orchestrator.State().Notice; n != nil && len(n.Fields) > 0 {
		r.writePlain("%s", formatter.NoticeToText(n))
	}
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
