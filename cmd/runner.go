package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/teltube/internal/repositories"
	"github.com/desertthunder/teltube/internal/services"
	"github.com/desertthunder/teltube/internal/session"
	"github.com/desertthunder/teltube/internal/shared"
	"github.com/desertthunder/teltube/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Endpoint clients are built up front. The local database and the session controller are opened on
// first use by [Runner.open] so commands that never touch them (setup config, --help) do not create a
// database file.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	api      *services.APIService
	identity *services.IdentityService
	media    *services.MediaService
	catalog  *services.CatalogService
	pipeline *tasks.UploadPipeline

	db      *sql.DB
	feed    *tasks.CatalogFeed
	session *session.Controller
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
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

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.wireServices()
	return r
}

// wireServices builds the endpoint clients and the upload pipeline with the current logger.
func (r *Runner) wireServices() {
	endpoints := r.config.Endpoints

	r.api = services.NewAPIService(r.httpClient, endpoints.RateLimit, r.logger)
	r.identity = services.NewIdentityService(r.api, endpoints.IdentityURL, r.logger)
	r.media = services.NewMediaService(r.api, endpoints.UploadURL)
	r.catalog = services.NewCatalogService(r.api, endpoints.CatalogURL)
	r.pipeline = tasks.NewUploadPipeline(r.media, r.catalog, tasks.PipelineOpts{
		SingleFlight: r.config.Upload.SingleFlight,
		Logger:       r.logger,
	})
}

// SetLogger replaces the logger used by the runner and everything it wires afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.wireServices()
}

// open opens the local database and restores the persisted session. It is idempotent.
func (r *Runner) open() (*session.Controller, error) {
	if r.session != nil {
		return r.session, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}
	r.db = db

	store := repositories.NewCredentialRepository(repositories.NewSQLiteStore(db), r.logger)
	r.feed = tasks.NewCatalogFeed(r.catalog, repositories.NewCatalogRepository(db), r.logger)
	r.session = session.New(session.Options{
		Auth:     r.identity,
		Store:    store,
		Pipeline: r.pipeline,
		Feed:     r.feed,
		Logger:   r.logger,
	})

	if r.session.Init() {
		r.logger.Debug("session restored", "user", r.session.Identity().DisplayName())
	}
	return r.session, nil
}

// Close releases the local database.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	r.session = nil
	r.feed = nil
	return err
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, uploadCommand, catalogCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
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
