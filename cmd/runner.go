package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lbx/internal/services"
	"github.com/desertthunder/lbx/internal/shared"
	"github.com/desertthunder/lbx/internal/tasks"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	db      *sqlx.DB
	ownsDB  bool
	service *services.AssetService
	engine  *tasks.ExportEngine
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	DB     *sqlx.DB // Used instead of opening the configured database
	Logger *log.Logger
	Output io.Writer
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

	return &Runner{
		config: opts.Config,
		db:     opts.DB,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, seedCommand, assetsCommand, exportCommand, reportCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the config file when present, applies environment overrides and validates the result.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); err == nil {
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.logger.Debug("loaded config", "path", configPath)
	}

	if err := r.config.ApplyEnv(cmd.String("env-file")); err != nil {
		return ctx, err
	}

	if lvl := cmd.String("log-level"); lvl != "" {
		r.config.Log.Level = lvl
	}

	if err := r.config.Validate(); err != nil {
		return ctx, err
	}

	level, err := shared.ParseLogLevel(r.config.Log.Level)
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, level)

	return ctx, nil
}

// After closes the database when the runner opened it.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.ownsDB && r.db != nil {
		err := r.db.Close()
		r.db, r.service, r.engine, r.ownsDB = nil, nil, nil, false
		return err
	}
	return nil
}

// open connects to the configured database on first use and builds the service and export engine.
func (r *Runner) open() (*services.AssetService, error) {
	if r.service != nil {
		return r.service, nil
	}

	if r.db == nil {
		r.logger.Debug("opening database", "driver", r.config.Database.Driver, "dsn", r.config.Database.DSN)

		db, err := shared.NewDatabase(r.config.Database.Driver, r.config.Database.DSN)
		if err != nil {
			return nil, err
		}
		shared.ConfigureDatabase(db, r.config.Database)
		r.db, r.ownsDB = db, true
	}

	r.service = services.NewAssetService(r.db, r.logger)
	r.engine = tasks.NewExportEngine(r.service, r.logger)
	return r.service, nil
}

// SetLogger replaces the runner's logger, e.g. to redirect logs to a file while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.service, r.engine = nil, nil
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// write emits data as JSON when --json is set, otherwise calls plain.
func (r *Runner) write(cmd *cli.Command, data any, plain func() error) error {
	if cmd.Bool("json") {
		return r.writeJSON(data, cmd.Bool("pretty"))
	}
	return plain()
}
