package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/marksheet/internal/formatter"
	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/repositories"
	"github.com/desertthunder/marksheet/internal/services"
	"github.com/desertthunder/marksheet/internal/shared"
	"github.com/desertthunder/marksheet/internal/tasks"
	"github.com/urfave/cli/v3"
)

// MarkImporter stores imported mark entries.
type MarkImporter interface {
	Upsert(ctx context.Context, entry *models.MarkEntry) error
}

// StudentImporter stores and lists student snapshots.
type StudentImporter interface {
	Upsert(ctx context.Context, s *models.StudentSnapshot) error
	List(ctx context.Context) ([]models.StudentSnapshot, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database and the publishing pipeline are opened on first use, so commands that
// never touch them (e.g. setup config) work without a valid configuration.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	recorder   *tasks.PrometheusRecorder

	db        *shared.Database
	marks     MarkImporter
	students  StudentImporter
	publisher *tasks.Publisher
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Marks, Students and Publisher replace the database-backed defaults.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Recorder   *tasks.PrometheusRecorder

	Marks     MarkImporter
	Students  StudentImporter
	Publisher *tasks.Publisher
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
	if opts.Recorder == nil {
		opts.Recorder = tasks.NewPrometheusRecorder()
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		recorder:   opts.Recorder,
		marks:      opts.Marks,
		students:   opts.Students,
		publisher:  opts.Publisher,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, marksCommand, studentsCommand, publishCommand, statusCommand, renderCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and everything it opens afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// before loads the configuration named by --config and applies --verbose.
// A missing config file falls back to the embedded defaults.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.configPath == "" {
		return ctx, nil
	}

	if _, err := os.Stat(r.configPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
			return ctx, nil
		}
		return ctx, fmt.Errorf("failed to stat config: %w", err)
	}

	config, err := shared.LoadConfig(r.configPath)
	if err != nil {
		return ctx, err
	}
	r.config = config
	return ctx, nil
}

// after closes the database if a command opened it, dropping everything built on it.
func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.marks, r.students, r.publisher = nil, nil, nil, nil
	return err
}

// openDatabase connects to the configured database and applies pending migrations.
func (r *Runner) openDatabase() (*shared.Database, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Debug("database ready", "driver", db.Dialect, "path", r.config.Database.Path)
	r.db = db
	return db, nil
}

// openStores builds the repositories the import commands write to.
func (r *Runner) openStores() error {
	if r.marks != nil && r.students != nil {
		return nil
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	r.marks = repositories.NewMarkRepository(db)
	r.students = repositories.NewStudentRepository(db)
	return nil
}

// openPublisher validates the configuration and wires the publication pipeline on
// top of the database.
func (r *Runner) openPublisher() (*tasks.Publisher, error) {
	if r.publisher != nil {
		return r.publisher, nil
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	db, err := r.openDatabase()
	if err != nil {
		return nil, err
	}

	dispatcher, err := services.NewDispatcher(r.config, r.logger)
	if err != nil {
		return nil, err
	}

	r.publisher = tasks.NewPublisher(
		repositories.NewMarkRepository(db),
		repositories.NewStudentRepository(db),
		formatter.NewMarksheetRenderer(r.config.School),
		dispatcher,
		tasks.WithWorkers(r.config.Publish.Workers),
		tasks.WithLogger(r.logger),
		tasks.WithRecorder(r.recorder),
	)
	return r.publisher, nil
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
