package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/unanetx/internal/formatter"
	"github.com/desertthunder/unanetx/internal/repositories"
	"github.com/desertthunder/unanetx/internal/shared"
	"github.com/desertthunder/unanetx/internal/storage"
	"github.com/desertthunder/unanetx/internal/tasks"
	"github.com/desertthunder/unanetx/internal/unanet"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, blob store and engine are opened on first use so commands that work on local files never touch them.
type Runner struct {
	config     *shared.Config
	configPath string
	lookupEnv  func(string) (string, bool)
	logger     *log.Logger
	output     io.Writer

	db        *sql.DB
	ownsDB    bool
	store     storage.BlobStore
	ownsStore bool
	api       tasks.UnanetAPI
	runs      *repositories.RunRepository
	engine    *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	LookupEnv  func(string) (string, bool) // Defaults to [os.LookupEnv]
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB
	Store      storage.BlobStore
	API        tasks.UnanetAPI
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
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		lookupEnv:  opts.LookupEnv,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
		store:      opts.Store,
		api:        opts.API,
	}
}

// database opens the configured SQLite database and migrates it.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	r.logger.Debug("opening database", "path", r.config.Database.Path)
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db, r.ownsDB = db, true
	return db, nil
}

func (r *Runner) runRepository() (*repositories.RunRepository, error) {
	if r.runs != nil {
		return r.runs, nil
	}
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	r.runs = repositories.NewRunRepository(db)
	return r.runs, nil
}

func (r *Runner) blobStore() (storage.BlobStore, error) {
	if r.store != nil {
		return r.store, nil
	}

	var db *sql.DB
	if r.config.Storage.Driver == "sqlite" {
		var err error
		if db, err = r.database(); err != nil {
			return nil, err
		}
	}

	store, err := storage.Open(r.config.Storage, db)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}
	r.store, r.ownsStore = store, true
	return store, nil
}

// unanetAPI returns nil when no tenant is configured; refresh jobs then fail with [shared.ErrServiceUnavailable].
func (r *Runner) unanetAPI() tasks.UnanetAPI {
	if r.api != nil {
		return r.api
	}

	client, err := unanet.NewClient(unanet.ConfigFrom(r.config.Unanet))
	if err != nil {
		r.logger.Debug("unanet client unavailable", "error", err)
		return nil
	}
	r.api = client
	return client
}

// jobEngine builds the [tasks.Engine] with run recording.
func (r *Runner) jobEngine() (*tasks.Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	store, err := r.blobStore()
	if err != nil {
		return nil, err
	}
	runs, err := r.runRepository()
	if err != nil {
		return nil, err
	}

	opts := []tasks.Option{tasks.WithRecorder(runs), tasks.WithLogger(r.logger)}
	if api := r.unanetAPI(); api != nil {
		opts = append(opts, tasks.WithUnanet(api))
	}

	engine, err := tasks.NewEngine(store, r.config.Blobs, r.config.Fetch, opts...)
	if err != nil {
		return nil, err
	}
	r.engine = engine
	return engine, nil
}

// Close releases the blob store and database if the runner opened them.
func (r *Runner) Close() error {
	var errs []error
	if c, ok := r.store.(io.Closer); ok && r.ownsStore {
		errs = append(errs, c.Close())
		r.store, r.ownsStore = nil, false
	}
	if r.db != nil && r.ownsDB {
		errs = append(errs, r.db.Close())
		r.db, r.ownsDB = nil, false
	}
	r.runs, r.engine = nil, nil
	return errors.Join(errs...)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := formatter.MarshalJSON(data, pretty)
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
	return r.writePlain(format+"\n", args...)
}
