// Package app provides the application context and dependency management
// for the exprmap CLI. It centralizes configuration, logging and the lazily
// created client, and hands them to commands through application.Application.
package app

import (
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/exprmap/exprmap"
	"github.com/exprmap/exprmap/cmd/application"
	"github.com/exprmap/exprmap/internal/dataset"
	"github.com/exprmap/exprmap/pkg/errors"
)

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)

// App represents the exprmap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Command output, stdout when nil
	out io.Writer

	// Client instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	client exprmap.Client
}

// New creates a new App instance with the given version information.
// The app is initialized with the loaded configuration, which can be
// customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the output format requested with --format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Client returns the client over the configured dataset, loading the
// dataset on first use. This is thread-safe and ensures only one instance
// is created.
func (a *App) Client() (exprmap.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	if a.config.Dataset == "" {
		return nil, errors.NewConfigError("dataset", "no dataset configured: use --dataset or set EXPRMAP_DATASET", nil)
	}
	store, err := dataset.Load(a.config.Dataset)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().
		Str("dataset", a.config.Dataset).
		Interface("stats", store.Stats()).
		Msg("Dataset loaded")

	c, err := exprmap.New(exprmap.WithSources(store), exprmap.WithLogger(a.logger))
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}

	a.client = c
	return c, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithOutput sets the writer commands print to.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}

// WithClient sets a custom client instance (useful for testing).
func WithClient(c exprmap.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}
