package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/specialistvlad/wavebuild/internal/config"
	"github.com/specialistvlad/wavebuild/internal/ctxlog"
	"github.com/specialistvlad/wavebuild/internal/executor"
	"github.com/specialistvlad/wavebuild/internal/workspace"
)

// Runner is what the App needs from a command executor: builds inherit the
// terminal, the workspace listing is captured.
type Runner interface {
	executor.Executor
	executor.OutputRunner
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	loader config.Loader

	runner    Runner
	workspace workspace.Loader
}

// Option customizes an App.
type Option func(*App)

// WithRunner replaces the process-backed executor.
func WithRunner(r Runner) Option {
	return func(a *App) { a.runner = r }
}

// WithWorkspaceLoader replaces the package manager listing.
func WithWorkspaceLoader(l workspace.Loader) Option {
	return func(a *App) { a.workspace = l }
}

// NewApp is the constructor for the main application. It returns an App with
// its own isolated logger.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, opts ...Option) *App {
	logger := newLogger(cfg, outW)
	a := &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		loader: loader,
	}
	for _, opt := range opts {
		opt(a)
	}
	logger.Debug("App created.", "root", cfg.Root)
	return a
}

// Context returns ctx carrying the application logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// path resolves p against the workspace root.
func (a *App) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.config.Root, p)
}
