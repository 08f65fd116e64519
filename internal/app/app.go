package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/specialistvlad/flowgrid/internal/config"
	"github.com/specialistvlad/flowgrid/internal/ctxlog"
	"github.com/specialistvlad/flowgrid/internal/engine"
	"github.com/specialistvlad/flowgrid/internal/persist"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logger  *slog.Logger
	config  *Config
	engine  *engine.Engine
	state   *persist.Dir
	loader  config.Loader
	backend func()
}

// NewApp is the constructor for the main application. Logs go to logW; the
// engine starts empty until LoadState or LoadDefinition fills it.
func NewApp(logW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		logger: logger,
		config: cfg,
		engine: engine.New(engine.Options{
			Logger:  logger,
			Quoting: cfg.Quoting,
			Strict:  cfg.Strict,
		}),
		state:  persist.New(cfg.StateDir),
		loader: newDefinitionLoader(),
	}
}

// Context returns ctx carrying the application's logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Engine returns the application's engine.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Config returns the configuration the app was built with.
func (a *App) Config() *Config {
	return a.config
}

// LoadState restores the engine from the state directory.
func (a *App) LoadState(ctx context.Context) error {
	ctx = a.Context(ctx)
	if err := a.engine.Load(ctx, a.state); err != nil {
		return err
	}
	a.logger.Debug("State restored.",
		"dir", a.state.Path(),
		"workflows", len(a.engine.Workflows().List()),
		"configs", a.engine.Configs().Len(),
		"headers", len(a.engine.Headers()),
	)
	return nil
}

// SaveState writes the engine's stores to the state directory.
func (a *App) SaveState(ctx context.Context) error {
	return a.engine.Save(a.Context(ctx), a.state)
}

// Close disconnects from the backend if connected.
func (a *App) Close() {
	if a.backend != nil {
		a.backend()
		a.backend = nil
	}
}
