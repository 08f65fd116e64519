package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/flowgrid/internal/api"
	"github.com/specialistvlad/flowgrid/internal/dispatch"
	"github.com/specialistvlad/flowgrid/internal/plan"
)

// ConnectBackend opens the backend connection and hands it to the engine.
// Without a backend URL it does nothing, and runs fail with
// engine.ErrNoBackend.
func (a *App) ConnectBackend(ctx context.Context) error {
	if a.backend != nil {
		return nil
	}
	if a.config.BackendURL == "" {
		a.logger.Warn("No backend URL configured, runs are disabled.")
		return nil
	}
	ctx = a.Context(ctx)
	sock, err := dispatch.Connect(ctx, dispatch.ConnectOptions{
		URL:                a.config.BackendURL,
		Namespace:          a.config.Namespace,
		InsecureSkipVerify: a.config.InsecureSkipVerify,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to backend: %w", err)
	}
	a.engine.SetRunner(dispatch.New(sock, a.config.DispatchTimeout))
	a.backend = func() {
		a.logger.Debug("Disconnecting from backend.")
		sock.Disconnect()
	}
	return nil
}

// Run executes the selected workflow on the backend with the given input
// file.
func (a *App) Run(ctx context.Context, input string) (dispatch.Result, plan.Plan, error) {
	ctx = a.Context(ctx)
	a.logger.Debug("App.Run method started.", "input", input)

	if err := a.ConnectBackend(ctx); err != nil {
		return dispatch.Result{}, plan.Plan{}, err
	}

	a.logger.Info("🚀 Dispatching plan...", "workflow", a.engine.Workflows().CurrentID())
	res, p, err := a.engine.Run(ctx, input)
	if err != nil {
		return res, p, err
	}
	a.logger.Info("🏁 Execution finished.", "elapsed", res.Elapsed, "operations", len(p.Operations))
	return res, p, nil
}

// Serve runs the HTTP API until ctx is cancelled. Every successful mutation
// is written to the state directory.
func (a *App) Serve(ctx context.Context) error {
	ctx = a.Context(ctx)
	if err := a.ConnectBackend(ctx); err != nil {
		// The editor stays usable without a backend.
		a.logger.Error("Backend unavailable.", "error", err)
	}
	srv := api.New(a.engine, a.state, a.logger)
	return srv.ListenAndServe(ctx, a.config.Listen)
}
