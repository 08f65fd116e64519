package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/flowgrid/internal/config"
	"github.com/specialistvlad/flowgrid/internal/workflow"
)

// LoadDefinition reads definition files and loads one workflow into the
// engine, selecting it. id picks the workflow when the files hold several.
func (a *App) LoadDefinition(ctx context.Context, id string, paths ...string) (workflow.Workflow, error) {
	ctx = a.Context(ctx)
	a.logger.Debug("Loading definitions...", "paths", paths)

	model, err := a.loader.Load(ctx, paths...)
	if err != nil {
		return workflow.Workflow{}, fmt.Errorf("failed to load definitions: %w", err)
	}

	var def *config.Workflow
	if id != "" {
		var ok bool
		if def, ok = model.Workflow(id); !ok {
			return workflow.Workflow{}, fmt.Errorf("%w: %q", workflow.ErrNotFound, id)
		}
	} else if def, err = model.Single(); err != nil {
		return workflow.Workflow{}, err
	}

	w, err := a.engine.LoadDefinition(def)
	if err != nil {
		return workflow.Workflow{}, fmt.Errorf("failed to load workflow %q from %s: %w", def.ID, def.Source, err)
	}
	a.logger.Info("Workflow loaded.", "workflow", w.ID, "nodes", len(w.Nodes), "source", def.Source)
	return w, nil
}
