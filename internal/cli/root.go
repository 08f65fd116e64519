package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/flowgrid/internal/app"
)

// options are the global flags.
type options struct {
	configPath string
	stateDir   string
	logFormat  string
	logLevel   string
	backendURL string
	namespace  string
	timeout    time.Duration
	quoting    bool
	strict     bool
	insecure   bool
}

// env carries the process streams and the environment lookup.
type env struct {
	out    io.Writer
	errOut io.Writer
	lookup func(string) (string, bool)
	opts   *options
}

// Execute runs the command line against a fresh app. Results go to out;
// logs and usage go to errOut. Errors are *ExitError.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	e := &env{out: out, errOut: errOut, lookup: os.LookupEnv, opts: &options{}}
	root := newRootCommand(e)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Anything cobra rejected before running a command is a usage error.
	return usageError(err)
}

func newRootCommand(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "flowgrid",
		Short: "Build and run tabular data pipelines",
		Long: `flowgrid validates pipelines drawn as graphs of transformation nodes,
turns the path from the start node to the end node into an ordered list of
operations and hands it to a processing backend.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	f := root.PersistentFlags()
	f.StringVar(&e.opts.configPath, "config", "", "config file (default: $FLOWGRID_CONFIG)")
	f.StringVar(&e.opts.stateDir, "state-dir", "", "directory holding persisted workflows and configurations")
	f.StringVar(&e.opts.logFormat, "log-format", "", "log output format: 'text' or 'json'")
	f.StringVar(&e.opts.logLevel, "log-level", "", "logging level: 'debug', 'info', 'warn', 'error'")
	f.StringVar(&e.opts.backendURL, "backend", "", "socket.io URL of the processing backend")
	f.StringVar(&e.opts.namespace, "namespace", "", "socket.io namespace of the backend")
	f.DurationVar(&e.opts.timeout, "timeout", 0, "how long to wait for the backend to finish a run")
	f.BoolVar(&e.opts.quoting, "quoting", false, "ask the backend to quote every output field")
	f.BoolVar(&e.opts.strict, "strict", false, "fail when path nodes have no configuration")
	f.BoolVar(&e.opts.insecure, "insecure", false, "skip TLS certificate verification for the backend")

	root.AddCommand(
		newValidateCommand(e),
		newOrderCommand(e),
		newPlanCommand(e),
		newRunCommand(e),
		newServeCommand(e),
		newWorkflowCommand(e),
	)
	return root
}

// config assembles the configuration: defaults, then the config file, then
// FLOWGRID_* variables, then flags set on the command line.
func (e *env) config(cmd *cobra.Command) (*app.Config, error) {
	cfg := app.DefaultConfig()

	path := e.opts.configPath
	if path == "" {
		if v, ok := e.lookup(app.EnvPrefix + "CONFIG"); ok {
			path = v
		}
	}
	if path != "" {
		if err := app.LoadFile(path, &cfg); err != nil {
			return nil, usageError(err)
		}
	}
	if err := app.ApplyEnv(&cfg, e.lookup); err != nil {
		return nil, usageError(err)
	}

	flags := cmd.Flags()
	if flags.Changed("state-dir") {
		cfg.StateDir = e.opts.stateDir
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = e.opts.logFormat
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = e.opts.logLevel
	}
	if flags.Changed("backend") {
		cfg.BackendURL = e.opts.backendURL
	}
	if flags.Changed("namespace") {
		cfg.Namespace = e.opts.namespace
	}
	if flags.Changed("timeout") {
		cfg.DispatchTimeout = e.opts.timeout
	}
	if flags.Changed("quoting") {
		cfg.Quoting = e.opts.quoting
	}
	if flags.Changed("strict") {
		cfg.Strict = e.opts.strict
	}
	if flags.Changed("insecure") {
		cfg.InsecureSkipVerify = e.opts.insecure
	}

	valid, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError(err)
	}
	return valid, nil
}

// newApp builds the app for a command.
func (e *env) newApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := e.config(cmd)
	if err != nil {
		return nil, err
	}
	return app.NewApp(e.errOut, cfg), nil
}

// pipelineApp builds the app for a command that works on one pipeline:
// the workflow from the given definition files, or the selected workflow
// from the state directory when no files are given.
func (e *env) pipelineApp(cmd *cobra.Command, workflowID string, paths []string) (*app.App, error) {
	a, err := e.newApp(cmd)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if len(paths) > 0 {
		if _, err := a.LoadDefinition(ctx, workflowID, paths...); err != nil {
			return nil, exitError(err)
		}
		return a, nil
	}
	if err := a.LoadState(ctx); err != nil {
		return nil, exitError(err)
	}
	if workflowID != "" {
		if _, err := a.Engine().SwitchWorkflow(workflowID); err != nil {
			return nil, exitError(err)
		}
	}
	if a.Engine().Workflows().CurrentID() == "" {
		return nil, exitError(errNoPipeline)
	}
	return a, nil
}

var errNoPipeline = errors.New("no definition files given and no workflow selected in the state directory")
