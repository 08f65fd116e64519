package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/flowgrid/internal/app"
	"github.com/specialistvlad/flowgrid/internal/dispatch"
	"github.com/specialistvlad/flowgrid/internal/plan"
	"github.com/stretchr/testify/require"
)

// HarnessOptions configure one integration run.
type HarnessOptions struct {
	// BackendURL is the socket.io backend; empty runs without one.
	BackendURL string
	// Input is the input file path sent with the run. Empty skips the run
	// and stops after planning.
	Input   string
	Quoting bool
	Strict  bool
	Timeout time.Duration
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Plan      plan.Plan
	Result    dispatch.Result
}

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, opts HarnessOptions) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, opts)
}

// RunIntegrationTestWithContext writes the definition files to a temporary
// directory, loads the single workflow they hold and plans it. When an
// input is given the plan is also run on the backend.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, opts HarnessOptions) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	defsDir := filepath.Join(tmpDir, "definitions")
	require.NoError(t, os.MkdirAll(defsDir, 0o755))
	for name, content := range files {
		filePath := filepath.Join(defsDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	testApp, logBuffer := app.SetupAppTest(t, app.Config{
		StateDir:        filepath.Join(tmpDir, "state"),
		BackendURL:      opts.BackendURL,
		DispatchTimeout: timeout,
		Quoting:         opts.Quoting,
		Strict:          opts.Strict,
	})

	result := &HarnessResult{App: testApp}
	if _, err := testApp.LoadDefinition(ctx, "", defsDir); err != nil {
		result.Err = err
	} else if opts.Input == "" {
		result.Plan, result.Err = testApp.Engine().Plan(testApp.Context(ctx))
	} else {
		result.Result, result.Plan, result.Err = testApp.Run(ctx, opts.Input)
	}

	if os.Getenv("FLOWGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}
	result.LogOutput = logBuffer.String()
	return result
}
