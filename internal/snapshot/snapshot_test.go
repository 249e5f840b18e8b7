package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ctxlab/internal/config"
	"github.com/fyrsmithlabs/ctxlab/internal/logging"
	"github.com/fyrsmithlabs/ctxlab/internal/runner"
)

func testConfig() config.SnapshotConfig {
	return config.SnapshotConfig{
		Command:   "skills/env-snapshot/bin/snapshot",
		EnvPrefix: "env_",
	}
}

func newStep(t *testing.T, root string) *Step {
	t.Helper()
	log := logging.NewTestLogger()
	exec := runner.New(root, log.Logger, runner.WithStreams(&bytes.Buffer{}, &bytes.Buffer{}))
	return New(root, testConfig(), "examples", exec, log.Logger)
}

// installSnapshotTool writes a fake snapshot executable that echoes its
// arguments and exits with the given status.
func installSnapshotTool(t *testing.T, root string, exitCode int) {
	t.Helper()
	dir := filepath.Join(root, "skills", "env-snapshot", "bin")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	script := fmt.Sprintf("#!/bin/sh\necho snapshot \"$@\"\nexit %d\n", exitCode)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snapshot"), []byte(script), 0o755))
}

func TestRunSkipsWhenCommandMissing(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(root, "out")

	result := newStep(t, root).Run(context.Background(), outDir)

	assert.Equal(t, StatusSkipped, result.Status)
	assert.Equal(t, "snapshot command not found", result.Reason)

	// Nothing was invoked: no snapshot directory, no log.
	_, err := os.Stat(filepath.Join(outDir, "snapshot"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunInvokesCommand(t *testing.T) {
	root := t.TempDir()
	installSnapshotTool(t, root, 0)
	outDir := filepath.Join(root, "out")

	result := newStep(t, root).Run(context.Background(), outDir)

	require.Equal(t, StatusOK, result.Status)
	assert.Equal(t, filepath.Join(outDir, "snapshot"), result.Output)
	assert.Empty(t, result.Env)

	content, err := os.ReadFile(filepath.Join(outDir, "snapshot", "run.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "--out "+filepath.Join(outDir, "snapshot"))
	assert.NotContains(t, string(content), "--env")
}

func TestRunPassesFirstEnvInput(t *testing.T) {
	root := t.TempDir()
	installSnapshotTool(t, root, 0)
	examples := filepath.Join(root, "examples")
	require.NoError(t, os.MkdirAll(examples, 0o755))
	for _, name := range []string{"env_zeta.json", "env_alpha.json", "env_mid.json", "notes.txt", "env_skip.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(examples, name), []byte("{}"), 0o644))
	}
	outDir := filepath.Join(root, "out")

	result := newStep(t, root).Run(context.Background(), outDir)

	require.Equal(t, StatusOK, result.Status)
	assert.Equal(t, filepath.Join(examples, "env_alpha.json"), result.Env)

	content, err := os.ReadFile(filepath.Join(outDir, "snapshot", "run.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "--env "+filepath.Join(examples, "env_alpha.json"))
}

func TestRunReportsCommandFailure(t *testing.T) {
	root := t.TempDir()
	installSnapshotTool(t, root, 2)
	outDir := filepath.Join(root, "out")

	result := newStep(t, root).Run(context.Background(), outDir)

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "exit status 2", result.Reason)

	// The log still exists for diagnosis.
	_, err := os.Stat(filepath.Join(outDir, "snapshot", "run.log"))
	assert.NoError(t, err)
}
