package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/ctxlab/internal/logging"
)

func newTestRunner(t *testing.T, dir string, opts ...Option) (*Runner, *logging.TestLogger) {
	t.Helper()
	log := logging.NewTestLogger()
	// Keep test output quiet: echo into buffers unless the test overrides.
	defaults := []Option{WithStreams(&bytes.Buffer{}, &bytes.Buffer{})}
	return New(dir, log.Logger, append(defaults, opts...)...), log
}

func TestRunSuccess(t *testing.T) {
	dir := t.TempDir()
	r, log := newTestRunner(t, dir)
	logPath := filepath.Join(dir, "logs", "ok.txt")

	result := r.Run(context.Background(), GateSpec{
		Name:    "ok",
		Command: "sh",
		Args:    []string{"-c", "echo hello"},
		LogPath: logPath,
	})

	assert.True(t, result.Passed)
	assert.Equal(t, 0, result.ExitCode)
	assert.Empty(t, result.Reason)

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(content))

	log.AssertLogged(t, zapcore.InfoLevel, "running gate")
	log.AssertLogged(t, zapcore.InfoLevel, "gate finished")
}

func TestRunLogOrdersStdoutBeforeStderr(t *testing.T) {
	dir := t.TempDir()
	r, _ := newTestRunner(t, dir)
	logPath := filepath.Join(dir, "mixed.txt")

	result := r.Run(context.Background(), GateSpec{
		Name:    "mixed",
		Command: "sh",
		Args:    []string{"-c", "echo to-err 1>&2; echo to-out"},
		LogPath: logPath,
	})
	require.True(t, result.Passed)

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	// stdout bytes come first in the persisted blob regardless of emission
	// order.
	assert.Equal(t, "to-out\nto-err\n", string(content))
}

func TestRunKeepsConsoleStreamsSeparate(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	r, _ := newTestRunner(t, dir, WithStreams(&stdout, &stderr))

	r.Run(context.Background(), GateSpec{
		Name:    "split",
		Command: "sh",
		Args:    []string{"-c", "echo out; echo err 1>&2"},
		LogPath: filepath.Join(dir, "split.txt"),
	})

	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
}

func TestRunNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	r, _ := newTestRunner(t, dir)
	logPath := filepath.Join(dir, "fail.txt")

	result := r.Run(context.Background(), GateSpec{
		Name:    "fail",
		Command: "sh",
		Args:    []string{"-c", "echo doomed; exit 3"},
		LogPath: logPath,
	})

	assert.False(t, result.Passed)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "exit status 3", result.Reason)

	// Log written regardless of outcome.
	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "doomed\n", string(content))
}

func TestRunSpawnError(t *testing.T) {
	dir := t.TempDir()
	r, _ := newTestRunner(t, dir)
	logPath := filepath.Join(dir, "spawn.txt")

	result := r.Run(context.Background(), GateSpec{
		Name:    "spawn",
		Command: filepath.Join(dir, "does-not-exist"),
		LogPath: logPath,
	})

	assert.False(t, result.Passed)
	assert.Equal(t, -1, result.ExitCode)
	assert.True(t, strings.HasPrefix(result.Reason, "spawn: "), "reason: %q", result.Reason)

	// An empty log file still exists for post-hoc inspection.
	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestRunScrubsPersistedLogOnly(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	scrub := func(content string) string {
		return strings.ReplaceAll(content, "hunter2", "[REDACTED]")
	}
	log := logging.NewTestLogger()
	r := New(dir, log.Logger, WithStreams(&stdout, &bytes.Buffer{}), WithScrub(scrub))
	logPath := filepath.Join(dir, "scrub.txt")

	result := r.Run(context.Background(), GateSpec{
		Name:    "scrub",
		Command: "sh",
		Args:    []string{"-c", "echo password=hunter2"},
		LogPath: logPath,
	})
	require.True(t, result.Passed)

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "password=[REDACTED]\n", string(content))

	// The live console echo stays verbatim.
	assert.Equal(t, "password=hunter2\n", stdout.String())
}

func TestRunUsesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), []byte("x"), 0o644))
	r, _ := newTestRunner(t, dir)
	logPath := filepath.Join(dir, "pwd.txt")

	result := r.Run(context.Background(), GateSpec{
		Name:    "pwd",
		Command: "sh",
		Args:    []string{"-c", "ls marker"},
		LogPath: logPath,
	})

	assert.True(t, result.Passed)
}
