package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootHelpHasNoSideEffects(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "version")

	// Help must not create run directories.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)

	assert.Contains(t, out, "ctxlab dev")
	assert.Contains(t, out, "commit none")
}

func TestRunHelpDocumentsFlags(t *testing.T) {
	out, err := execute(t, "run", "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "--query")
	assert.Contains(t, out, "--out")
	assert.Contains(t, out, "--public")
}

func TestUnknownCommandFails(t *testing.T) {
	_, err := execute(t, "bogus")
	assert.Error(t, err)
}

func TestRunRejectsPositionalArgs(t *testing.T) {
	_, err := execute(t, "run", "extra-arg")
	assert.Error(t, err)
}

func TestRunRejectsInvalidLogLevel(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CTXLAB_LOGGING_LEVEL", "loud")

	_, err := execute(t, "run")
	assert.Error(t, err)
}
