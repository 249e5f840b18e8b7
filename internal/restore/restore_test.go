package restore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ctxlab/internal/config"
	"github.com/fyrsmithlabs/ctxlab/internal/logging"
)

func newService(t *testing.T, root string, cfg config.RestoreConfig) *Service {
	t.Helper()
	return New(root, "memory", cfg, logging.NewTestLogger().Logger)
}

func defaultRestoreConfig() config.RestoreConfig {
	return config.RestoreConfig{RowsPerTable: 25, MaxMatches: 50}
}

// seedDatabase creates <root>/memory/<name> and runs the given statements.
func seedDatabase(t *testing.T, root, name string, statements []string) {
	t.Helper()
	dir := filepath.Join(root, "memory")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	db, err := sql.Open(driverName, filepath.Join(dir, name))
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
}

func readJSONReport(t *testing.T, outDir string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(outDir, "context", jsonReportName))
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal(raw, &report))
	return report
}

func TestRestoreSkipsWithoutDatabases(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(root, "out")

	summary := newService(t, root, defaultRestoreConfig()).Restore(context.Background(), outDir, "infra")

	assert.Equal(t, StatusSkipped, summary.Status)
	assert.Equal(t, "no files detected", summary.Reason)

	report := readJSONReport(t, outDir)
	assert.Equal(t, "skipped", report["status"])
	assert.Equal(t, "no files detected", report["reason"])
	// Skip reports carry no matches field at all.
	_, hasMatches := report["matches"]
	assert.False(t, hasMatches)

	md, err := os.ReadFile(filepath.Join(outDir, "context", mdReportName))
	require.NoError(t, err)
	assert.Contains(t, string(md), "Skipped: no files detected")
}

func TestRestoreIgnoresNonDatabaseFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "memory")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("infra"), 0o644))

	summary := newService(t, root, defaultRestoreConfig()).Restore(context.Background(), filepath.Join(root, "out"), "infra")

	assert.Equal(t, StatusSkipped, summary.Status)
}

func TestRestoreSkipsWhenEngineUnavailable(t *testing.T) {
	root := t.TempDir()
	seedDatabase(t, root, "mem.sqlite", []string{
		`CREATE TABLE notes (body TEXT)`,
		`INSERT INTO notes (body) VALUES ('infra notes')`,
	})
	outDir := filepath.Join(root, "out")

	svc := newService(t, root, defaultRestoreConfig())
	svc.engineOK = func() bool { return false }

	summary := svc.Restore(context.Background(), outDir, "infra")

	assert.Equal(t, StatusSkipped, summary.Status)
	assert.Equal(t, "sqlite engine unavailable", summary.Reason)
	assert.Empty(t, summary.Matches)

	report := readJSONReport(t, outDir)
	assert.Equal(t, "skipped", report["status"])
	assert.Equal(t, "sqlite engine unavailable", report["reason"])
	_, hasMatches := report["matches"]
	assert.False(t, hasMatches)

	md, err := os.ReadFile(filepath.Join(outDir, "context", mdReportName))
	require.NoError(t, err)
	assert.Contains(t, string(md), "Skipped: sqlite engine unavailable")
}

func TestRestoreFindsMatchingRows(t *testing.T) {
	root := t.TempDir()
	seedDatabase(t, root, "episodes.sqlite", []string{
		`CREATE TABLE episodes (id INTEGER PRIMARY KEY, summary TEXT)`,
		`INSERT INTO episodes (summary) VALUES ('debugged the repro for the flaky test')`,
		`INSERT INTO episodes (summary) VALUES ('wrote release notes')`,
	})
	outDir := filepath.Join(root, "out")

	summary := newService(t, root, defaultRestoreConfig()).Restore(context.Background(), outDir, "repro")

	require.Equal(t, StatusOK, summary.Status)
	require.Len(t, summary.Matches, 1)
	match := summary.Matches[0]
	assert.Equal(t, "episodes.sqlite", match.SourceFile)
	assert.Equal(t, "episodes", match.Table)
	assert.Contains(t, match.Row["summary"], "repro")

	md, err := os.ReadFile(filepath.Join(outDir, "context", mdReportName))
	require.NoError(t, err)
	assert.Contains(t, string(md), "### episodes.sqlite :: episodes")
	assert.Contains(t, string(md), "```json")
}

func TestRestoreMatchIsCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	seedDatabase(t, root, "mem.sqlite", []string{
		`CREATE TABLE notes (body TEXT)`,
		`INSERT INTO notes (body) VALUES ('Infra outage postmortem')`,
	})

	summary := newService(t, root, defaultRestoreConfig()).Restore(context.Background(), filepath.Join(root, "out"), "INFRA")

	require.Equal(t, StatusOK, summary.Status)
	assert.Len(t, summary.Matches, 1)
}

func TestRestoreEmptyQueryMatchesAllRows(t *testing.T) {
	root := t.TempDir()
	seedDatabase(t, root, "mem.sqlite", []string{
		`CREATE TABLE notes (body TEXT)`,
		`INSERT INTO notes (body) VALUES ('alpha')`,
		`INSERT INTO notes (body) VALUES ('beta')`,
	})

	summary := newService(t, root, defaultRestoreConfig()).Restore(context.Background(), filepath.Join(root, "out"), "")

	require.Equal(t, StatusOK, summary.Status)
	assert.Len(t, summary.Matches, 2)
}

func TestRestoreCapsMatchesGlobally(t *testing.T) {
	root := t.TempDir()
	statements := []string{
		`CREATE TABLE a (body TEXT)`,
		`CREATE TABLE b (body TEXT)`,
	}
	for i := 0; i < 5; i++ {
		statements = append(statements,
			fmt.Sprintf(`INSERT INTO a (body) VALUES ('infra %d')`, i),
			fmt.Sprintf(`INSERT INTO b (body) VALUES ('infra %d')`, i),
		)
	}
	seedDatabase(t, root, "mem.sqlite", statements)

	cfg := config.RestoreConfig{RowsPerTable: 25, MaxMatches: 3}
	summary := newService(t, root, cfg).Restore(context.Background(), filepath.Join(root, "out"), "infra")

	require.Equal(t, StatusOK, summary.Status)
	assert.Len(t, summary.Matches, 3)
}

func TestRestoreReadsNewestRowsFirst(t *testing.T) {
	root := t.TempDir()
	statements := []string{`CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)`}
	for i := 1; i <= 10; i++ {
		statements = append(statements, fmt.Sprintf(`INSERT INTO notes (body) VALUES ('entry %d')`, i))
	}
	seedDatabase(t, root, "mem.sqlite", statements)

	cfg := config.RestoreConfig{RowsPerTable: 2, MaxMatches: 50}
	summary := newService(t, root, cfg).Restore(context.Background(), filepath.Join(root, "out"), "entry")

	require.Equal(t, StatusOK, summary.Status)
	require.Len(t, summary.Matches, 2)
	assert.Equal(t, "entry 10", summary.Matches[0].Row["body"])
	assert.Equal(t, "entry 9", summary.Matches[1].Row["body"])
}

func TestRestoreReportAlwaysCarriesMatchesArray(t *testing.T) {
	root := t.TempDir()
	seedDatabase(t, root, "mem.sqlite", []string{
		`CREATE TABLE notes (body TEXT)`,
		`INSERT INTO notes (body) VALUES ('nothing relevant')`,
	})
	outDir := filepath.Join(root, "out")

	summary := newService(t, root, defaultRestoreConfig()).Restore(context.Background(), outDir, "zzz-no-such-term")

	require.Equal(t, StatusOK, summary.Status)
	assert.Empty(t, summary.Matches)

	report := readJSONReport(t, outDir)
	matches, hasMatches := report["matches"]
	require.True(t, hasMatches)
	assert.Equal(t, []any{}, matches)

	md, err := os.ReadFile(filepath.Join(outDir, "context", mdReportName))
	require.NoError(t, err)
	assert.Contains(t, string(md), "No matches found.")
}

func TestRestoreScansUppercaseExtension(t *testing.T) {
	root := t.TempDir()
	seedDatabase(t, root, "mem.SQLITE", []string{
		`CREATE TABLE notes (body TEXT)`,
		`INSERT INTO notes (body) VALUES ('infra notes')`,
	})

	summary := newService(t, root, defaultRestoreConfig()).Restore(context.Background(), filepath.Join(root, "out"), "infra")

	require.Equal(t, StatusOK, summary.Status)
	assert.Len(t, summary.Matches, 1)
	assert.Equal(t, "mem.SQLITE", summary.Matches[0].SourceFile)
}
