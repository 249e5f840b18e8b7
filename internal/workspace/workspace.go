// Package workspace resolves and creates the per-run output directory tree.
//
// Each run owns one directory, by default <root>/lab/init_runs/<stamp>, with
// a fixed set of subdirectories. Steps write to disjoint subpaths, so the
// timestamped default naming is what keeps concurrent runs from colliding.
package workspace

import (
	"os"
	"path/filepath"
	"time"
)

// Subdirectory names under a run's output directory. Each step owns exactly
// one of them.
const (
	SnapshotDir = "snapshot"
	ContextDir  = "context"
	BaselineDir = "baseline"
)

// Stamp formats a sortable local-wall-clock timestamp: YYYY-MM-DD_HH-MM-SS.
// Always fixed width; single-digit fields are zero-padded.
func Stamp(now time.Time) string {
	return now.Format("2006-01-02_15-04-05")
}

// EnsureDir creates the directory and any missing ancestors.
// An already-existing directory is not an error.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// ResolveOutDir resolves the run output directory.
//
// An absolute flag is used as-is; a relative flag is joined to root; an empty
// flag selects <root>/<outBase>/<stamp>.
func ResolveOutDir(root, flag, outBase string, now time.Time) string {
	if flag == "" {
		return filepath.Join(root, outBase, Stamp(now))
	}
	if filepath.IsAbs(flag) {
		return flag
	}
	return filepath.Join(root, flag)
}
