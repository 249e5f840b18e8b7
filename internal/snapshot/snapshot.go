// Package snapshot runs the environment snapshot step.
//
// The snapshot tool itself is an external collaborator living under the
// skills tree; this step only locates an optional environment input file,
// invokes the tool, and records pass/fail/skip. A missing tool is a soft
// skip, never a run failure.
package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ctxlab/internal/config"
	"github.com/fyrsmithlabs/ctxlab/internal/logging"
	"github.com/fyrsmithlabs/ctxlab/internal/runner"
	"github.com/fyrsmithlabs/ctxlab/internal/workspace"
)

// Status is the outcome classification of the snapshot step.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result records the snapshot step outcome.
type Result struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
	// Output is the directory the snapshot tool wrote to, on success.
	Output string `json:"output,omitempty"`
	// Env is the environment input file passed to the tool, if any.
	Env string `json:"env,omitempty"`
	Log string `json:"log,omitempty"`
}

// Step invokes the external snapshot command.
type Step struct {
	root        string
	cfg         config.SnapshotConfig
	examplesDir string
	exec        *runner.Runner
	log         *logging.Logger
}

// New creates a snapshot step rooted at the repository root.
func New(root string, cfg config.SnapshotConfig, examplesDir string, exec *runner.Runner, log *logging.Logger) *Step {
	return &Step{
		root:        root,
		cfg:         cfg,
		examplesDir: examplesDir,
		exec:        exec,
		log:         log.Named("snapshot"),
	}
}

// Run executes the snapshot step, writing artifacts under outDir/snapshot.
func (s *Step) Run(ctx context.Context, outDir string) Result {
	ctx = logging.WithStep(ctx, "snapshot")

	command := filepath.Join(s.root, s.cfg.Command)
	if _, err := os.Stat(command); err != nil {
		s.log.Info(ctx, "snapshot command not found, skipping",
			zap.String("command", command),
		)
		return Result{
			Status: StatusSkipped,
			Reason: "snapshot command not found",
		}
	}

	snapshotDir := filepath.Join(outDir, workspace.SnapshotDir)
	logPath := filepath.Join(snapshotDir, "run.log")

	args := []string{"--out", snapshotDir}
	env := s.findEnvInput()
	if env != "" {
		args = append(args, "--env", env)
		s.log.Debug(ctx, "using environment input", zap.String("env", env))
	}

	gate := s.exec.Run(ctx, runner.GateSpec{
		Name:    "snapshot",
		Command: command,
		Args:    args,
		LogPath: logPath,
	})

	if !gate.Passed {
		return Result{
			Status: StatusFailed,
			Reason: gate.Reason,
			Env:    env,
			Log:    logPath,
		}
	}
	return Result{
		Status: StatusOK,
		Output: snapshotDir,
		Env:    env,
		Log:    logPath,
	}
}

// findEnvInput selects the lexicographically first matching input file from
// the examples directory, or "" when none matches.
func (s *Step) findEnvInput() string {
	entries, err := os.ReadDir(filepath.Join(s.root, s.examplesDir))
	if err != nil {
		return ""
	}

	// os.ReadDir returns entries sorted by name.
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, s.cfg.EnvPrefix) && strings.HasSuffix(name, ".json") {
			return filepath.Join(s.root, s.examplesDir, name)
		}
	}
	return ""
}
