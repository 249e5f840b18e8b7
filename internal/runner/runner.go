// Package runner invokes external commands for ctxlab steps.
//
// Every invocation is synchronous, runs with the working directory fixed to
// the repository root, mirrors the child's stdout/stderr to the parent's own
// streams, and persists the combined output (stdout first, then stderr) to a
// per-invocation log file. The log file is written even when the command
// fails to spawn, so failure diagnosis never depends on re-running a gate.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ctxlab/internal/config"
	"github.com/fyrsmithlabs/ctxlab/internal/logging"
)

// GateSpec describes one external command invocation.
type GateSpec struct {
	// Name identifies the invocation in logs ("validate", "test", ...).
	Name string
	// Command and Args are passed to the OS verbatim; no shell involved.
	Command string
	Args    []string
	// LogPath receives the combined child output. Parent directories are
	// created as needed.
	LogPath string
}

// GateResult reduces an invocation to pass/fail plus diagnostics.
type GateResult struct {
	Name     string          `json:"name"`
	Passed   bool            `json:"passed"`
	ExitCode int             `json:"exit_code"`
	LogPath  string          `json:"log_path"`
	Reason   string          `json:"reason,omitempty"`
	Duration config.Duration `json:"duration"`
}

// ScrubFunc redacts secrets from a log blob before it is persisted.
// The console echo and exit semantics are unaffected.
type ScrubFunc func(content string) string

// Runner executes gate commands from a fixed working directory.
type Runner struct {
	dir    string
	log    *logging.Logger
	scrub  ScrubFunc
	stdout io.Writer
	stderr io.Writer
}

// Option configures a Runner.
type Option func(*Runner)

// WithScrub enables secret redaction of persisted logs.
func WithScrub(scrub ScrubFunc) Option {
	return func(r *Runner) {
		r.scrub = scrub
	}
}

// WithStreams overrides the console echo destinations (for tests).
func WithStreams(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// New creates a Runner that executes commands with dir as working directory.
func New(dir string, log *logging.Logger, opts ...Option) *Runner {
	r := &Runner{
		dir:    dir,
		log:    log.Named("runner"),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run invokes the command described by spec and blocks until it exits.
//
// There is no timeout and no retry; ctx is plumbed for future cancellation
// but a hung child blocks the run. The child's stdout is echoed to this
// process's stdout and its stderr to stderr, keeping the streams separated
// on the console; only the persisted log file merges them.
func (r *Runner) Run(ctx context.Context, spec GateSpec) GateResult {
	result := GateResult{
		Name:    spec.Name,
		LogPath: spec.LogPath,
	}

	r.log.Info(ctx, "running gate",
		zap.String("gate", spec.Name),
		zap.String("command", spec.Command),
		zap.Strings("args", spec.Args),
	)

	var outBuf, errBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	cmd.Dir = r.dir
	cmd.Stdout = io.MultiWriter(r.stdout, &outBuf)
	cmd.Stderr = io.MultiWriter(r.stderr, &errBuf)

	start := time.Now()
	runErr := cmd.Run()
	result.Duration = config.Duration(time.Since(start))

	// Persist the log before inspecting the outcome.
	if err := r.writeLog(spec.LogPath, &outBuf, &errBuf); err != nil {
		r.log.Warn(ctx, "failed to write gate log",
			zap.String("gate", spec.Name),
			zap.String("path", spec.LogPath),
			zap.Error(err),
		)
	}

	switch {
	case runErr == nil:
		result.Passed = true
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			result.Reason = fmt.Sprintf("exit status %d", exitErr.ExitCode())
		} else {
			result.ExitCode = -1
			result.Reason = fmt.Sprintf("spawn: %v", runErr)
		}
	}

	r.log.Info(ctx, "gate finished",
		zap.String("gate", spec.Name),
		zap.Bool("passed", result.Passed),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration.Duration()),
	)

	return result
}

// writeLog persists combined output, stdout bytes first.
func (r *Runner) writeLog(path string, outBuf, errBuf *bytes.Buffer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	blob := outBuf.String() + errBuf.String()
	if r.scrub != nil {
		blob = r.scrub(blob)
	}

	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		return fmt.Errorf("writing log file: %w", err)
	}
	return nil
}
