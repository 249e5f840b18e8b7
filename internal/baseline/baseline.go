// Package baseline runs the fixed validation gate sequence: validate, test,
// and conditionally smoke. Gates never short-circuit; a failing validate
// still lets test run so every log file exists for diagnosis. The aggregate
// is a logical AND over the gates that executed.
package baseline

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ctxlab/internal/config"
	"github.com/fyrsmithlabs/ctxlab/internal/logging"
	"github.com/fyrsmithlabs/ctxlab/internal/manifest"
	"github.com/fyrsmithlabs/ctxlab/internal/runner"
	"github.com/fyrsmithlabs/ctxlab/internal/workspace"
)

// ErrGatesFailed is the sentinel surfaced once at top level when any
// executed gate failed. The orchestrator maps it to exit status 1.
var ErrGatesFailed = errors.New("baseline gates failed")

// Status is the aggregate gate outcome.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Report records every executed gate and the aggregate outcome.
type Report struct {
	Status       Status              `json:"status"`
	Gates        []runner.GateResult `json:"gates"`
	SmokeSkipped bool                `json:"smoke_skipped"`
	SmokeReason  string              `json:"smoke_reason,omitempty"`
}

// Failed reports whether any executed gate failed.
func (r Report) Failed() bool {
	return r.Status == StatusFailed
}

// Runner sequences the baseline gates.
type Runner struct {
	root string
	cfg  config.BaselineConfig
	exec *runner.Runner
	log  *logging.Logger
}

// New creates a baseline runner rooted at the repository root.
func New(root string, cfg config.BaselineConfig, exec *runner.Runner, log *logging.Logger) *Runner {
	return &Runner{
		root: root,
		cfg:  cfg,
		exec: exec,
		log:  log.Named("baseline"),
	}
}

// Run executes the gates in fixed order, logging each to its own file under
// outDir/baseline. When smoke does not apply, no smoke log file is created.
func (b *Runner) Run(ctx context.Context, outDir string, public bool) Report {
	ctx = logging.WithStep(ctx, "baseline")
	baselineDir := filepath.Join(outDir, workspace.BaselineDir)

	report := Report{Status: StatusOK}

	gates := []struct {
		name    string
		command []string
		logName string
	}{
		{"validate", b.cfg.ValidateCommand, "validate.txt"},
		{"test", b.cfg.TestCommand, "test.txt"},
	}

	if smoke, reason := b.smokeApplies(public); smoke {
		gates = append(gates, struct {
			name    string
			command []string
			logName string
		}{"smoke", b.cfg.SmokeCommand, "smoke.txt"})
	} else {
		report.SmokeSkipped = true
		report.SmokeReason = reason
		b.log.Info(ctx, "smoke gate skipped", zap.String("reason", reason))
	}

	for _, gate := range gates {
		result := b.exec.Run(ctx, runner.GateSpec{
			Name:    gate.name,
			Command: gate.command[0],
			Args:    gate.command[1:],
			LogPath: filepath.Join(baselineDir, gate.logName),
		})
		report.Gates = append(report.Gates, result)
		if !result.Passed {
			report.Status = StatusFailed
		}
	}

	return report
}

// smokeApplies decides whether the smoke gate runs: explicitly requested via
// public mode, or the CI workflow exists and the manifest declares the smoke
// script. An unreadable manifest means the condition is false.
func (b *Runner) smokeApplies(public bool) (bool, string) {
	if public {
		return true, ""
	}
	if _, err := os.Stat(filepath.Join(b.root, b.cfg.CIConfig)); err != nil {
		return false, "no CI workflow configured"
	}
	if !manifest.HasScript(b.root, b.cfg.SmokeScript) {
		return false, "manifest declares no smoke script"
	}
	return true, ""
}
