// Package orchestrator sequences the ctxlab run: snapshot, context restore,
// baseline gates. Steps run strictly in order and each step's artifacts are
// written before its result is inspected, so failure diagnosis never depends
// on re-running a step. The aggregated result is threaded back up as a
// single value; there is no process-wide mutable exit state.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ctxlab/internal/baseline"
	"github.com/fyrsmithlabs/ctxlab/internal/config"
	"github.com/fyrsmithlabs/ctxlab/internal/logging"
	"github.com/fyrsmithlabs/ctxlab/internal/restore"
	"github.com/fyrsmithlabs/ctxlab/internal/runner"
	"github.com/fyrsmithlabs/ctxlab/internal/snapshot"
	"github.com/fyrsmithlabs/ctxlab/internal/telemetry"
	"github.com/fyrsmithlabs/ctxlab/internal/workspace"
	"github.com/fyrsmithlabs/ctxlab/pkg/git"
	"github.com/fyrsmithlabs/ctxlab/pkg/secrets"
)

const summaryFile = "run_summary.json"

// Orchestrator wires the steps together for one repository root.
type Orchestrator struct {
	root     string
	cfg      *config.Config
	log      *logging.Logger
	tel      *telemetry.Telemetry
	runID    string
	gitInfo  git.Info
	snapshot *snapshot.Step
	restore  *restore.Service
	baseline *baseline.Runner
}

// New builds an orchestrator and its steps for the given repository root.
// tel may be nil; spans and counters then go to the global no-op providers.
func New(root string, cfg *config.Config, log *logging.Logger, tel *telemetry.Telemetry, runID string, gitInfo git.Info) *Orchestrator {
	var opts []runner.Option
	if cfg.Scrub.Enabled {
		opts = append(opts, runner.WithScrub(newLogScrubber(root, log)))
	}
	exec := runner.New(root, log, opts...)

	return &Orchestrator{
		root:     root,
		cfg:      cfg,
		log:      log.Named("orchestrator"),
		tel:      tel,
		runID:    runID,
		gitInfo:  gitInfo,
		snapshot: snapshot.New(root, cfg.Snapshot, cfg.Paths.ExamplesDir, exec, log),
		restore:  restore.New(root, cfg.Paths.MemoryDir, cfg.Restore, log),
		baseline: baseline.New(root, cfg.Baseline, exec, log),
	}
}

// Run executes the full sequence and persists the run summary.
//
// The summary is written before any error is returned. The only error this
// returns for a completed sequence is baseline.ErrGatesFailed (wrapped);
// snapshot and restore outcomes never gate the run.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*RunSummary, error) {
	ctx = logging.WithRunID(ctx, o.runID)

	tracer := o.tel.Tracer("ctxlab/orchestrator")
	ctx, span := tracer.Start(ctx, "run")
	defer span.End()

	if err := workspace.EnsureDir(req.OutDir); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	summary := &RunSummary{
		RunID:     o.runID,
		Root:      o.root,
		Branch:    o.gitInfo.Branch,
		Commit:    o.gitInfo.Commit,
		OutDir:    req.OutDir,
		Query:     req.Query,
		Public:    req.Public,
		StartedAt: time.Now(),
		Status:    RunOK,
	}

	o.log.Info(ctx, "starting run",
		zap.String("root", o.root),
		zap.String("branch", o.gitInfo.Branch),
		zap.String("commit", o.gitInfo.Commit),
		zap.String("out_dir", req.OutDir),
		zap.String("query", req.Query),
	)

	snapCtx, snapSpan := tracer.Start(ctx, "snapshot")
	summary.Snapshot = o.snapshot.Run(snapCtx, req.OutDir)
	snapSpan.End()

	// Context restore must complete before the gates run.
	restoreCtx, restoreSpan := tracer.Start(ctx, "restore")
	restoreSummary := o.restore.Restore(restoreCtx, req.OutDir, req.Query)
	restoreSpan.End()
	summary.ContextRestore = RestoreResult{
		Status:  restoreSummary.Status,
		Reason:  restoreSummary.Reason,
		Query:   restoreSummary.Query,
		Matches: len(restoreSummary.Matches),
	}

	gateCtx, gateSpan := tracer.Start(ctx, "baseline")
	summary.Baseline = o.baseline.Run(gateCtx, req.OutDir, req.Public)
	gateSpan.End()

	o.recordGateMetrics(ctx, summary.Baseline)

	if summary.Baseline.Failed() {
		summary.Status = RunFailed
	}
	summary.CompletedAt = time.Now()

	if err := o.writeSummary(ctx, req.OutDir, summary); err != nil {
		o.log.Warn(ctx, "failed to write run summary", zap.Error(err))
	}

	o.log.Info(ctx, "run complete",
		zap.String("status", string(summary.Status)),
		zap.Duration("elapsed", summary.CompletedAt.Sub(summary.StartedAt)),
	)

	if summary.Status == RunFailed {
		return summary, fmt.Errorf("run %s: %w", o.runID, baseline.ErrGatesFailed)
	}
	return summary, nil
}

// writeSummary persists the run summary at the output directory root.
func (o *Orchestrator) writeSummary(_ context.Context, outDir string, summary *RunSummary) error {
	encoded, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run summary: %w", err)
	}
	return os.WriteFile(filepath.Join(outDir, summaryFile), append(encoded, '\n'), 0o644)
}

// recordGateMetrics counts executed gates by name and outcome.
func (o *Orchestrator) recordGateMetrics(ctx context.Context, report baseline.Report) {
	meter := o.tel.Meter("ctxlab/orchestrator")
	counter, err := meter.Int64Counter("ctxlab.gates.total",
		metric.WithDescription("Baseline gates executed, by name and outcome"),
	)
	if err != nil {
		return
	}
	for _, gate := range report.Gates {
		counter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("gate", gate.Name),
			attribute.Bool("passed", gate.Passed),
		))
	}
}

// newLogScrubber adapts pkg/secrets redaction into the runner's scrub hook.
// Redaction failures leave the blob untouched rather than losing the log.
func newLogScrubber(root string, log *logging.Logger) runner.ScrubFunc {
	scrubLog := log.Named("scrub")
	return func(content string) string {
		result, err := secrets.Redact(content, secrets.RedactOptions{ProjectPath: root})
		if err != nil {
			scrubLog.Warn(context.Background(), "log redaction failed", zap.Error(err))
			return content
		}
		return result.Content
	}
}
