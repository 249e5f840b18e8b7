package orchestrator

import (
	"time"

	"github.com/fyrsmithlabs/ctxlab/internal/baseline"
	"github.com/fyrsmithlabs/ctxlab/internal/restore"
	"github.com/fyrsmithlabs/ctxlab/internal/snapshot"
)

// RunRequest is created once from invocation arguments and stays immutable
// for the run.
type RunRequest struct {
	Query  string
	OutDir string
	Public bool
}

// RunStatus is the overall run outcome. Only gate failures set it to
// failed; snapshot and restore outcomes are informational.
type RunStatus string

const (
	RunOK     RunStatus = "ok"
	RunFailed RunStatus = "failed"
)

// RestoreResult condenses the restore summary for the run summary; the full
// match set lives in the context report files.
type RestoreResult struct {
	Status  restore.Status `json:"status"`
	Reason  string         `json:"reason,omitempty"`
	Query   string         `json:"query,omitempty"`
	Matches int            `json:"matches"`
}

// RunSummary is the machine-readable aggregation of one run, persisted to
// <outDir>/run_summary.json.
type RunSummary struct {
	RunID          string          `json:"run_id"`
	Root           string          `json:"root"`
	Branch         string          `json:"branch"`
	Commit         string          `json:"commit"`
	OutDir         string          `json:"out_dir"`
	Query          string          `json:"query"`
	Public         bool            `json:"public"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    time.Time       `json:"completed_at"`
	Snapshot       snapshot.Result `json:"snapshot"`
	ContextRestore RestoreResult   `json:"context_restore"`
	Baseline       baseline.Report `json:"baseline"`
	Status         RunStatus       `json:"status"`
}
