package restore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ctxlab/internal/workspace"
)

const (
	jsonReportName = "context_restore.json"
	mdReportName   = "context_restore.md"
)

// okReport is the machine-readable report for a completed scan.
// Matches is always present, even when empty.
type okReport struct {
	Status  Status        `json:"status"`
	Query   string        `json:"query"`
	Matches []MatchRecord `json:"matches"`
}

// skipReport is the machine-readable report for a skipped scan.
// It carries no matches field.
type skipReport struct {
	Status Status `json:"status"`
	Reason string `json:"reason"`
}

// writeReports persists the JSON and Markdown reports for a completed scan.
func (s *Service) writeReports(ctx context.Context, outDir, query string, matches []MatchRecord) {
	report := okReport{
		Status:  StatusOK,
		Query:   query,
		Matches: matches,
	}
	if report.Matches == nil {
		report.Matches = []MatchRecord{}
	}
	s.persist(ctx, outDir, report, renderMarkdown(query, matches))
}

// writeSkipReports persists the JSON and Markdown skip reports.
func (s *Service) writeSkipReports(ctx context.Context, outDir, reason string) {
	report := skipReport{
		Status: StatusSkipped,
		Reason: reason,
	}
	md := fmt.Sprintf("# Context Restore\n\nSkipped: %s\n", reason)
	s.persist(ctx, outDir, report, md)
}

func (s *Service) persist(ctx context.Context, outDir string, report any, markdown string) {
	dir := filepath.Join(outDir, workspace.ContextDir)
	if err := workspace.EnsureDir(dir); err != nil {
		s.log.Warn(ctx, "failed to create context directory", zap.String("dir", dir), zap.Error(err))
		return
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		s.log.Warn(ctx, "failed to encode context report", zap.Error(err))
		return
	}
	if err := os.WriteFile(filepath.Join(dir, jsonReportName), append(encoded, '\n'), 0o644); err != nil {
		s.log.Warn(ctx, "failed to write context report", zap.Error(err))
	}
	if err := os.WriteFile(filepath.Join(dir, mdReportName), []byte(markdown), 0o644); err != nil {
		s.log.Warn(ctx, "failed to write context report", zap.Error(err))
	}
}

// renderMarkdown renders one heading and fenced JSON block per match.
func renderMarkdown(query string, matches []MatchRecord) string {
	var b strings.Builder
	b.WriteString("# Context Restore\n\n")
	fmt.Fprintf(&b, "Query: `%s`\n\n", query)
	fmt.Fprintf(&b, "Matches: %d\n", len(matches))

	if len(matches) == 0 {
		b.WriteString("\nNo matches found.\n")
		return b.String()
	}

	for _, match := range matches {
		fmt.Fprintf(&b, "\n### %s :: %s\n\n", match.SourceFile, match.Table)
		row, err := json.MarshalIndent(match.Row, "", "  ")
		if err != nil {
			row = []byte("{}")
		}
		fmt.Fprintf(&b, "```json\n%s\n```\n", row)
	}
	return b.String()
}
