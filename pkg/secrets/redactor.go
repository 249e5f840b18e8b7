package secrets

import (
	"fmt"
	"sort"
	"strings"
)

// RedactOptions configures the redaction operation.
type RedactOptions struct {
	ProjectPath string // directory containing .gitleaks.toml ("" to skip)
	UserPath    string // path to a user allowlist TOML file ("" to skip)
}

// RedactResult contains redacted content and a findings count.
type RedactResult struct {
	Content       string
	FindingsCount int
}

// Redact detects and redacts secrets from content, replacing each with a
// [REDACTED:rule-id] marker. Markers keep the surrounding log text intact
// so redacted gate logs stay readable.
func Redact(content string, opts RedactOptions) (RedactResult, error) {
	allowlist, err := LoadAllowlists(opts.ProjectPath, opts.UserPath)
	if err != nil {
		return RedactResult{}, fmt.Errorf("loading allowlists: %w", err)
	}

	findings, err := Detect(content, allowlist)
	if err != nil {
		return RedactResult{}, fmt.Errorf("detecting secrets: %w", err)
	}

	if len(findings) == 0 {
		return RedactResult{Content: content}, nil
	}

	return RedactResult{
		Content:       replaceFindings(content, findings),
		FindingsCount: len(findings),
	}, nil
}

// replaceFindings replaces secrets with redaction markers, working backwards
// through the findings so earlier positions stay valid.
func replaceFindings(content string, findings []Finding) string {
	sorted := make([]Finding, len(findings))
	copy(sorted, findings)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Line != sorted[j].Line {
			return sorted[i].Line > sorted[j].Line
		}
		return sorted[i].StartCol > sorted[j].StartCol
	})

	lines := strings.Split(content, "\n")

	for _, finding := range sorted {
		if finding.Line < 1 || finding.Line > len(lines) {
			continue
		}

		line := lines[finding.Line-1]
		marker := fmt.Sprintf("[REDACTED:%s]", finding.RuleID)

		if finding.StartCol >= 0 && finding.EndCol <= len(line) && finding.StartCol < finding.EndCol {
			lines[finding.Line-1] = line[:finding.StartCol] + marker + line[finding.EndCol:]
		}
	}

	return strings.Join(lines, "\n")
}
