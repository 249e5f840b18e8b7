package secrets

import (
	"regexp"

	gitleaksConfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	gitleaksRegexp "github.com/zricethezav/gitleaks/v8/regexp"
)

// Finding represents a detected secret with location information.
type Finding struct {
	RuleID   string // Gitleaks rule ID (e.g., "github-pat")
	RuleDesc string // human-readable description
	Line     int    // line number where the secret was found
	StartCol int    // start column
	EndCol   int    // end column
	Match    string // the actual secret value
}

// Detect scans content for secrets using the Gitleaks SDK's default config.
// allowlist may be nil.
func Detect(content string, allowlist *Allowlist) ([]Finding, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, err
	}

	if allowlist != nil {
		applyAllowlist(&detector.Config, allowlist)
	}

	gitleaksFindings := detector.DetectString(content)

	result := make([]Finding, 0, len(gitleaksFindings))
	for _, f := range gitleaksFindings {
		result = append(result, Finding{
			RuleID:   f.RuleID,
			RuleDesc: f.Description,
			Line:     f.StartLine,
			StartCol: f.StartColumn,
			EndCol:   f.EndColumn,
			Match:    f.Secret,
		})
	}

	return result, nil
}

// applyAllowlist merges allowlist patterns into the Gitleaks config.
// Patterns were validated at load time; a compile failure here is a bug.
func applyAllowlist(cfg *gitleaksConfig.Config, allowlist *Allowlist) {
	global := &gitleaksConfig.Allowlist{
		Description: "ctxlab project/user allowlist",
	}

	for _, pattern := range allowlist.Paths {
		re, err := regexp.Compile(pattern)
		if err != nil {
			panic("BUG: pre-validated regex pattern failed to compile: " + pattern + ": " + err.Error())
		}
		global.Paths = append(global.Paths, (*gitleaksRegexp.Regexp)(re))
	}

	for _, pattern := range allowlist.Regexes {
		re, err := regexp.Compile(pattern)
		if err != nil {
			panic("BUG: pre-validated regex pattern failed to compile: " + pattern + ": " + err.Error())
		}
		global.Regexes = append(global.Regexes, (*gitleaksRegexp.Regexp)(re))
	}

	global.StopWords = append(global.StopWords, allowlist.Regexes...)

	cfg.Allowlists = append(cfg.Allowlists, global)
}
