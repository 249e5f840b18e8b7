// Package secrets provides secret detection and redaction for persisted
// gate logs, built on the Gitleaks SDK's default ruleset plus optional
// .gitleaks.toml allowlists.
package secrets

import "errors"

var (
	// ErrInvalidRegex indicates a regex pattern failed to compile.
	ErrInvalidRegex = errors.New("invalid regex pattern")

	// ErrInvalidTOML indicates a TOML allowlist could not be parsed.
	ErrInvalidTOML = errors.New("invalid TOML format")
)
