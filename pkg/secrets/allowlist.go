package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Allowlist contains path and content regex patterns excluded from secret
// detection.
type Allowlist struct {
	Paths   []string // file path regex patterns to ignore
	Regexes []string // content regex patterns to ignore
}

// LoadAllowlists loads and merges project and user allowlists (union).
// Missing files are silently ignored; invalid TOML or regex patterns are
// errors.
//
// projectPath: directory containing .gitleaks.toml ("" to skip)
// userPath: full path to a user allowlist TOML file ("" to skip)
func LoadAllowlists(projectPath, userPath string) (*Allowlist, error) {
	merged := &Allowlist{
		Paths:   []string{},
		Regexes: []string{},
	}

	paths := []string{}
	if projectPath != "" {
		paths = append(paths, filepath.Join(projectPath, ".gitleaks.toml"))
	}
	if userPath != "" {
		paths = append(paths, userPath)
	}

	for _, path := range paths {
		loaded, err := loadTOML(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		merged.Paths = append(merged.Paths, loaded.Paths...)
		merged.Regexes = append(merged.Regexes, loaded.Regexes...)
	}

	return merged, nil
}

// loadTOML loads and validates a single allowlist file.
func loadTOML(path string) (*Allowlist, error) {
	var config struct {
		Allowlist struct {
			Paths   []string
			Regexes []string
		}
	}

	if _, err := os.Stat(path); err != nil {
		return nil, err // os.IsNotExist can identify this
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTOML, path, err)
	}

	// Fail fast on bad patterns so they don't surface later inside the
	// detector.
	for _, pattern := range config.Allowlist.Paths {
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("%w: invalid path pattern '%s' in %s: %v",
				ErrInvalidRegex, pattern, path, err)
		}
	}
	for _, pattern := range config.Allowlist.Regexes {
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("%w: invalid content pattern '%s' in %s: %v",
				ErrInvalidRegex, pattern, path, err)
		}
	}

	return &Allowlist{
		Paths:   config.Allowlist.Paths,
		Regexes: config.Allowlist.Regexes,
	}, nil
}
