// Package manifest probes the project manifest (package.json) for declared
// scripts. A missing or unparsable manifest is never an error here; callers
// treat it as "script not declared".
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// manifestFile is the project manifest consulted for script declarations.
const manifestFile = "package.json"

// HasScript reports whether <root>/package.json declares the named script.
// Returns false on any read or parse failure.
func HasScript(root, name string) bool {
	content, err := os.ReadFile(filepath.Join(root, manifestFile))
	if err != nil {
		return false
	}

	var pkg struct {
		Scripts map[string]string `json:"scripts"`
	}
	if err := json.Unmarshal(content, &pkg); err != nil {
		return false
	}

	_, ok := pkg.Scripts[name]
	return ok
}
