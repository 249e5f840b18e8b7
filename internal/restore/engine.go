package restore

import "database/sql"

// driverName is the database/sql driver the scan depends on. Registration
// happens in a build-tag-gated file, so the engine is a soft dependency:
// builds without it still work, the step just reports itself skipped.
const driverName = "sqlite"

// engineAvailable reports whether the SQLite driver is registered.
func engineAvailable() bool {
	for _, name := range sql.Drivers() {
		if name == driverName {
			return true
		}
	}
	return false
}
