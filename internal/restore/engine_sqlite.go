//go:build !nosqlite

package restore

// Registers the pure-Go SQLite driver. Build with -tags nosqlite to drop it;
// the restore step then skips with "sqlite engine unavailable".
import _ "modernc.org/sqlite"
