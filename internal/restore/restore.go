// Package restore scans local memory databases for rows matching a query and
// reports them in machine- and human-readable form.
//
// The scan is deliberately shallow: every table of every *.sqlite file in
// the memory directory, newest rows first, substring-matched against the
// JSON serialization of each row. Missing files and a missing SQLite engine
// are soft skips; the step never fails the run.
package restore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ctxlab/internal/config"
	"github.com/fyrsmithlabs/ctxlab/internal/logging"
)

// Status is the outcome classification of the restore step.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
)

// MatchRecord is one row whose serialized form contained the query.
// Never mutated after creation; persisted verbatim into the context report.
type MatchRecord struct {
	SourceFile string         `json:"source_file"`
	Table      string         `json:"table"`
	Row        map[string]any `json:"row"`
}

// Summary is the restore step result handed back to the orchestrator.
type Summary struct {
	Status  Status        `json:"status"`
	Reason  string        `json:"reason,omitempty"`
	Query   string        `json:"query,omitempty"`
	Matches []MatchRecord `json:"matches,omitempty"`
}

// Service performs the context-restore scan.
type Service struct {
	root      string
	memoryDir string
	cfg       config.RestoreConfig
	log       *logging.Logger

	// engineOK reports driver availability; overridable in tests.
	engineOK func() bool
}

// New creates a restore service scanning <root>/<memoryDir>.
func New(root, memoryDir string, cfg config.RestoreConfig, log *logging.Logger) *Service {
	return &Service{
		root:      root,
		memoryDir: memoryDir,
		cfg:       cfg,
		log:       log.Named("restore"),
		engineOK:  engineAvailable,
	}
}

// Restore scans the memory databases and writes both reports under
// outDir/context before returning. Reports are written in every outcome,
// including skips and zero matches.
func (s *Service) Restore(ctx context.Context, outDir, query string) Summary {
	ctx = logging.WithStep(ctx, "restore")

	files := s.listDatabases()
	if len(files) == 0 {
		reason := "no files detected"
		s.log.Info(ctx, "skipping context restore", zap.String("reason", reason))
		s.writeSkipReports(ctx, outDir, reason)
		return Summary{Status: StatusSkipped, Reason: reason}
	}

	if !s.engineOK() {
		reason := "sqlite engine unavailable"
		s.log.Warn(ctx, "skipping context restore", zap.String("reason", reason))
		s.writeSkipReports(ctx, outDir, reason)
		return Summary{Status: StatusSkipped, Reason: reason}
	}

	matches := s.scan(ctx, files, query)
	s.log.Info(ctx, "context restore complete",
		zap.String("query", query),
		zap.Int("files", len(files)),
		zap.Int("matches", len(matches)),
	)

	s.writeReports(ctx, outDir, query, matches)
	return Summary{Status: StatusOK, Query: query, Matches: matches}
}

// listDatabases returns *.sqlite files (case-insensitive extension) in the
// memory directory, in listing order. A missing directory yields none.
func (s *Service) listDatabases() []string {
	dir := filepath.Join(s.root, s.memoryDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".sqlite") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files
}

// scan walks files, tables, and rows in order, collecting rows whose
// lowercased JSON serialization contains the lowercased query. The empty
// query matches everything. Collection stops as soon as MaxMatches rows have
// been gathered; the cap is global across files and tables.
func (s *Service) scan(ctx context.Context, files []string, query string) []MatchRecord {
	needle := strings.ToLower(query)
	matches := make([]MatchRecord, 0, s.cfg.MaxMatches)

	for _, file := range files {
		if len(matches) >= s.cfg.MaxMatches {
			break
		}
		s.scanFile(ctx, file, needle, &matches)
	}
	return matches
}

func (s *Service) scanFile(ctx context.Context, file, needle string, matches *[]MatchRecord) {
	db, err := sql.Open(driverName, "file:"+file+"?mode=ro")
	if err != nil {
		s.log.Warn(ctx, "failed to open database", zap.String("file", file), zap.Error(err))
		return
	}
	defer db.Close()

	tables, err := listTables(ctx, db)
	if err != nil {
		s.log.Warn(ctx, "failed to list tables", zap.String("file", file), zap.Error(err))
		return
	}

	source := filepath.Base(file)
	for _, table := range tables {
		if len(*matches) >= s.cfg.MaxMatches {
			return
		}
		if err := s.scanTable(ctx, db, source, table, needle, matches); err != nil {
			s.log.Warn(ctx, "failed to scan table",
				zap.String("file", file),
				zap.String("table", table),
				zap.Error(err),
			)
		}
	}
}

// listTables enumerates table names from the system catalog, in catalog
// order.
func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// scanTable reads up to RowsPerTable most-recently-inserted rows and appends
// the ones matching needle.
func (s *Service) scanTable(ctx context.Context, db *sql.DB, source, table, needle string, matches *[]MatchRecord) error {
	quoted := `"` + strings.ReplaceAll(table, `"`, `""`) + `"`

	// Native insertion order, newest first. WITHOUT ROWID tables reject the
	// rowid ordering; fall back to an unordered read.
	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT * FROM %s ORDER BY rowid DESC LIMIT %d", quoted, s.cfg.RowsPerTable))
	if err != nil {
		rows, err = db.QueryContext(ctx,
			fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoted, s.cfg.RowsPerTable))
		if err != nil {
			return err
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	for rows.Next() {
		if len(*matches) >= s.cfg.MaxMatches {
			return nil
		}

		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}

		serialized, err := json.Marshal(row)
		if err != nil {
			continue
		}
		if needle == "" || strings.Contains(strings.ToLower(string(serialized)), needle) {
			*matches = append(*matches, MatchRecord{
				SourceFile: source,
				Table:      table,
				Row:        row,
			})
		}
	}
	return rows.Err()
}

// normalizeValue makes driver values JSON-friendly. BLOB/text columns come
// back as []byte; everything else passes through.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
