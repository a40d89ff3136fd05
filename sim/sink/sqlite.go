package sink

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/inference-sim/schedule-sim/sim"
)

// SQLiteSink appends one row per run to a results table.
type SQLiteSink struct {
	db *sql.DB
}

// StoredResult is one row of the results table.
type StoredResult struct {
	RunID        uuid.UUID
	Architecture string
	Producer     string
	Seed         int64
	Steps        int64
	Makespan     int64
	Utilisation  float64
	// Bins holds per-bin mean makespans; nil marks an empty bin.
	Bins      []*float64
	Submitted int
	Completed int
	CreatedAt time.Time
}

// OpenSQLite opens or creates the results database at path.
func OpenSQLite(path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteSink{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate results db: %w", err)
	}
	return s, nil
}

func (s *SQLiteSink) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS results (
		run_id TEXT PRIMARY KEY,
		architecture TEXT NOT NULL,
		producer TEXT NOT NULL,
		seed INTEGER NOT NULL,
		steps INTEGER NOT NULL,
		makespan INTEGER NOT NULL,
		utilisation REAL NOT NULL,
		bins TEXT NOT NULL,
		submitted INTEGER NOT NULL,
		completed INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_results_architecture ON results(architecture, producer);
	`)
	return err
}

// Write inserts res. Every metric is stored whatever opts request, so
// later queries are not limited to what was printed.
func (s *SQLiteSink) Write(ctx context.Context, res *sim.Result, _ sim.OutputOptions) error {
	bins, err := json.MarshalToString(nullableBins(res.BinnedMakespans))
	if err != nil {
		return fmt.Errorf("encoding bins: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (run_id, architecture, producer, seed, steps, makespan, utilisation, bins, submitted, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID.String(), res.Architecture, res.Producer, res.Seed, res.Steps,
		res.Makespan, res.Utilisation, bins, res.TasksSubmitted, res.TasksCompleted, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert result %s: %w", res.RunID, err)
	}
	return nil
}

// Results returns the stored rows for architecture, oldest first. An empty
// architecture returns every row.
func (s *SQLiteSink) Results(ctx context.Context, architecture string) ([]StoredResult, error) {
	query := `SELECT run_id, architecture, producer, seed, steps, makespan, utilisation, bins, submitted, completed, created_at
		FROM results`
	var args []any
	if architecture != "" {
		query += ` WHERE architecture = ?`
		args = append(args, architecture)
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []StoredResult
	for rows.Next() {
		var r StoredResult
		var runID, bins string
		if err := rows.Scan(&runID, &r.Architecture, &r.Producer, &r.Seed, &r.Steps, &r.Makespan,
			&r.Utilisation, &bins, &r.Submitted, &r.Completed, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if r.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", runID, err)
		}
		if err := json.UnmarshalFromString(bins, &r.Bins); err != nil {
			return nil, fmt.Errorf("decode bins of %s: %w", runID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// nullableBins maps NaN, which JSON cannot carry, to null.
func nullableBins(bins []float64) []*float64 {
	out := make([]*float64, len(bins))
	for i, v := range bins {
		if !math.IsNaN(v) {
			out[i] = &v
		}
	}
	return out
}
