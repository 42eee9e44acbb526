// Package sqlite persists terrain estimation runs: the tuning used, summary
// statistics, and compressed copies of the grid layers, in a CGo-free
// sqlite database.
package sqlite

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run is one persisted estimation: input shape, tuning, and outcome summary.
type Run struct {
	RunID            string          `json:"run_id"`
	CreatedUnixNanos int64           `json:"created_unix_nanos"`
	SourcePath       string          `json:"source_path,omitempty"`
	Rows             int             `json:"rows"`
	Cols             int             `json:"cols"`
	Resolution       float64         `json:"resolution"`
	OutputLayer      string          `json:"output_layer"`
	ParamsJSON       json.RawMessage `json:"params_json"`
	CellsScored      int             `json:"cells_scored"`
	CellsUnknown     int             `json:"cells_unknown"`
	ProcessingTimeUs int64           `json:"processing_time_us"`
	StatsJSON        json.RawMessage `json:"stats_json,omitempty"`
}

// Store provides persistence for estimation runs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a run store at path and applies any
// pending schema migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for read-only consumers (monitor server).
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// Not closing m: that would close the shared DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// InsertRun persists a run. If RunID is empty a UUID is generated; if
// CreatedUnixNanos is zero the current time is used.
func (s *Store) InsertRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedUnixNanos == 0 {
		run.CreatedUnixNanos = time.Now().UnixNano()
	}

	var statsStr interface{}
	if len(run.StatsJSON) > 0 {
		statsStr = string(run.StatsJSON)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO terrain_runs (
				run_id, created_unix_nanos, source_path, rows, cols, resolution,
				output_layer, params_json, cells_scored, cells_unknown,
				processing_time_us, stats_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.CreatedUnixNanos, run.SourcePath, run.Rows, run.Cols,
			run.Resolution, run.OutputLayer, string(run.ParamsJSON),
			run.CellsScored, run.CellsUnknown, run.ProcessingTimeUs, statsStr,
		)
		return err
	})
}

// GetRun returns a single run by ID.
func (s *Store) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, created_unix_nanos, source_path, rows, cols, resolution,
		       output_layer, params_json, cells_scored, cells_unknown,
		       processing_time_us, stats_json
		FROM terrain_runs
		WHERE run_id = ?`, runID)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT run_id, created_unix_nanos, source_path, rows, cols, resolution,
		       output_layer, params_json, cells_scored, cells_unknown,
		       processing_time_us, stats_json
		FROM terrain_runs
		ORDER BY created_unix_nanos DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var sourcePath, paramsStr sql.NullString
	var statsStr sql.NullString
	err := row.Scan(
		&r.RunID, &r.CreatedUnixNanos, &sourcePath, &r.Rows, &r.Cols,
		&r.Resolution, &r.OutputLayer, &paramsStr, &r.CellsScored,
		&r.CellsUnknown, &r.ProcessingTimeUs, &statsStr,
	)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.SourcePath = sourcePath.String
	if paramsStr.Valid {
		r.ParamsJSON = json.RawMessage(paramsStr.String)
	}
	if statsStr.Valid {
		r.StatsJSON = json.RawMessage(statsStr.String)
	}
	return &r, nil
}

// retryOnBusy retries a write a few times when sqlite reports the database
// is locked by another connection.
func retryOnBusy(fn func() error) error {
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 20 * time.Millisecond)
	}
	return err
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
