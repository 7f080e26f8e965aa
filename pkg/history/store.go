package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sprinkler-go/sprinkler-go/pkg/schedule"
)

// Run sources.
const (
	SourceCycle    = "cycle"
	SourceManual   = "manual"
	SourceSchedule = "schedule"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// History errors.
var (
	ErrRunNotFound = errors.New("run not found")
)

// Run is one recorded watering run.
type Run struct {
	ID          string          `json:"id"`
	Cycle       string          `json:"cycle,omitempty"`
	Source      string          `json:"source"`
	Status      string          `json:"status"`
	Adjustment  int             `json:"adj"`
	Items       []schedule.Item `json:"items"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Store provides SQLite persistence for runs.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens the database at dbPath. Use ":memory:" for an in-memory
// database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		cycle TEXT,
		source TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		adjustment INTEGER NOT NULL DEFAULT 100,
		items_json TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Start records a new run.
func (s *Store) Start(run *Run) error {
	items, err := json.Marshal(run.Items)
	if err != nil {
		return err
	}
	if run.Status == "" {
		run.Status = StatusRunning
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO runs (id, cycle, source, status, adjustment, items_json, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, nullString(run.Cycle), run.Source, run.Status, run.Adjustment, string(items), run.StartedAt.UTC())
	return err
}

// Finish sets the final status of a run.
func (s *Store) Finish(id, status string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE runs SET status = ?, completed_at = ? WHERE id = ?
	`, status, at.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// FinishRunning sets status on every run still marked running, e.g. after
// a cancel or at startup. It returns the number of runs updated.
func (s *Store) FinishRunning(status string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE runs SET status = ?, completed_at = ? WHERE status = ?
	`, status, at.UTC(), StatusRunning)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Get returns a run by ID.
func (s *Store) Get(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, cycle, source, status, adjustment, items_json, started_at, completed_at
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// List returns the most recent runs, newest first. limit <= 0 means 50.
func (s *Store) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, cycle, source, status, adjustment, items_json, started_at, completed_at
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Prune deletes runs started before cutoff and returns how many were removed.
func (s *Store) Prune(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var run Run
	var cycleName sql.NullString
	var items string
	var completedAt sql.NullTime

	if err := sc.Scan(&run.ID, &cycleName, &run.Source, &run.Status, &run.Adjustment,
		&items, &run.StartedAt, &completedAt); err != nil {
		return nil, err
	}
	if cycleName.Valid {
		run.Cycle = cycleName.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if err := json.Unmarshal([]byte(items), &run.Items); err != nil {
		return nil, fmt.Errorf("run %s: %w", run.ID, err)
	}
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
