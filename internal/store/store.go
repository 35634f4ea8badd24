// Package store keeps a SQLite history of runs and their statistics.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sanspareilsmyn/timerlens/internal/stats"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Statistics views stored in timer_stats.kind.
const (
	viewTotal    = "total"
	viewFiltered = "filtered"
)

// timeLayout has a fixed width so stored timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run describes one finished pipeline run.
type Run struct {
	ID         string
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time
	Records    int
	Failures   int
}

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			records INTEGER NOT NULL,
			failures INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS timer_stats (
			run_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			count INTEGER NOT NULL,
			mean REAL NOT NULL,
			min INTEGER NOT NULL,
			max INTEGER NOT NULL,
			q10 INTEGER NOT NULL,
			q25 INTEGER NOT NULL,
			median INTEGER NOT NULL,
			q75 INTEGER NOT NULL,
			q90 INTEGER NOT NULL,
			total REAL NOT NULL,
			PRIMARY KEY (run_id, kind, name)
		);`,
		`CREATE TABLE IF NOT EXISTS group_stats (
			run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			chain TEXT NOT NULL,
			count INTEGER NOT NULL,
			mean REAL NOT NULL,
			min INTEGER NOT NULL,
			max INTEGER NOT NULL,
			q10 INTEGER NOT NULL,
			q25 INTEGER NOT NULL,
			median INTEGER NOT NULL,
			q75 INTEGER NOT NULL,
			q90 INTEGER NOT NULL,
			PRIMARY KEY (run_id, name, chain)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at);`,
		`CREATE INDEX IF NOT EXISTS idx_timer_stats_name ON timer_stats(name);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun stores a run together with all three statistics views.
func (s *Store) SaveRun(ctx context.Context, run Run, report stats.Report) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveRun, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("%w: %w", ErrSaveRun, err)
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, started_at, finished_at, records, failures)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Source,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.Records,
		run.Failures,
	)
	if err != nil {
		return err
	}

	if err = insertTimerStats(ctx, tx, run.ID, viewTotal, report.Total); err != nil {
		return err
	}
	if err = insertTimerStats(ctx, tx, run.ID, viewFiltered, report.Filtered); err != nil {
		return err
	}
	if err = insertGroupStats(ctx, tx, run.ID, report.PerGroup); err != nil {
		return err
	}

	return tx.Commit()
}

func insertTimerStats(ctx context.Context, tx *sql.Tx, runID, view string, rows []stats.TotalStatistics) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO timer_stats (run_id, kind, name, count, mean, min, max, q10, q25, median, q75, q90, total)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rows {
		args := append([]any{runID, view, r.Name}, summaryArgs(r.Summary)...)
		args = append(args, r.Total)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

func insertGroupStats(ctx context.Context, tx *sql.Tx, runID string, rows []stats.GroupStatistics) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO group_stats (run_id, name, chain, count, mean, min, max, q10, q25, median, q75, q90)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rows {
		args := append([]any{runID, r.Name, r.Chain}, summaryArgs(r.Summary)...)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// summaryArgs stores uint64 columns as int64; the bit pattern round-trips.
func summaryArgs(s stats.Summary) []any {
	return []any{
		s.Count,
		s.Mean,
		int64(s.Min),
		int64(s.Max),
		int64(s.Q10),
		int64(s.Q25),
		int64(s.Median),
		int64(s.Q75),
		int64(s.Q90),
	}
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, started_at, finished_at, records, failures
		 FROM runs ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryStore, err)
	}
	defer func() { _ = rows.Close() }()

	var result []Run
	for rows.Next() {
		var (
			run               Run
			started, finished string
		)
		if err := rows.Scan(&run.ID, &run.Source, &started, &finished, &run.Records, &run.Failures); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryStore, err)
		}
		if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryStore, err)
		}
		if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryStore, err)
		}
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryStore, err)
	}
	return result, nil
}

// LoadReport reads back the statistics stored for a run. Rows come back in
// the same order the engine produced them.
func (s *Store) LoadReport(ctx context.Context, runID string) (stats.Report, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return stats.Report{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return stats.Report{}, fmt.Errorf("%w: %w", ErrQueryStore, err)
	}

	var report stats.Report
	if report.Total, err = s.loadTimerStats(ctx, runID, viewTotal); err != nil {
		return stats.Report{}, err
	}
	if report.Filtered, err = s.loadTimerStats(ctx, runID, viewFiltered); err != nil {
		return stats.Report{}, err
	}
	if report.PerGroup, err = s.loadGroupStats(ctx, runID); err != nil {
		return stats.Report{}, err
	}
	return report, nil
}

func (s *Store) loadTimerStats(ctx context.Context, runID, view string) ([]stats.TotalStatistics, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, count, mean, min, max, q10, q25, median, q75, q90, total
		 FROM timer_stats WHERE run_id = ? AND kind = ? ORDER BY name`, runID, view)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryStore, err)
	}
	defer func() { _ = rows.Close() }()

	var result []stats.TotalStatistics
	for rows.Next() {
		var (
			row stats.TotalStatistics
			u   summaryColumns
		)
		dest := append([]any{&row.Name}, u.dest(&row.Summary)...)
		dest = append(dest, &row.Total)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryStore, err)
		}
		u.apply(&row.Summary)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryStore, err)
	}
	return result, nil
}

func (s *Store) loadGroupStats(ctx context.Context, runID string) ([]stats.GroupStatistics, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, chain, count, mean, min, max, q10, q25, median, q75, q90
		 FROM group_stats WHERE run_id = ? ORDER BY name, chain`, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryStore, err)
	}
	defer func() { _ = rows.Close() }()

	var result []stats.GroupStatistics
	for rows.Next() {
		var (
			row stats.GroupStatistics
			u   summaryColumns
		)
		dest := append([]any{&row.Name, &row.Chain}, u.dest(&row.Summary)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryStore, err)
		}
		u.apply(&row.Summary)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryStore, err)
	}
	return result, nil
}

// summaryColumns scans the int64 columns of a Summary before converting them back.
type summaryColumns struct {
	min, max, q10, q25, median, q75, q90 int64
}

func (c *summaryColumns) dest(s *stats.Summary) []any {
	return []any{&s.Count, &s.Mean, &c.min, &c.max, &c.q10, &c.q25, &c.median, &c.q75, &c.q90}
}

func (c *summaryColumns) apply(s *stats.Summary) {
	s.Min = uint64(c.min)
	s.Max = uint64(c.max)
	s.Q10 = uint64(c.q10)
	s.Q25 = uint64(c.q25)
	s.Median = uint64(c.median)
	s.Q75 = uint64(c.q75)
	s.Q90 = uint64(c.q90)
}
