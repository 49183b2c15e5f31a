// Package history archives analysis runs in a SQLite database so past
// distribution tables and transition matrices stay queryable after the
// output files have been overwritten.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/meredith/turnwise/internal/outcome"
)

//go:embed schema.sql
var schemaSQL string

// Run is one archived analysis invocation.
type Run struct {
	ID              string
	InputDir        string
	StartedAt       time.Time
	FinishedAt      time.Time
	SourceFiles     int
	SkippedFiles    int
	SequenceCount   int
	TransitionCount int
	RowCount        int
}

// Store manages the SQLite run archive.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the history database at dbPath and
// applies the schema. ":memory:" is accepted for tests.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// busy_timeout first so the rest waits on locks instead of failing.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry retries a statement with exponential backoff on SQLite lock
// contention; anything else fails immediately.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun archives one completed analysis: the run header, its
// distribution rows, and every transition cell, in a single transaction. The
// run's ID is generated here and returned.
func (s *Store) RecordRun(ctx context.Context, run Run, rows []outcome.DistributionRow, matrices map[string]outcome.TransitionMatrix) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.RowCount = len(rows)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin run transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, input_dir, started_at, finished_at, source_files, skipped_files, sequence_count, transition_count, row_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.InputDir, run.StartedAt, run.FinishedAt,
		run.SourceFiles, run.SkippedFiles, run.SequenceCount, run.TransitionCount, run.RowCount)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, row := range rows {
		pcts := make([]sql.NullFloat64, outcome.NumLabels)
		if row.HasPcts {
			for i, p := range row.Pcts {
				pcts[i] = sql.NullFloat64{Float64: p, Valid: true}
			}
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO distribution_rows
			(run_id, model, domain, source, n,
			 count_fabrication, count_admission, count_silent_refusal, count_null,
			 pct_fabrication, pct_admission, pct_silent_refusal, pct_null)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, row.Model, row.Domain, row.Source, row.N,
			row.Counts[0], row.Counts[1], row.Counts[2], row.Counts[3],
			pcts[0], pcts[1], pcts[2], pcts[3])
		if err != nil {
			return "", fmt.Errorf("insert distribution row: %w", err)
		}
	}

	for model, m := range matrices {
		for row, from := range outcome.Labels() {
			for col, to := range outcome.Labels() {
				_, err = tx.ExecContext(ctx, `INSERT INTO transition_cells
					(run_id, model, from_label, to_label, count, probability)
					VALUES (?, ?, ?, ?, ?, ?)`,
					run.ID, model, string(from), string(to), m.Counts[row][col], m.Probs[row][col])
				if err != nil {
					return "", fmt.Errorf("insert transition cell: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns archived runs, newest first, up to limit (0 = all).
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, input_dir, started_at, finished_at, source_files, skipped_files, sequence_count, transition_count, row_count
		FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	result, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer result.Close()

	var runs []Run
	for result.Next() {
		var run Run
		err := result.Scan(&run.ID, &run.InputDir, &run.StartedAt, &run.FinishedAt,
			&run.SourceFiles, &run.SkippedFiles, &run.SequenceCount, &run.TransitionCount, &run.RowCount)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, result.Err()
}

// GetRun returns one run's header and its archived distribution rows.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, []outcome.DistributionRow, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `SELECT id, input_dir, started_at, finished_at, source_files, skipped_files, sequence_count, transition_count, row_count
		FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &run.InputDir, &run.StartedAt, &run.FinishedAt,
			&run.SourceFiles, &run.SkippedFiles, &run.SequenceCount, &run.TransitionCount, &run.RowCount)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get run: %w", err)
	}

	result, err := s.db.QueryContext(ctx, `SELECT model, domain, source, n,
			count_fabrication, count_admission, count_silent_refusal, count_null,
			pct_fabrication, pct_admission, pct_silent_refusal, pct_null
		FROM distribution_rows WHERE run_id = ? ORDER BY model, domain, source`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get run rows: %w", err)
	}
	defer result.Close()

	var rows []outcome.DistributionRow
	for result.Next() {
		var row outcome.DistributionRow
		pcts := make([]sql.NullFloat64, outcome.NumLabels)
		err := result.Scan(&row.Model, &row.Domain, &row.Source, &row.N,
			&row.Counts[0], &row.Counts[1], &row.Counts[2], &row.Counts[3],
			&pcts[0], &pcts[1], &pcts[2], &pcts[3])
		if err != nil {
			return nil, nil, fmt.Errorf("scan distribution row: %w", err)
		}
		row.HasPcts = pcts[0].Valid
		for i, p := range pcts {
			if p.Valid {
				row.Pcts[i] = p.Float64
			}
		}
		rows = append(rows, row)
	}
	return &run, rows, result.Err()
}

// GetTransitions returns one run's archived matrices keyed by model.
func (s *Store) GetTransitions(ctx context.Context, id string) (map[string]outcome.TransitionMatrix, error) {
	result, err := s.db.QueryContext(ctx, `SELECT model, from_label, to_label, count, probability
		FROM transition_cells WHERE run_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get run transitions: %w", err)
	}
	defer result.Close()

	matrices := make(map[string]outcome.TransitionMatrix)
	for result.Next() {
		var model, from, to string
		var count int
		var prob float64
		if err := result.Scan(&model, &from, &to, &count, &prob); err != nil {
			return nil, fmt.Errorf("scan transition cell: %w", err)
		}
		row := outcome.Label(from).Index()
		col := outcome.Label(to).Index()
		if row < 0 || col < 0 {
			continue
		}
		m := matrices[model]
		m.Counts[row][col] = count
		m.Probs[row][col] = prob
		matrices[model] = m
	}
	return matrices, result.Err()
}

// Prune keeps the newest keep runs and deletes the rest along with their
// child rows. keep <= 0 is a no-op.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id NOT IN
		(SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return int(n), nil
}
