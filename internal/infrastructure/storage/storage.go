package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/ofizant/conciliacion/internal/domain/table"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Storage provides SQLite database access for reconciliation runs.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	// A pooled second connection would not inherit the pragma.
	db.SetMaxOpenConns(1)

	s := &Storage{db: db}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// runMigrations applies the embedded goose migrations
func (s *Storage) runMigrations() error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRun stores the run header and its rows in one transaction.
// A run saved again under the same ID replaces the earlier copy.
func (s *Storage) SaveRun(run *Run, detail *table.Table) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.Columns = detail.Columns()
	run.OutputRows = detail.Len()

	columnsJSON, err := json.Marshal(run.Columns)
	if err != nil {
		return fmt.Errorf("failed to encode columns: %w", err)
	}
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to replace run %s: %w", run.ID, err)
	}

	_, err = tx.Exec(`
	INSERT INTO runs
	(id, created_at, ledger_name, statement_name, date_tolerance, max_group_size,
	 direction, amount_tolerance, ledger_rows, statement_rows, output_rows,
	 from_previous, columns_json, summary_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.CreatedAt.UTC(),
		run.LedgerName,
		run.StatementName,
		run.DateTolerance,
		run.MaxGroupSize,
		run.Direction,
		run.AmountTolerance,
		run.LedgerRows,
		run.StatementRows,
		run.OutputRows,
		run.FromPrevious,
		string(columnsJSON),
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO run_rows (run_id, position, estado, grupo_id, cells_json)
	VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range rowsFromTable(detail) {
		cellsJSON, err := json.Marshal(row.Cells)
		if err != nil {
			return fmt.Errorf("failed to encode row %d: %w", row.Position, err)
		}
		if _, err := stmt.Exec(run.ID, row.Position, row.Status, row.GroupID, string(cellsJSON)); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", row.Position, err)
		}
	}

	return tx.Commit()
}

const runColumns = `id, created_at, ledger_name, statement_name, date_tolerance, max_group_size,
	direction, amount_tolerance, ledger_rows, statement_rows, output_rows,
	from_previous, columns_json, summary_json`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (*Run, error) {
	var (
		run                      Run
		columnsJSON, summaryJSON string
	)
	err := sc.Scan(
		&run.ID,
		&run.CreatedAt,
		&run.LedgerName,
		&run.StatementName,
		&run.DateTolerance,
		&run.MaxGroupSize,
		&run.Direction,
		&run.AmountTolerance,
		&run.LedgerRows,
		&run.StatementRows,
		&run.OutputRows,
		&run.FromPrevious,
		&columnsJSON,
		&summaryJSON,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(columnsJSON), &run.Columns); err != nil {
		return nil, fmt.Errorf("failed to decode columns of run %s: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &run.Summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary of run %s: %w", run.ID, err)
	}
	return &run, nil
}

// GetRun retrieves a run header by ID
func (s *Storage) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first
func (s *Storage) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListRunRows returns the rows of a run in output order
func (s *Storage) ListRunRows(runID, status string) ([]RunRow, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}

	query := `SELECT position, estado, grupo_id, cells_json FROM run_rows WHERE run_id = ?`
	args := []any{runID}
	if status != "" {
		query += ` AND estado = ?`
		args = append(args, status)
	}
	query += ` ORDER BY position`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RunRow, 0)
	for rows.Next() {
		var (
			r         RunRow
			cellsJSON string
		)
		if err := rows.Scan(&r.Position, &r.Status, &r.GroupID, &cellsJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(cellsJSON), &r.Cells); err != nil {
			return nil, fmt.Errorf("failed to decode row %d of run %s: %w", r.Position, runID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadRunTable rebuilds the annotated table of a run
func (s *Storage) LoadRunTable(runID string) (*table.Table, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}
	rows, err := s.ListRunRows(runID, "")
	if err != nil {
		return nil, err
	}
	return buildTable(run.Columns, rows), nil
}

// DeleteRunsBefore removes runs created before cutoff. Rows go with them
// through the foreign key cascade.
func (s *Storage) DeleteRunsBefore(cutoff time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM runs WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
