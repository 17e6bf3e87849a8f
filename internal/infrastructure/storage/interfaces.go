package storage

import (
	"errors"
	"time"

	"github.com/ofizant/conciliacion/internal/domain/table"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations and makes testing with
// mocks straightforward.
type Repository interface {
	RunRepository
	Close() error
}

// RunRepository handles reconciliation run history
type RunRepository interface {
	// SaveRun stores the run header and every row of its annotated table
	SaveRun(run *Run, detail *table.Table) error

	// GetRun retrieves a run header by ID
	GetRun(id string) (*Run, error)

	// ListRuns returns the most recent runs first (limit <= 0 = default 50)
	ListRuns(limit int) ([]*Run, error)

	// ListRunRows returns the stored rows of a run in output order,
	// optionally filtered by estado (empty = all)
	ListRunRows(runID, status string) ([]RunRow, error)

	// LoadRunTable rebuilds the annotated table of a run
	LoadRunTable(runID string) (*table.Table, error)

	// DeleteRunsBefore removes runs created before cutoff and returns how many
	DeleteRunsBefore(cutoff time.Time) (int, error)
}
