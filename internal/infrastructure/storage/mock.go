package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ofizant/conciliacion/internal/domain/table"
)

// MockRepository is an in-memory implementation of Repository for testing.
type MockRepository struct {
	mu   sync.Mutex
	runs map[string]*Run
	rows map[string][]RunRow

	// Hooks for test assertions
	SaveRunCalled   bool
	LastSavedRun    *Run
	DeleteCalled    bool
	LastCutoff      time.Time
	ListRunsCalled  bool
	LoadTableCalled bool

	// Error injection for testing error paths
	SaveRunErr      error
	GetRunErr       error
	ListRunsErr     error
	ListRunRowsErr  error
	LoadRunTableErr error
	DeleteErr       error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs: make(map[string]*Run),
		rows: make(map[string][]RunRow),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// SaveRun stores a copy of the run and its rows
func (m *MockRepository) SaveRun(run *Run, detail *table.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveRunCalled = true
	m.LastSavedRun = run
	if m.SaveRunErr != nil {
		return m.SaveRunErr
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.Columns = detail.Columns()
	run.OutputRows = detail.Len()

	copied := *run
	m.runs[run.ID] = &copied
	m.rows[run.ID] = rowsFromTable(detail.Select(detail.Columns()...))
	return nil
}

// GetRun retrieves a run by ID
func (m *MockRepository) GetRun(id string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getRun(id)
}

func (m *MockRepository) getRun(id string) (*Run, error) {
	if m.GetRunErr != nil {
		return nil, m.GetRunErr
	}
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	copied := *run
	return &copied, nil
}

// ListRuns returns runs newest first
func (m *MockRepository) ListRuns(limit int) ([]*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListRunsCalled = true
	if m.ListRunsErr != nil {
		return nil, m.ListRunsErr
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	runs := make([]*Run, 0, len(m.runs))
	for _, r := range m.runs {
		copied := *r
		runs = append(runs, &copied)
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// ListRunRows returns stored rows, optionally filtered by estado
func (m *MockRepository) ListRunRows(runID, status string) ([]RunRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListRunRowsErr != nil {
		return nil, m.ListRunRowsErr
	}
	if _, err := m.getRun(runID); err != nil {
		return nil, err
	}
	out := make([]RunRow, 0)
	for _, r := range m.rows[runID] {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

// LoadRunTable rebuilds the stored table
func (m *MockRepository) LoadRunTable(runID string) (*table.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LoadTableCalled = true
	if m.LoadRunTableErr != nil {
		return nil, m.LoadRunTableErr
	}
	run, err := m.getRun(runID)
	if err != nil {
		return nil, err
	}
	return buildTable(run.Columns, m.rows[runID]), nil
}

// DeleteRunsBefore removes runs created before cutoff
func (m *MockRepository) DeleteRunsBefore(cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalled = true
	m.LastCutoff = cutoff
	if m.DeleteErr != nil {
		return 0, m.DeleteErr
	}
	n := 0
	for id, r := range m.runs {
		if r.CreatedAt.Before(cutoff) {
			delete(m.runs, id)
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

// AddRun stores a run directly (for test setup)
func (m *MockRepository) AddRun(run *Run, detail *table.Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if detail == nil {
		detail = table.New(run.Columns...)
	}
	copied := *run
	copied.Columns = detail.Columns()
	m.runs[run.ID] = &copied
	m.rows[run.ID] = rowsFromTable(detail.Select(detail.Columns()...))
}

// RunCount returns how many runs are stored
func (m *MockRepository) RunCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}
