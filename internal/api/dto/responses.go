package dto

import (
	"time"

	"github.com/ofizant/conciliacion/internal/domain/assembler"
	"github.com/ofizant/conciliacion/internal/domain/matcher"
	"github.com/ofizant/conciliacion/internal/domain/table"
	"github.com/ofizant/conciliacion/internal/infrastructure/storage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string         `json:"status"`  // "ok" or "degraded"
	Storage   string         `json:"storage"` // "ok", "unavailable" or "disabled"
	Defaults  ParamsResponse `json:"defaults"`
	Timestamp string         `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
// storageErr is the result of probing run history; a nil repository is
// reported as disabled.
func NewHealthResponse(hasStorage bool, storageErr error, defaults matcher.Config) HealthResponse {
	resp := HealthResponse{
		Status:    "ok",
		Storage:   "ok",
		Defaults:  NewParamsResponse(defaults),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	switch {
	case !hasStorage:
		resp.Storage = "disabled"
	case storageErr != nil:
		resp.Status = "degraded"
		resp.Storage = "unavailable"
	}
	return resp
}

// NewParamsResponse converts engine parameters.
func NewParamsResponse(cfg matcher.Config) ParamsResponse {
	return ParamsResponse{
		DateTolerance:   cfg.DateTolerance,
		MaxGroupSize:    cfg.MaxGroupSize,
		Direction:       string(cfg.Direction),
		AmountTolerance: cfg.AmountTolerance,
	}
}

// ParamsResponse echoes the engine parameters of a run.
type ParamsResponse struct {
	DateTolerance   int     `json:"date_tolerance"`
	MaxGroupSize    int     `json:"max_group_size"`
	Direction       string  `json:"direction"`
	AmountTolerance float64 `json:"amount_tolerance"`
}

// StatsResponse reports what each matching phase produced.
type StatsResponse struct {
	Exact           int `json:"exact"`
	DateTolerance   int `json:"date_tolerance"`
	ValueTolerance  int `json:"value_tolerance"`
	Groups          int `json:"groups"`
	GroupedLedger   int `json:"grouped_ledger"`
	SearchLimitHits int `json:"search_limit_hits"`
}

// NewStatsResponse converts matcher stats.
func NewStatsResponse(s matcher.Stats) StatsResponse {
	return StatsResponse{
		Exact:           s.Exact,
		DateTolerance:   s.DateTolerance,
		ValueTolerance:  s.ValueTolerance,
		Groups:          s.Groups,
		GroupedLedger:   s.GroupedLedger,
		SearchLimitHits: s.SearchLimitHits,
	}
}

// DroppedResponse counts input rows excluded for unparseable dates or amounts.
type DroppedResponse struct {
	Ledger    int `json:"ledger"`
	Statement int `json:"statement"`
}

// ReconcileResponse is returned by POST /api/reconcile.
type ReconcileResponse struct {
	RunID        string            `json:"run_id,omitempty"`
	FromPrevious bool              `json:"from_previous"`
	Params       ParamsResponse    `json:"params"`
	Summary      assembler.Summary `json:"summary"`
	Metrics      assembler.Metrics `json:"metrics"`
	Stats        StatsResponse     `json:"stats"`
	Dropped      DroppedResponse   `json:"dropped"`
	RowCount     int               `json:"row_count"`
}

// RunResponse represents a stored run in API responses.
type RunResponse struct {
	ID            string            `json:"id"`
	CreatedAt     string            `json:"created_at"`
	LedgerName    string            `json:"ledger_name,omitempty"`
	StatementName string            `json:"statement_name,omitempty"`
	Params        ParamsResponse    `json:"params"`
	LedgerRows    int               `json:"ledger_rows"`
	StatementRows int               `json:"statement_rows"`
	OutputRows    int               `json:"output_rows"`
	FromPrevious  bool              `json:"from_previous"`
	Summary       assembler.Summary `json:"summary"`
}

// NewRunResponse converts a stored run.
func NewRunResponse(run *storage.Run) RunResponse {
	summary := run.Summary
	if summary == nil {
		summary = assembler.Summary{}
	}
	return RunResponse{
		ID:            run.ID,
		CreatedAt:     run.CreatedAt.UTC().Format(time.RFC3339),
		LedgerName:    run.LedgerName,
		StatementName: run.StatementName,
		Params: ParamsResponse{
			DateTolerance:   run.DateTolerance,
			MaxGroupSize:    run.MaxGroupSize,
			Direction:       run.Direction,
			AmountTolerance: run.AmountTolerance,
		},
		LedgerRows:    run.LedgerRows,
		StatementRows: run.StatementRows,
		OutputRows:    run.OutputRows,
		FromPrevious:  run.FromPrevious,
		Summary:       summary,
	}
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// RunRowsResponse is returned when listing the rows of a run.
// Each row maps column name to cell value.
type RunRowsResponse struct {
	RunID   string                  `json:"run_id"`
	Columns []string                `json:"columns"`
	Rows    []map[string]table.Cell `json:"rows"`
	Count   int                     `json:"count"`
}
