package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ofizant/conciliacion/internal/domain/assembler"
	"github.com/ofizant/conciliacion/internal/domain/matcher"
	"github.com/ofizant/conciliacion/internal/domain/previous"
	"github.com/ofizant/conciliacion/internal/domain/table"
	"github.com/ofizant/conciliacion/internal/infrastructure/storage"
)

// ErrInvalidRequest is returned when a request lacks an input or names a
// previous result that is not one.
var ErrInvalidRequest = errors.New("invalid reconciliation request")

// Request holds the inputs of one run.
type Request struct {
	// Ledger may be a plain ledger or a previous annotated result. It may be
	// nil when Previous or PreviousRunID is set.
	Ledger    *table.Table
	Statement *table.Table

	// Previous is an earlier annotated result supplied on its own. When set,
	// its pending ledger rows replace Ledger.
	Previous *table.Table
	// PreviousRunID loads Previous from run history.
	PreviousRunID string

	LedgerName    string
	StatementName string
	Config        matcher.Config

	// Store records the run in history. Ignored when the service has no
	// repository.
	Store bool
}

// Output is the outcome of a run.
type Output struct {
	RunID        string // Empty when the run was not stored
	Detail       *table.Table
	Summary      assembler.Summary
	Metrics      assembler.Metrics
	Stats        matcher.Stats
	FromPrevious bool

	LedgerRows       int
	StatementRows    int
	DroppedLedger    int
	DroppedStatement int
}

// Service runs reconciliations and keeps their history.
type Service struct {
	repo   storage.Repository
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewService creates a service. repo may be nil to disable history.
func NewService(repo storage.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
}

// Run executes one reconciliation.
//
// When a previous result is involved (supplied as Previous, loaded through
// PreviousRunID, or detected in Ledger), only its "Solo en Mayor" rows are
// matched again and the new result is merged into the full previous table.
// The summary and metrics then describe the merged table.
func (s *Service) Run(ctx context.Context, req Request) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Statement == nil {
		return nil, fmt.Errorf("%w: statement table is required", ErrInvalidRequest)
	}

	history, err := s.history(req)
	if err != nil {
		return nil, err
	}

	ledgerInput := req.Ledger
	if history != nil {
		ledgerInput = previous.PendingLedger(history)
		s.logger.Info("continuing previous result",
			"previous_rows", history.Len(),
			"pending_ledger", ledgerInput.Len())
	}

	res, err := Reconcile(ledgerInput, req.Statement, req.Config, s.logger)
	if err != nil {
		return nil, err
	}

	out := &Output{
		Detail:           res.Detail,
		Summary:          res.Summary,
		Stats:            res.Stats,
		FromPrevious:     history != nil,
		LedgerRows:       len(res.Ledger.Records),
		StatementRows:    len(res.Statement.Records),
		DroppedLedger:    res.Ledger.Dropped,
		DroppedStatement: res.Statement.Dropped,
	}
	if history != nil {
		out.Detail = previous.Merge(history, res.Detail)
		out.Summary = assembler.Summarize(out.Detail)
	}
	out.Metrics = assembler.ComputeMetrics(out.Detail)

	if req.Store && s.repo != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.save(req, out); err != nil {
			return nil, err
		}
	}

	s.logger.Info("reconciliation complete",
		"run_id", out.RunID,
		"rows", out.Detail.Len(),
		"matched", out.Metrics.Matched,
		"ledger_only", out.Metrics.LedgerOnly,
		"statement_only", out.Metrics.StatementOnly,
		"groups", out.Stats.Groups,
		"from_previous", out.FromPrevious)

	return out, nil
}

// history resolves which previous result, if any, this run continues.
func (s *Service) history(req Request) (*table.Table, error) {
	prev := req.Previous
	if prev == nil && req.PreviousRunID != "" {
		if s.repo == nil {
			return nil, fmt.Errorf("%w: run history is disabled", ErrInvalidRequest)
		}
		loaded, err := s.repo.LoadRunTable(req.PreviousRunID)
		if err != nil {
			return nil, fmt.Errorf("load previous run: %w", err)
		}
		prev = loaded
	}

	if prev != nil {
		prev = table.Ingest(prev)
		if !previous.IsPreviousResult(prev) {
			return nil, fmt.Errorf("%w: previous table is not a reconciliation result", ErrInvalidRequest)
		}
		return prev, nil
	}

	if req.Ledger == nil {
		return nil, fmt.Errorf("%w: ledger table is required", ErrInvalidRequest)
	}
	if ledger := table.Ingest(req.Ledger); previous.IsPreviousResult(ledger) {
		return ledger, nil
	}
	return nil, nil
}

func (s *Service) save(req Request, out *Output) error {
	run := &storage.Run{
		ID:              s.newID(),
		CreatedAt:       s.now(),
		LedgerName:      req.LedgerName,
		StatementName:   req.StatementName,
		DateTolerance:   req.Config.DateTolerance,
		MaxGroupSize:    req.Config.MaxGroupSize,
		Direction:       string(req.Config.Direction),
		AmountTolerance: req.Config.AmountTolerance,
		LedgerRows:      out.LedgerRows,
		StatementRows:   out.StatementRows,
		FromPrevious:    out.FromPrevious,
		Summary:         out.Summary,
	}
	if err := s.repo.SaveRun(run, out.Detail); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	out.RunID = run.ID
	return nil
}
