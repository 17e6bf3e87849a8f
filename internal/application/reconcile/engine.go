// Package reconcile runs one reconciliation: it normalizes both input
// tables, matches them, assembles the annotated table, optionally folds the
// result into a previous one, and records the run.
package reconcile

import (
	"log/slog"

	"github.com/ofizant/conciliacion/internal/domain/assembler"
	"github.com/ofizant/conciliacion/internal/domain/matcher"
	"github.com/ofizant/conciliacion/internal/domain/normalizer"
	"github.com/ofizant/conciliacion/internal/domain/table"
)

// EngineResult is the outcome of Reconcile.
type EngineResult struct {
	Detail    *table.Table
	Summary   assembler.Summary
	Stats     matcher.Stats
	Ledger    *normalizer.Normalized
	Statement *normalizer.Normalized
}

// Reconcile matches a ledger table against a statement table and returns
// the annotated table with its status summary. Both tables pass through the
// ingestion boundary first, so repeated column labels keep their first
// occurrence.
func Reconcile(ledgerTbl, statementTbl *table.Table, cfg matcher.Config, logger *slog.Logger) (*EngineResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ledger, err := normalizer.Normalize(table.Ingest(ledgerTbl), normalizer.LedgerSchema)
	if err != nil {
		return nil, err
	}
	statement, err := normalizer.Normalize(table.Ingest(statementTbl), normalizer.StatementSchema)
	if err != nil {
		return nil, err
	}
	if ledger.Dropped > 0 || statement.Dropped > 0 {
		logger.Debug("rows dropped by normalization",
			"ledger", ledger.Dropped,
			"statement", statement.Dropped)
	}

	result, err := matcher.NewMatcher(cfg, logger).Match(ledger.Records, statement.Records)
	if err != nil {
		return nil, err
	}

	detail := assembler.Assemble(ledger, statement, result)
	return &EngineResult{
		Detail:    detail,
		Summary:   assembler.Summarize(detail),
		Stats:     result.Stats,
		Ledger:    ledger,
		Statement: statement,
	}, nil
}
