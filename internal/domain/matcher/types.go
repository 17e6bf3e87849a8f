package matcher

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid matcher config")

// Direction selects which side may be grouped.
type Direction string

const (
	// LedgerToStatement groups several ledger records against one statement record.
	LedgerToStatement Direction = "MAYOR→BANCO"
	// StatementToLedger is accepted but grouping does not run in this direction.
	StatementToLedger Direction = "BANCO→MAYOR"
)

// ParseDirection accepts the display form ("MAYOR→BANCO"), an ASCII arrow
// ("MAYOR->BANCO") or the constant name ("LEDGER_TO_STATEMENT").
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(LedgerToStatement), "MAYOR->BANCO", "LEDGER_TO_STATEMENT":
		return LedgerToStatement, nil
	case string(StatementToLedger), "BANCO->MAYOR", "STATEMENT_TO_LEDGER":
		return StatementToLedger, nil
	}
	return "", fmt.Errorf("%w: unknown direction %q", ErrInvalidConfig, s)
}

// Search bounds for the grouping phase.
const (
	MaxCandidates     = 60
	MaxSearchBranches = 5000
	SumEpsilon        = 1e-9
)

// Config holds matcher configuration
type Config struct {
	DateTolerance   int       // Days either side (default: 2)
	MaxGroupSize    int       // Ledger records per group (default: 4); 1 disables grouping
	Direction       Direction // Default: LedgerToStatement
	AmountTolerance float64   // 0 disables the value-tolerance sweep
}

// DefaultConfig returns the defaults used by the CLI and API
func DefaultConfig() Config {
	return Config{
		DateTolerance:   2,
		MaxGroupSize:    4,
		Direction:       LedgerToStatement,
		AmountTolerance: 0,
	}
}

// Validate checks the engine parameter contract.
func (c Config) Validate() error {
	if c.DateTolerance < 0 {
		return fmt.Errorf("%w: date tolerance must be >= 0, got %d", ErrInvalidConfig, c.DateTolerance)
	}
	if c.MaxGroupSize < 1 {
		return fmt.Errorf("%w: max group size must be >= 1, got %d", ErrInvalidConfig, c.MaxGroupSize)
	}
	if c.Direction != LedgerToStatement && c.Direction != StatementToLedger {
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidConfig, c.Direction)
	}
	if c.AmountTolerance < 0 {
		return fmt.Errorf("%w: amount tolerance must be >= 0, got %v", ErrInvalidConfig, c.AmountTolerance)
	}
	return nil
}

// Status is the reconciliation outcome of an output row.
type Status string

const (
	StatusExact          Status = "Conciliado exacto"
	StatusDateTolerance  Status = "Conciliado por tolerancia"
	StatusValueTolerance Status = "Conciliado por tolerancia de valor"
	StatusGrouped        Status = "Conciliado por agrupación"
	StatusLedgerOnly     Status = "Solo en Mayor"
	StatusStatementOnly  Status = "Solo en Banco"
)

// IsMatched reports whether the status denotes a reconciled row.
func (s Status) IsMatched() bool {
	return strings.Contains(string(s), "Conciliado")
}

// Rule names recorded on matched rows.
const (
	RuleOneToOne       = "one_to_one"
	RuleOneToOneAmount = "one_to_one_amount"
)

// GroupRule is the rule recorded on grouped rows, e.g. "many_to_one<=4".
func GroupRule(maxGroupSize int) string {
	return fmt.Sprintf("many_to_one<=%d", maxGroupSize)
}

// Pair links one ledger record to one statement record.
// Group matches produce one Pair per ledger record, all sharing GroupID and
// StatementRowID.
type Pair struct {
	LedgerRowID    int
	StatementRowID int
	Status         Status
	Rule           string
	DayDiff        int
	GroupID        string // Empty for one-to-one matches
}

// Stats counts what each phase produced.
type Stats struct {
	Exact           int
	DateTolerance   int
	ValueTolerance  int
	Groups          int
	GroupedLedger   int
	SearchLimitHits int
}

// Result is the output of a matching run.
type Result struct {
	Pairs         []Pair
	UsedLedger    map[int]bool
	UsedStatement map[int]bool
	Stats         Stats
}
