package cli

import (
	"errors"
	"flag"
	"io"
	"path/filepath"
	"strings"

	"github.com/ofizant/conciliacion/internal/domain/matcher"
	"github.com/ofizant/conciliacion/internal/infrastructure/config"
)

// ErrUsage is returned when required flags are missing.
var ErrUsage = errors.New("usage error")

// RunFlags holds the CLI flags for the run command.
type RunFlags struct {
	Ledger          string
	Statement       string
	Previous        string
	Out             string
	DateTolerance   int
	MaxGroupSize    int
	Direction       string
	AmountTolerance float64
	NoStore         bool
}

// ParseRunFlags parses the run command's arguments. Engine parameters
// default to the reconciliation section of the configuration.
func ParseRunFlags(args []string, defaults config.ReconciliationConfig, output io.Writer) (*RunFlags, error) {
	flags := &RunFlags{}
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&flags.Ledger, "ledger", "", "Ledger (Mayor) file: .xlsx, .xls or .csv; may be a previous result")
	fs.StringVar(&flags.Statement, "statement", "", "Bank statement (Banco) file")
	fs.StringVar(&flags.Previous, "previous", "", "Previous result to continue from (replaces -ledger)")
	fs.StringVar(&flags.Out, "out", "", "Write the result to this .xlsx or .csv file")
	fs.IntVar(&flags.DateTolerance, "tolerance", defaults.DateToleranceDays, "Date tolerance in days")
	fs.IntVar(&flags.MaxGroupSize, "max-group", defaults.MaxGroupSize, "Maximum ledger entries per group (1 disables grouping)")
	fs.StringVar(&flags.Direction, "direction", defaults.Direction, "Grouping direction: MAYOR→BANCO or BANCO→MAYOR")
	fs.Float64Var(&flags.AmountTolerance, "amount-tolerance", defaults.AmountTolerance, "Amount tolerance for one-to-one matches (0 = exact)")
	fs.BoolVar(&flags.NoStore, "no-store", false, "Do not record the run in history")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if flags.Statement == "" {
		return nil, errors.Join(ErrUsage, errors.New("-statement is required"))
	}
	if flags.Ledger == "" && flags.Previous == "" {
		return nil, errors.Join(ErrUsage, errors.New("-ledger or -previous is required"))
	}
	if flags.Out != "" {
		switch strings.ToLower(filepath.Ext(flags.Out)) {
		case ".xlsx", ".csv":
		default:
			return nil, errors.Join(ErrUsage, errors.New("-out must end in .xlsx or .csv"))
		}
	}
	return flags, nil
}

// MatcherConfig converts the flags into validated engine parameters.
func (f *RunFlags) MatcherConfig() (matcher.Config, error) {
	return config.ReconciliationConfig{
		DateToleranceDays: f.DateTolerance,
		MaxGroupSize:      f.MaxGroupSize,
		Direction:         f.Direction,
		AmountTolerance:   f.AmountTolerance,
	}.MatcherConfig()
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port    int
	Verbose bool
}

// ParseServeFlags parses the serve command's arguments.
func ParseServeFlags(args []string, defaultPort int, output io.Writer) (*ServeFlags, error) {
	flags := &ServeFlags{}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&flags.Port, "port", defaultPort, "Port to listen on")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// RunsFlags holds the CLI flags for the runs command.
type RunsFlags struct {
	Limit int
}

// ParseRunsFlags parses the runs command's arguments.
func ParseRunsFlags(args []string, output io.Writer) (*RunsFlags, error) {
	flags := &RunsFlags{}
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&flags.Limit, "limit", 20, "Number of runs to list")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}
