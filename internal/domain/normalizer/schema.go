package normalizer

import (
	"fmt"
	"strings"

	"github.com/ofizant/conciliacion/internal/domain/table"
)

// Source tags which side of the reconciliation a record comes from. The value
// doubles as the column suffix used in output tables.
type Source string

const (
	Ledger    Source = "MAYOR"
	Statement Source = "BANCO"
)

// Suffix returns the column suffix for the source, e.g. "_MAYOR".
func (s Source) Suffix() string { return "_" + string(s) }

// Derived column base names. The output table suffixes them per source.
const (
	DateNormColumn   = "Fecha_norm"
	AmountNormColumn = "Importe_norm"
)

// Schema describes the required columns of an input table.
type Schema struct {
	Source       Source
	Name         string
	Columns      []string
	DateColumn   string
	AmountColumn string
}

// LedgerSchema is the accounting ledger layout.
var LedgerSchema = Schema{
	Source: Ledger,
	Name:   "Mayor",
	Columns: []string{
		"Código", "Cuenta", "Fecha", "Tipo", "Nro. Comp", "Subcuenta", "Detalle",
		"CUIT", "Razon Social", "Débito", "Crédito", "Saldo", "Importe",
	},
	DateColumn:   "Fecha",
	AmountColumn: "Importe",
}

// StatementSchema is the bank statement layout.
var StatementSchema = Schema{
	Source: Statement,
	Name:   "Banco",
	Columns: []string{
		"NUM", "FECHA", "COMBTE", "DESCRIPCION", "DEBITO", "CREDITO", "SALDO", "IMPORTE",
	},
	DateColumn:   "FECHA",
	AmountColumn: "IMPORTE",
}

// OutputColumns returns the schema columns plus the derived ones, suffixed for the source.
func (s Schema) OutputColumns() []string {
	cols := make([]string, 0, len(s.Columns)+2)
	for _, c := range s.Columns {
		cols = append(cols, c+s.Source.Suffix())
	}
	return append(cols, DateNormColumn+s.Source.Suffix(), AmountNormColumn+s.Source.Suffix())
}

// SchemaError reports required columns missing from an input table.
type SchemaError struct {
	Table   string
	Missing []string
	Present []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: faltan columnas %s. Presentes: %s", e.Table, quoteList(e.Missing), quoteList(e.Present))
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Validate checks that t carries every column of the schema.
func Validate(t *table.Table, s Schema) error {
	var missing []string
	for _, c := range s.Columns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Table: s.Name, Missing: missing, Present: t.Columns()}
	}
	return nil
}
