package assembler

import (
	"github.com/ofizant/conciliacion/internal/domain/normalizer"
	"github.com/ofizant/conciliacion/internal/domain/table"
)

// ColAmountNorm is the single amount column of exported tables.
const ColAmountNorm = normalizer.AmountNormColumn

// exportRenames maps annotated column labels to the spelling used in
// exports, applied in order.
var exportRenames = [][2]string{
	{"Nro. Comp_MAYOR", "Nro.Comp_MAYOR"},
	{"Razon,Social_MAYOR", "Razon Social_MAYOR"},
}

// ExportColumns is the column layout of exported workbooks.
var ExportColumns = []string{
	"Código_MAYOR", "Cuenta_MAYOR", "Fecha_MAYOR", "Tipo_MAYOR", "Nro.Comp_MAYOR", "Subcuenta_MAYOR",
	"Detalle_MAYOR", "CUIT_MAYOR", "Razon Social_MAYOR", "Débito_MAYOR", "Crédito_MAYOR", "Saldo_MAYOR", "Importe_MAYOR",
	"NUM_BANCO", "FECHA_BANCO", "COMBTE_BANCO", "DESCRIPCION_BANCO", "DEBITO_BANCO", "CREDITO_BANCO", "SALDO_BANCO", "IMPORTE_BANCO",
	"Fecha_norm_MAYOR", "Fecha_norm_BANCO", ColAmountNorm, ColStatus, ColRule, ColDayDiff, ColGroupID,
}

// Finalize reshapes an annotated (or merged) table into the export layout:
// one Importe_norm column taking the ledger amount and falling back to the
// statement amount, export spellings for renamed columns, and the fixed
// ExportColumns order. Columns outside the layout are dropped.
//
// A table merged from an exported result and a fresh run carries both
// layouts; each row keeps whichever value it has.
func Finalize(detail *table.Table) *table.Table {
	base := detail.DedupColumns()
	t := base.Select(base.Columns()...)

	t.SetColumn(ColAmountNorm, coalesce(t,
		ColAmountNorm,
		normalizer.AmountNormColumn+normalizer.Ledger.Suffix(),
		normalizer.AmountNormColumn+normalizer.Statement.Suffix(),
	))

	for _, r := range exportRenames {
		from, to := r[0], r[1]
		switch {
		case !t.Has(from):
		case !t.Has(to):
			t.Rename(from, to)
		default:
			t.SetColumn(to, coalesce(t, to, from))
		}
	}

	return t.Select(ExportColumns...)
}

// coalesce returns, per row, the first non-null cell among columns.
func coalesce(t *table.Table, columns ...string) []table.Cell {
	out := make([]table.Cell, t.Len())
	for i := range out {
		for _, c := range columns {
			if v := t.Get(i, c); !v.IsNull() {
				out[i] = v
				break
			}
		}
	}
	return out
}
