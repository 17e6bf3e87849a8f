package table

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupColumns(t *testing.T) {
	t.Run("first occurrence wins", func(t *testing.T) {
		tbl := New("a", "b", "a")
		tbl.AppendRow([]Cell{Text("1"), Text("2"), Text("3")})

		out := tbl.DedupColumns()

		assert.Equal(t, []string{"a", "b"}, out.Columns())
		assert.Equal(t, "1", out.Get(0, "a").String())
		assert.Equal(t, "2", out.Get(0, "b").String())
	})

	t.Run("returns same table when labels are unique", func(t *testing.T) {
		tbl := New("a", "b")
		assert.Same(t, tbl, tbl.DedupColumns())
	})
}

func TestConcat(t *testing.T) {
	left := New("a", "b")
	left.AppendRow([]Cell{Text("x"), Number(1)})
	right := New("b", "c")
	right.AppendRow([]Cell{Number(2), Text("y")})

	out := Concat(left, right)

	require.Equal(t, []string{"a", "b", "c"}, out.Columns())
	require.Equal(t, 2, out.Len())
	assert.True(t, out.Get(0, "c").IsNull())
	assert.True(t, out.Get(1, "a").IsNull())
	f, ok := out.Get(1, "b").Float()
	assert.True(t, ok)
	assert.Equal(t, 2.0, f)
}

func TestDropDuplicates(t *testing.T) {
	tbl := New("a", "b")
	tbl.AppendRow([]Cell{Text("x"), Null()})
	tbl.AppendRow([]Cell{Text("x"), Null()})
	tbl.AppendRow([]Cell{Text("x"), Text("")})
	tbl.AppendRow([]Cell{Number(1), Null()})
	tbl.AppendRow([]Cell{Text("1"), Null()})

	out := tbl.DropDuplicates()

	assert.Equal(t, 4, out.Len())
}

func TestInferTypes(t *testing.T) {
	tbl := New("IMPORTE", "Importe", "empty")
	tbl.AppendRow([]Cell{Text("1000.00"), Text("1.000,00"), Null()})
	tbl.AppendRow([]Cell{Text("-5"), Text("20"), Null()})
	tbl.AppendRow([]Cell{Null(), Text("7"), Null()})

	tbl.InferTypes()

	f, ok := tbl.Get(0, "IMPORTE").Float()
	require.True(t, ok)
	assert.Equal(t, 1000.0, f)
	assert.True(t, tbl.Get(2, "IMPORTE").IsNull())

	assert.Equal(t, KindText, tbl.Get(0, "Importe").Kind())
	assert.Equal(t, KindText, tbl.Get(1, "Importe").Kind(), "mixed columns stay text")
	assert.True(t, tbl.Get(0, "empty").IsNull())
}

func TestSelectAndSetColumn(t *testing.T) {
	tbl := New("a")
	tbl.AppendRow([]Cell{Text("x")})
	tbl.SetColumn("b", []Cell{Number(3)})

	out := tbl.Select("b", "missing", "a")

	assert.Equal(t, []string{"b", "missing", "a"}, out.Columns())
	assert.Equal(t, "3", out.Get(0, "b").String())
	assert.True(t, out.Get(0, "missing").IsNull())
	assert.Equal(t, "x", out.Get(0, "a").String())
}

func TestRename(t *testing.T) {
	tbl := New("Nro. Comp_MAYOR", "x")
	tbl.Rename("Nro. Comp_MAYOR", "Nro.Comp_MAYOR")
	assert.Equal(t, []string{"Nro.Comp_MAYOR", "x"}, tbl.Columns())

	tbl.Rename("Nro.Comp_MAYOR", "x")
	assert.Equal(t, []string{"Nro.Comp_MAYOR", "x"}, tbl.Columns(), "no rename onto an existing label")
}

func TestCellJSON(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	cells := []Cell{Null(), Text("hola"), Number(-12.5), Date(day)}

	data, err := json.Marshal(cells)
	require.NoError(t, err)
	assert.JSONEq(t, `[null,"hola",-12.5,{"date":"2024-03-01"}]`, string(data))

	var back []Cell
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back, len(cells))
	for i := range cells {
		assert.True(t, cells[i].Equal(back[i]), "cell %d", i)
	}
}

func TestParsePlainNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1000.00", 1000, true},
		{" -5 ", -5, true},
		{"+3", 3, true},
		{".5", 0.5, true},
		{"7.", 7, true},
		{"1e3", 1000, true},
		{"2.5E-1", 0.25, true},
		{"", 0, false},
		{"0x10", 0, false},
		{"0x1p4", 0, false},
		{"Inf", 0, false},
		{"-infinity", 0, false},
		{"NaN", 0, false},
		{"1_000", 0, false},
		{"1.000,00", 0, false},
		{"1e", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parsePlainNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferTypes_HexStaysText(t *testing.T) {
	tbl := New("code")
	tbl.AppendRow([]Cell{Text("0x10")})
	tbl.AppendRow([]Cell{Text("16")})

	tbl.InferTypes()

	assert.Equal(t, KindText, tbl.Get(0, "code").Kind())
	assert.Equal(t, KindText, tbl.Get(1, "code").Kind())
}
