package storage

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofizant/conciliacion/internal/domain/assembler"
	"github.com/ofizant/conciliacion/internal/domain/table"
)

// expectedMigrationCount is the number of embedded migrations.
// goose adds a version 0 entry when initializing, so the applied count is
// migrations + 1.
const expectedMigrationCount = 2
const gooseVersionCount = expectedMigrationCount + 1

func createTempDB(t *testing.T) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "test_*.db")
	require.NoError(t, err)
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })
	return tmpFile.Name()
}

func openStore(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(createTempDB(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleDetail() *table.Table {
	detail := table.New("Importe_MAYOR", "IMPORTE_BANCO", assembler.ColStatus, assembler.ColGroupID)
	detail.AppendRow([]table.Cell{table.Text("300,00"), table.Number(1000), table.Text("Conciliado por agrupación"), table.Text("G1")})
	detail.AppendRow([]table.Cell{table.Text("700,00"), table.Number(1000), table.Text("Conciliado por agrupación"), table.Text("G1")})
	detail.AppendRow([]table.Cell{table.Text("50,00"), table.Null(), table.Text("Solo en Mayor"), table.Null()})
	detail.AppendRow([]table.Cell{table.Null(), table.Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), table.Text("Solo en Banco"), table.Null()})
	return detail
}

func sampleRun(id string, created time.Time) *Run {
	return &Run{
		ID:            id,
		CreatedAt:     created,
		LedgerName:    "mayor.xlsx",
		StatementName: "banco.csv",
		DateTolerance: 2,
		MaxGroupSize:  4,
		Direction:     "MAYOR→BANCO",
		LedgerRows:    3,
		StatementRows: 2,
		Summary: assembler.Summary{
			{Status: "Conciliado por agrupación", Count: 2},
			{Status: "Solo en Mayor", Count: 1},
			{Status: "Solo en Banco", Count: 1},
		},
	}
}

func TestMigrations_FreshDatabase(t *testing.T) {
	store := openStore(t)

	var count int
	err := store.db.QueryRow("SELECT COUNT(*) FROM goose_db_version WHERE is_applied = 1").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, gooseVersionCount, count)

	for _, name := range []string{"runs", "run_rows"} {
		var n int
		err := store.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s should exist", name)
	}
}

func TestMigrations_Idempotency(t *testing.T) {
	path := createTempDB(t)

	first, err := NewStorage(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStorage(path)
	require.NoError(t, err)
	defer second.Close()

	var count int
	err = second.db.QueryRow("SELECT COUNT(*) FROM goose_db_version WHERE is_applied = 1").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, gooseVersionCount, count)
}

func TestStorage_SaveAndGetRun(t *testing.T) {
	// Arrange
	store := openStore(t)
	created := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	run := sampleRun("run-1", created)

	// Act
	require.NoError(t, store.SaveRun(run, sampleDetail()))
	got, err := store.GetRun("run-1")

	// Assert
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Equal(t, "mayor.xlsx", got.LedgerName)
	assert.Equal(t, 4, got.OutputRows)
	assert.Equal(t, sampleDetail().Columns(), got.Columns)
	assert.Equal(t, run.Summary, got.Summary)
	assert.Equal(t, "MAYOR→BANCO", got.Direction)
}

func TestStorage_GetRun_NotFound(t *testing.T) {
	store := openStore(t)

	_, err := store.GetRun("missing")

	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStorage_ListRunRows(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.SaveRun(sampleRun("run-1", time.Now()), sampleDetail()))

	t.Run("all rows in order", func(t *testing.T) {
		rows, err := store.ListRunRows("run-1", "")
		require.NoError(t, err)
		require.Len(t, rows, 4)
		for i, r := range rows {
			assert.Equal(t, i, r.Position)
		}
		assert.Equal(t, "G1", rows[0].GroupID)
		assert.Equal(t, "", rows[2].GroupID)
	})

	t.Run("filtered by estado", func(t *testing.T) {
		rows, err := store.ListRunRows("run-1", "Conciliado por agrupación")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "700,00", rows[1].Record(sampleDetail().Columns())["Importe_MAYOR"].String())
	})

	t.Run("unknown run", func(t *testing.T) {
		_, err := store.ListRunRows("missing", "")
		assert.ErrorIs(t, err, ErrRunNotFound)
	})
}

func TestStorage_LoadRunTable(t *testing.T) {
	store := openStore(t)
	detail := sampleDetail()
	require.NoError(t, store.SaveRun(sampleRun("run-1", time.Now()), detail))

	got, err := store.LoadRunTable("run-1")

	require.NoError(t, err)
	assert.Equal(t, detail.Columns(), got.Columns())
	require.Equal(t, detail.Len(), got.Len())
	for i := 0; i < detail.Len(); i++ {
		for _, col := range detail.Columns() {
			assert.True(t, detail.Get(i, col).Equal(got.Get(i, col)), "row %d column %s", i, col)
		}
	}
	assert.Equal(t, table.KindNumber, got.Get(0, "IMPORTE_BANCO").Kind())
	assert.Equal(t, table.KindDate, got.Get(3, "IMPORTE_BANCO").Kind())
}

func TestStorage_SaveRun_Replaces(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.SaveRun(sampleRun("run-1", time.Now()), sampleDetail()))

	smaller := table.New(assembler.ColStatus)
	smaller.AppendRow([]table.Cell{table.Text("Solo en Banco")})
	require.NoError(t, store.SaveRun(sampleRun("run-1", time.Now()), smaller))

	rows, err := store.ListRunRows("run-1", "")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestStorage_ListRuns(t *testing.T) {
	store := openStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveRun(sampleRun(id, base.Add(time.Duration(i)*time.Hour)), sampleDetail()))
	}

	runs, err := store.ListRuns(2)

	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
}

func TestStorage_DeleteRunsBefore(t *testing.T) {
	store := openStore(t)
	old := time.Now().UTC().AddDate(0, 0, -100)
	require.NoError(t, store.SaveRun(sampleRun("old", old), sampleDetail()))
	require.NoError(t, store.SaveRun(sampleRun("new", time.Now().UTC()), sampleDetail()))

	n, err := store.DeleteRunsBefore(time.Now().UTC().AddDate(0, 0, -90))

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = store.GetRun("old")
	assert.ErrorIs(t, err, ErrRunNotFound)

	var orphaned int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM run_rows WHERE run_id = 'old'").Scan(&orphaned))
	assert.Zero(t, orphaned, "rows are removed with their run")
}
