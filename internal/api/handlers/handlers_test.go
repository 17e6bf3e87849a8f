package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ofizant/conciliacion/internal/api/dto"
	"github.com/ofizant/conciliacion/internal/api/handlers"
	"github.com/ofizant/conciliacion/internal/application/reconcile"
	"github.com/ofizant/conciliacion/internal/domain/assembler"
	"github.com/ofizant/conciliacion/internal/domain/matcher"
	"github.com/ofizant/conciliacion/internal/domain/table"
	"github.com/ofizant/conciliacion/internal/infrastructure/storage"
)

const (
	ledgerCSV = "Código;Cuenta;Fecha;Tipo;Nro. Comp;Subcuenta;Detalle;CUIT;Razon Social;Débito;Crédito;Saldo;Importe\n" +
		"1;Banco;01/03/2024;FC;A-1;;pago;;ACME;;;;1.000,00\n" +
		"2;Banco;05/03/2024;FC;A-2;;pago;;ACME;;;;50,00\n"
	statementCSV = "NUM;FECHA;COMBTE;DESCRIPCION;DEBITO;CREDITO;SALDO;IMPORTE\n" +
		"1;02/03/2024;;transferencia;;;;1000.00\n"
)

type part struct {
	field, filename, content string
}

func multipartRequest(t *testing.T, target string, parts []part, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newReconcileHandler(repo *storage.MockRepository) *handlers.ReconcileHandler {
	return handlers.NewReconcileHandler(reconcile.NewService(repo, nil), repo, matcher.DefaultConfig(), 1, nil)
}

func TestReconcileHandler_JSON(t *testing.T) {
	t.Run("reconciles uploaded files and stores the run", func(t *testing.T) {
		// Arrange
		repo := storage.NewMockRepository()
		handler := newReconcileHandler(repo)
		req := multipartRequest(t, "/api/reconcile",
			[]part{{"ledger", "mayor.csv", ledgerCSV}, {"statement", "banco.csv", statementCSV}},
			map[string]string{"date_tolerance": "1"})
		rec := httptest.NewRecorder()

		// Act
		handler.Reconcile(rec, req)

		// Assert
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var response dto.ReconcileResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.NotEmpty(t, response.RunID)
		assert.Equal(t, 1, response.Params.DateTolerance)
		assert.Equal(t, assembler.Metrics{Total: 2, Matched: 1, LedgerOnly: 1}, response.Metrics)
		assert.Equal(t, 2, response.RowCount)
		assert.Equal(t, 1, response.Stats.DateTolerance)
		assert.True(t, repo.SaveRunCalled)
		assert.Equal(t, "mayor.csv", repo.LastSavedRun.LedgerName)
	})

	t.Run("store=false skips history", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := newReconcileHandler(repo)
		req := multipartRequest(t, "/api/reconcile",
			[]part{{"ledger", "mayor.csv", ledgerCSV}, {"statement", "banco.csv", statementCSV}},
			map[string]string{"store": "false"})
		rec := httptest.NewRecorder()

		handler.Reconcile(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, repo.SaveRunCalled)
	})
}

func TestReconcileHandler_XLSX(t *testing.T) {
	repo := storage.NewMockRepository()
	handler := newReconcileHandler(repo)
	req := multipartRequest(t, "/api/reconcile?format=xlsx",
		[]part{{"ledger", "mayor.csv", ledgerCSV}, {"statement", "banco.csv", statementCSV}}, nil)
	rec := httptest.NewRecorder()

	handler.Reconcile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "conciliacion.xlsx")
	assert.NotEmpty(t, rec.Header().Get("X-Run-ID"))

	wb, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()
	rows, err := wb.GetRows("Detalle")
	require.NoError(t, err)
	assert.Equal(t, assembler.ExportColumns, rows[0])
}

func TestReconcileHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		parts      []part
		fields     map[string]string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing statement",
			parts:      []part{{"ledger", "mayor.csv", ledgerCSV}},
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeBadRequest,
		},
		{
			name:       "missing ledger",
			parts:      []part{{"statement", "banco.csv", statementCSV}},
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
		},
		{
			name:       "unsupported format",
			parts:      []part{{"ledger", "mayor.pdf", "x"}, {"statement", "banco.csv", statementCSV}},
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeBadRequest,
		},
		{
			name:       "missing columns",
			parts:      []part{{"ledger", "mayor.csv", "Fecha;Importe\n01/03/2024;1\n"}, {"statement", "banco.csv", statementCSV}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   dto.ErrCodeSchema,
		},
		{
			name:       "invalid tolerance",
			parts:      []part{{"ledger", "mayor.csv", ledgerCSV}, {"statement", "banco.csv", statementCSV}},
			fields:     map[string]string{"date_tolerance": "-1"},
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
		},
		{
			name:       "invalid direction",
			parts:      []part{{"ledger", "mayor.csv", ledgerCSV}, {"statement", "banco.csv", statementCSV}},
			fields:     map[string]string{"direction": "sideways"},
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
		},
		{
			name:       "unknown previous run",
			parts:      []part{{"statement", "banco.csv", statementCSV}},
			fields:     map[string]string{"previous_run_id": "missing"},
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newReconcileHandler(storage.NewMockRepository())
			req := multipartRequest(t, "/api/reconcile", tt.parts, tt.fields)
			rec := httptest.NewRecorder()

			handler.Reconcile(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var apiErr dto.APIError
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestReconcileHandler_SchemaErrorListsMissing(t *testing.T) {
	handler := newReconcileHandler(storage.NewMockRepository())
	req := multipartRequest(t, "/api/reconcile",
		[]part{{"ledger", "mayor.csv", ledgerCSV}, {"statement", "banco.csv", "FECHA;IMPORTE\n01/03/2024;1\n"}}, nil)
	rec := httptest.NewRecorder()

	handler.Reconcile(rec, req)

	var apiErr dto.APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
	assert.Contains(t, apiErr.Missing, "NUM")
	assert.Contains(t, apiErr.Message, "Banco: faltan columnas")
}

// routed serves a single handler behind a chi pattern so URL params resolve.
func routed(pattern string, h http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Get(pattern, h)
	return r
}

func seededRepo() *storage.MockRepository {
	repo := storage.NewMockRepository()
	detail := table.New("Importe_MAYOR", "IMPORTE_BANCO", assembler.ColStatus, assembler.ColGroupID)
	detail.AppendRow([]table.Cell{table.Text("300,00"), table.Number(1000), table.Text("Conciliado por agrupación"), table.Text("G1")})
	detail.AppendRow([]table.Cell{table.Text("50,00"), table.Null(), table.Text("Solo en Mayor"), table.Null()})
	repo.AddRun(&storage.Run{
		ID:        "run-1",
		CreatedAt: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Direction: string(matcher.LedgerToStatement),
		Summary:   assembler.Summary{{Status: "Conciliado por agrupación", Count: 1}, {Status: "Solo en Mayor", Count: 1}},
	}, detail)
	return repo
}

func TestRunsHandler_List(t *testing.T) {
	t.Run("returns empty list when no runs", func(t *testing.T) {
		handler := handlers.NewRunsHandler(storage.NewMockRepository(), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var response dto.RunListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Empty(t, response.Runs)
		assert.Equal(t, 0, response.Count)
	})

	t.Run("returns runs from repository", func(t *testing.T) {
		handler := handlers.NewRunsHandler(seededRepo(), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=5", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		var response dto.RunListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Equal(t, 1, response.Count)
		assert.Equal(t, "run-1", response.Runs[0].ID)
		assert.Equal(t, "2024-03-10T00:00:00Z", response.Runs[0].CreatedAt)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := storage.NewMockRepository()
		repo.ListRunsErr = assert.AnError
		handler := handlers.NewRunsHandler(repo, nil)

		rec := httptest.NewRecorder()
		handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRunsHandler_Get(t *testing.T) {
	handler := handlers.NewRunsHandler(seededRepo(), nil)
	srv := routed("/api/runs/{id}", handler.Get)

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/run-1", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var response dto.RunResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "MAYOR→BANCO", response.Params.Direction)
		assert.Len(t, response.Summary, 2)
	})

	t.Run("not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/nope", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRunsHandler_Rows(t *testing.T) {
	handler := handlers.NewRunsHandler(seededRepo(), nil)
	srv := routed("/api/runs/{id}/rows", handler.Rows)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/run-1/rows?estado=Solo%20en%20Mayor", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var response struct {
		Columns []string         `json:"columns"`
		Rows    []map[string]any `json:"rows"`
		Count   int              `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	require.Equal(t, 1, response.Count)
	assert.Equal(t, "50,00", response.Rows[0]["Importe_MAYOR"])
	assert.Nil(t, response.Rows[0]["IMPORTE_BANCO"])
}

func TestRunsHandler_Export(t *testing.T) {
	handler := handlers.NewRunsHandler(seededRepo(), nil)
	srv := routed("/api/runs/{id}/export", handler.Export)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/run-1/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	wb, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()
	summary, err := wb.GetRows("Resumen")
	require.NoError(t, err)
	assert.Equal(t, []string{"estado", "cantidad"}, summary[0])
	assert.Len(t, summary, 3)
}
