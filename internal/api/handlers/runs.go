package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ofizant/conciliacion/internal/api/dto"
	"github.com/ofizant/conciliacion/internal/domain/assembler"
	"github.com/ofizant/conciliacion/internal/domain/table"
	"github.com/ofizant/conciliacion/internal/infrastructure/storage"
)

// RunsHandler serves stored reconciliation runs.
type RunsHandler struct {
	*Base
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(repo storage.Repository, logger *slog.Logger) *RunsHandler {
	return &RunsHandler{
		Base: NewBase(repo, logger),
	}
}

// List handles GET /api/runs - returns the most recent runs.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := ParseIntParam(r, "limit", 20)

	runs, err := h.repo.ListRuns(limit)
	if err != nil {
		h.WriteRunError(w, err)
		return
	}

	response := dto.RunListResponse{
		Runs:  make([]dto.RunResponse, 0, len(runs)),
		Count: len(runs),
	}
	for _, run := range runs {
		response.Runs = append(response.Runs, dto.NewRunResponse(run))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/runs/{id} - returns a single run header.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return
	}

	run, err := h.repo.GetRun(id)
	if err != nil {
		h.WriteRunError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.NewRunResponse(run))
}

// Rows handles GET /api/runs/{id}/rows?estado= - returns the annotated rows
// of a run, optionally only those with one status.
func (h *RunsHandler) Rows(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.repo.GetRun(id)
	if err != nil {
		h.WriteRunError(w, err)
		return
	}
	rows, err := h.repo.ListRunRows(id, r.URL.Query().Get("estado"))
	if err != nil {
		h.WriteRunError(w, err)
		return
	}

	response := dto.RunRowsResponse{
		RunID:   run.ID,
		Columns: run.Columns,
		Rows:    make([]map[string]table.Cell, 0, len(rows)),
		Count:   len(rows),
	}
	for _, row := range rows {
		response.Rows = append(response.Rows, row.Record(run.Columns))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Export handles GET /api/runs/{id}/export - streams the run as a workbook.
func (h *RunsHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.repo.GetRun(id)
	if err != nil {
		h.WriteRunError(w, err)
		return
	}
	detail, err := h.repo.LoadRunTable(id)
	if err != nil {
		h.WriteRunError(w, err)
		return
	}

	h.WriteWorkbook(w, "conciliacion_"+run.ID+".xlsx", assembler.Finalize(detail), run.Summary.Table())
}
