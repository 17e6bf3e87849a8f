package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ofizant/conciliacion/internal/adapters/sheets"
	"github.com/ofizant/conciliacion/internal/api/dto"
	"github.com/ofizant/conciliacion/internal/application/reconcile"
	"github.com/ofizant/conciliacion/internal/domain/matcher"
	"github.com/ofizant/conciliacion/internal/domain/normalizer"
	"github.com/ofizant/conciliacion/internal/domain/table"
	"github.com/ofizant/conciliacion/internal/infrastructure/storage"
)

// Base provides shared functionality for all handlers.
type Base struct {
	repo   storage.Repository
	logger *slog.Logger
}

// NewBase creates a new base handler with the given repository.
func NewBase(repo storage.Repository, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{repo: repo, logger: logger}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// WriteRunError maps a service or storage error to an API error.
func (b *Base) WriteRunError(w http.ResponseWriter, err error) {
	var schemaErr *normalizer.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		b.WriteError(w, http.StatusUnprocessableEntity, dto.SchemaError(schemaErr.Error(), schemaErr.Missing))
	case errors.Is(err, storage.ErrRunNotFound):
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError("run"))
	case errors.Is(err, matcher.ErrInvalidConfig), errors.Is(err, reconcile.ErrInvalidRequest):
		b.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
	case errors.Is(err, sheets.ErrUnsupportedFormat), errors.Is(err, sheets.ErrEmptyFile):
		b.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
	default:
		b.logger.Error("request failed", "error", err)
		b.WriteError(w, http.StatusInternalServerError, dto.InternalError())
	}
}

// WriteWorkbook streams detail and summary as an XLSX attachment.
func (b *Base) WriteWorkbook(w http.ResponseWriter, filename string, detail, summary *table.Table) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if err := sheets.WriteWorkbook(w, detail, summary); err != nil {
		// Headers are already sent; the client sees a truncated file.
		b.logger.Error("failed to write workbook", "error", err)
	}
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseBoolParam parses a boolean query parameter with a default value.
func ParseBoolParam(r *http.Request, name string, defaultVal bool) bool {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}
