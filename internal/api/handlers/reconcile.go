package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ofizant/conciliacion/internal/adapters/sheets"
	"github.com/ofizant/conciliacion/internal/api/dto"
	"github.com/ofizant/conciliacion/internal/application/reconcile"
	"github.com/ofizant/conciliacion/internal/domain/assembler"
	"github.com/ofizant/conciliacion/internal/domain/matcher"
	"github.com/ofizant/conciliacion/internal/domain/table"
	"github.com/ofizant/conciliacion/internal/infrastructure/storage"
)

// Multipart part names accepted by POST /api/reconcile.
const (
	PartLedger    = "ledger"
	PartStatement = "statement"
	PartPrevious  = "previous"
)

// errMissingPart reports an absent multipart file.
var errMissingPart = errors.New("missing file")

// ReconcileHandler runs reconciliations from uploaded files.
type ReconcileHandler struct {
	*Base
	service   *reconcile.Service
	defaults  matcher.Config
	maxUpload int64
}

// NewReconcileHandler creates a reconcile handler. defaults fills any
// parameter the request omits; maxUploadMB bounds the multipart body.
func NewReconcileHandler(service *reconcile.Service, repo storage.Repository, defaults matcher.Config, maxUploadMB int, logger *slog.Logger) *ReconcileHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 32
	}
	return &ReconcileHandler{
		Base:      NewBase(repo, logger),
		service:   service,
		defaults:  defaults,
		maxUpload: int64(maxUploadMB) << 20,
	}
}

// Reconcile handles POST /api/reconcile.
//
// Parts: "statement" (required), "ledger", "previous". Form fields:
// date_tolerance, max_group_size, direction, amount_tolerance, previous_run_id,
// store (default true). With ?format=xlsx the result workbook is returned
// instead of the JSON summary.
func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid multipart form: "+err.Error()))
		return
	}

	cfg, err := h.params(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	req := reconcile.Request{
		Config:        cfg,
		PreviousRunID: strings.TrimSpace(r.FormValue("previous_run_id")),
		Store:         r.FormValue("store") != "false" && r.FormValue("store") != "0",
	}

	if req.Statement, req.StatementName, err = readPart(r, PartStatement); err != nil {
		h.writePartError(w, PartStatement, err)
		return
	}
	if req.Ledger, req.LedgerName, err = readPart(r, PartLedger); err != nil && !errors.Is(err, errMissingPart) {
		h.writePartError(w, PartLedger, err)
		return
	}
	if req.Previous, _, err = readPart(r, PartPrevious); err != nil && !errors.Is(err, errMissingPart) {
		h.writePartError(w, PartPrevious, err)
		return
	}

	out, err := h.service.Run(r.Context(), req)
	if err != nil {
		h.WriteRunError(w, err)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "xlsx") {
		if out.RunID != "" {
			w.Header().Set("X-Run-ID", out.RunID)
		}
		h.WriteWorkbook(w, "conciliacion.xlsx", assembler.Finalize(out.Detail), out.Summary.Table())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ReconcileResponse{
		RunID:        out.RunID,
		FromPrevious: out.FromPrevious,
		Params: dto.ParamsResponse{
			DateTolerance:   cfg.DateTolerance,
			MaxGroupSize:    cfg.MaxGroupSize,
			Direction:       string(cfg.Direction),
			AmountTolerance: cfg.AmountTolerance,
		},
		Summary:  out.Summary,
		Metrics:  out.Metrics,
		Stats:    dto.NewStatsResponse(out.Stats),
		Dropped:  dto.DroppedResponse{Ledger: out.DroppedLedger, Statement: out.DroppedStatement},
		RowCount: out.Detail.Len(),
	})
}

// params reads engine parameters from the form, falling back to defaults.
func (h *ReconcileHandler) params(r *http.Request) (matcher.Config, error) {
	cfg := h.defaults

	if v := strings.TrimSpace(r.FormValue("date_tolerance")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("date_tolerance: %q is not an integer", v)
		}
		cfg.DateTolerance = n
	}
	if v := strings.TrimSpace(r.FormValue("max_group_size")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("max_group_size: %q is not an integer", v)
		}
		cfg.MaxGroupSize = n
	}
	if v := r.FormValue("direction"); v != "" {
		dir, err := matcher.ParseDirection(v)
		if err != nil {
			return cfg, err
		}
		cfg.Direction = dir
	}
	if v := strings.TrimSpace(r.FormValue("amount_tolerance")); v != "" {
		f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
		if err != nil {
			return cfg, fmt.Errorf("amount_tolerance: %q is not a number", v)
		}
		cfg.AmountTolerance = f
	}

	return cfg, cfg.Validate()
}

func (h *ReconcileHandler) writePartError(w http.ResponseWriter, part string, err error) {
	if errors.Is(err, errMissingPart) {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(part+" file is required"))
		return
	}
	h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(part+": "+err.Error()))
}

// readPart parses one uploaded file into a table.
func readPart(r *http.Request, name string) (*table.Table, string, error) {
	f, header, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", errMissingPart
	}
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = f.Close() }()

	t, err := sheets.Read(header.Filename, f)
	if err != nil {
		return nil, "", err
	}
	return t, header.Filename, nil
}
