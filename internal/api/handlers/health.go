package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ofizant/conciliacion/internal/api/dto"
	"github.com/ofizant/conciliacion/internal/domain/matcher"
	"github.com/ofizant/conciliacion/internal/infrastructure/storage"
)

// HealthHandler reports liveness, run history reachability and the engine
// defaults requests fall back to.
type HealthHandler struct {
	repo     storage.RunRepository
	defaults matcher.Config
}

// NewHealthHandler creates a new health handler. repo may be nil.
func NewHealthHandler(repo storage.RunRepository, defaults matcher.Config) *HealthHandler {
	return &HealthHandler{repo: repo, defaults: defaults}
}

// ServeHTTP handles the health check request. A failing history probe
// answers 503 so load balancers take the instance out.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var probeErr error
	if h.repo != nil {
		_, probeErr = h.repo.ListRuns(1)
	}
	response := dto.NewHealthResponse(h.repo != nil, probeErr, h.defaults)

	status := http.StatusOK
	if probeErr != nil {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
