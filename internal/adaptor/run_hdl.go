package adaptor

import (
	"encoding/json"
	"net/http"

	"bus-booking/internal/dto/request"
	"bus-booking/internal/usecase"
	"bus-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type RunHandler struct {
	service usecase.RunService
	log     *zap.Logger
}

func NewRunHandler(service usecase.RunService, log *zap.Logger) *RunHandler {
	return &RunHandler{
		service: service,
		log:     log.With(zap.String("handler", "run")),
	}
}

// GetRuns handles GET /api/runs (public)
func (h *RunHandler) GetRuns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	runs, err := h.service.GetRuns(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "get runs")
		return
	}

	utils.ResponseSuccess(w, "success", runs)
}

// GetRunByID handles GET /api/runs/{id} (public)
func (h *RunHandler) GetRunByID(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if runID == "" {
		utils.ResponseBadRequest(w, "Run ID is required", nil)
		return
	}

	run, err := h.service.GetRunByID(r.Context(), runID)
	if err != nil {
		handleServiceError(w, h.log, err, "get run by ID")
		return
	}

	utils.ResponseSuccess(w, "success", run)
}

// GetSeatMap handles GET /api/runs/{id}/seats (public)
func (h *RunHandler) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if runID == "" {
		utils.ResponseBadRequest(w, "Run ID is required", nil)
		return
	}

	seatMap, err := h.service.GetSeatMap(r.Context(), runID)
	if err != nil {
		handleServiceError(w, h.log, err, "get seat map")
		return
	}

	utils.ResponseSuccess(w, "success", seatMap)
}

// ==================== ADMIN METHODS ====================

// CreateRun handles POST /api/admin/runs (admin only)
func (h *RunHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	run, err := h.service.CreateRun(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create run")
		return
	}

	utils.ResponseCreated(w, "success", run)
}

// UpdateRun handles PUT /api/admin/runs/{id} (admin only)
func (h *RunHandler) UpdateRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if runID == "" {
		utils.ResponseBadRequest(w, "Run ID is required", nil)
		return
	}

	var req request.UpdateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	run, err := h.service.UpdateRun(r.Context(), runID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update run")
		return
	}

	utils.ResponseSuccess(w, "success", run)
}

// DeleteRun handles DELETE /api/admin/runs/{id} (admin only)
func (h *RunHandler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if runID == "" {
		utils.ResponseBadRequest(w, "Run ID is required", nil)
		return
	}

	if err := h.service.DeleteRun(r.Context(), runID); err != nil {
		handleServiceError(w, h.log, err, "delete run")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}
