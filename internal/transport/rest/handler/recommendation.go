package handler

import (
	"context"
	"net/http"

	"divorcerisk/internal/model"
	"divorcerisk/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RecommendationService is the recommendation surface used by the REST layer
type RecommendationService interface {
	Generate(ctx context.Context, clinicianID, assessmentID string) (*model.RecommendationRecord, error)
	Get(ctx context.Context, clinicianID, assessmentID string) (*model.RecommendationRecord, error)
}

// RecommendationHandler handles recommendation endpoints
type RecommendationHandler struct {
	svc    RecommendationService
	logger *zap.Logger
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(svc RecommendationService, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{svc: svc, logger: logger}
}

// Generate handles POST /v1/assessments/{id}/recommendation
func (h *RecommendationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, err := h.svc.Generate(r.Context(), middleware.GetClinicianID(r.Context()), id)
	if err != nil {
		logFailure(h.logger, r, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Get handles GET /v1/assessments/{id}/recommendation
func (h *RecommendationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, err := h.svc.Get(r.Context(), middleware.GetClinicianID(r.Context()), id)
	if err != nil {
		logFailure(h.logger, r, err)
		writeServiceError(w, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "recommendation not generated yet")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
