package handler

import (
	"context"
	"net/http"
	"strconv"

	"divorcerisk/internal/model"
	"divorcerisk/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// PredictionService is the prediction surface used by the REST layer
type PredictionService interface {
	Predict(ctx context.Context, clinicianID, assessmentID string) (*model.PredictionRecord, error)
	History(ctx context.Context, clinicianID, assessmentID string, limit int) ([]*model.PredictionRecord, error)
}

// PredictionHandler handles prediction endpoints
type PredictionHandler struct {
	svc    PredictionService
	logger *zap.Logger
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(svc PredictionService, logger *zap.Logger) *PredictionHandler {
	return &PredictionHandler{svc: svc, logger: logger}
}

// Predict handles POST /v1/assessments/{id}/predict
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, err := h.svc.Predict(r.Context(), middleware.GetClinicianID(r.Context()), id)
	if err != nil {
		logFailure(h.logger, r, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// History handles GET /v1/assessments/{id}/predictions?limit=N
func (h *PredictionHandler) History(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := h.svc.History(r.Context(), middleware.GetClinicianID(r.Context()), id, limit)
	if err != nil {
		logFailure(h.logger, r, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"predictions": records})
}

func logFailure(logger *zap.Logger, r *http.Request, err error) {
	if logger == nil {
		return
	}
	logger.Warn("request failed",
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err))
}
