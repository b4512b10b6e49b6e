package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"divorcerisk/internal/model"
	"divorcerisk/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AssessmentService is the assessment surface used by the REST layer
type AssessmentService interface {
	Create(ctx context.Context, clinicianID string, req *model.CreateAssessmentRequest) (*model.Assessment, error)
	Get(ctx context.Context, clinicianID, id string) (*model.Assessment, error)
	AddAnswers(ctx context.Context, clinicianID, id string, items []model.BulkAnswerItem) (int, error)
	Answers(ctx context.Context, clinicianID, id string) ([]*model.StoredAnswer, error)
	Dashboard(ctx context.Context, clinicianID string) ([]*model.DashboardRow, error)
}

// AssessmentHandler handles assessment endpoints
type AssessmentHandler struct {
	svc    AssessmentService
	logger *zap.Logger
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(svc AssessmentService, logger *zap.Logger) *AssessmentHandler {
	return &AssessmentHandler{svc: svc, logger: logger}
}

// Create handles POST /v1/assessments
func (h *AssessmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	clinicianID := middleware.GetClinicianID(r.Context())
	if clinicianID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.CreateAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.svc.Create(r.Context(), clinicianID, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// List handles GET /v1/assessments
func (h *AssessmentHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Dashboard(r.Context(), middleware.GetClinicianID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assessments": rows})
}

// Get handles GET /v1/assessments/{id}
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	a, err := h.svc.Get(r.Context(), middleware.GetClinicianID(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Answers handles GET /v1/assessments/{id}/answers
func (h *AssessmentHandler) Answers(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	answers, err := h.svc.Answers(r.Context(), middleware.GetClinicianID(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"answers": answers})
}

// BulkAnswers handles POST /v1/assessments/{id}/answers/bulk
func (h *AssessmentHandler) BulkAnswers(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req model.BulkAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := h.svc.AddAnswers(r.Context(), middleware.GetClinicianID(r.Context()), id, req.Items)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"inserted": n})
}

func (h *AssessmentHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	logFailure(h.logger, r, err)
	writeServiceError(w, err)
}
