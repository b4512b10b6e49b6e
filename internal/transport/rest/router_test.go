package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"divorcerisk/internal/model"
	"divorcerisk/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssessments struct {
	created *model.CreateAssessmentRequest
	owner   string
}

func (f *fakeAssessments) Create(_ context.Context, clinicianID string, req *model.CreateAssessmentRequest) (*model.Assessment, error) {
	f.created = req
	f.owner = clinicianID
	return &model.Assessment{ID: "as1", ClinicianID: clinicianID, CoupleLabel: req.CoupleLabel}, nil
}

func (f *fakeAssessments) Get(_ context.Context, clinicianID, id string) (*model.Assessment, error) {
	if id != "as1" {
		return nil, service.ErrAssessmentNotFound
	}
	return &model.Assessment{ID: id, ClinicianID: clinicianID}, nil
}

func (f *fakeAssessments) AddAnswers(_ context.Context, _, _ string, items []model.BulkAnswerItem) (int, error) {
	if err := service.ValidateAnswers(items); err != nil {
		return 0, err
	}
	return len(items), nil
}

func (f *fakeAssessments) Answers(context.Context, string, string) ([]*model.StoredAnswer, error) {
	return []*model.StoredAnswer{}, nil
}

func (f *fakeAssessments) Dashboard(context.Context, string) ([]*model.DashboardRow, error) {
	return []*model.DashboardRow{}, nil
}

type fakePredictions struct{}

func (fakePredictions) Predict(_ context.Context, _, id string) (*model.PredictionRecord, error) {
	switch id {
	case "as1":
		return &model.PredictionRecord{ID: "p1", AssessmentID: id, Probability: 0.75, PredictedClass: 1}, nil
	case "empty":
		return nil, service.ErrNoAnswers
	}
	return nil, service.ErrAssessmentNotFound
}

func (fakePredictions) History(_ context.Context, _, _ string, limit int) ([]*model.PredictionRecord, error) {
	if limit == 1 {
		return []*model.PredictionRecord{{ID: "p1"}}, nil
	}
	return []*model.PredictionRecord{}, nil
}

type fakeRecommendations struct{}

func (fakeRecommendations) Generate(_ context.Context, _, id string) (*model.RecommendationRecord, error) {
	if id == "as1" {
		return nil, service.ErrNoPrediction
	}
	return nil, fmt.Errorf("mongo: %w", context.DeadlineExceeded)
}

func (fakeRecommendations) Get(context.Context, string, string) (*model.RecommendationRecord, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*httptest.Server, string, *fakeAssessments) {
	t.Helper()
	auth := service.NewAuthService("dr", "pw", "secret", time.Hour)
	assessments := &fakeAssessments{}
	srv := httptest.NewServer(NewRouter(&Container{
		AuthService:           auth,
		AssessmentService:     assessments,
		PredictionService:     fakePredictions{},
		RecommendationService: fakeRecommendations{},
	}))
	t.Cleanup(srv.Close)

	login, err := auth.Login("dr", "pw")
	require.NoError(t, err)
	return srv, login.Token, assessments
}

func do(t *testing.T, srv *httptest.Server, method, path, token, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealthAndCORS(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, body := do(t, srv, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, _ = do(t, srv, http.MethodOptions, "/v1/assessments", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestLogin(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/v1/auth/login", "", `{"username":"dr","password":"pw"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["clinicianId"])

	resp, _ = do(t, srv, http.MethodPost, "/v1/auth/login", "", `{"username":"dr","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/v1/auth/login", "", `{`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClinicianRoutesRequireToken(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, _ := do(t, srv, http.MethodGet, "/v1/assessments", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/v1/assessments", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAssessmentEndpoints(t *testing.T) {
	srv, token, fake := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/v1/assessments", token, `{"coupleLabel":"Doe","title":"intake"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "as1", body["id"])
	assert.Equal(t, "intake", fake.created.Title)
	assert.NotEmpty(t, fake.owner)

	resp, body = do(t, srv, http.MethodGet, "/v1/assessments", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "assessments")

	resp, _ = do(t, srv, http.MethodGet, "/v1/assessments/missing", token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, srv, http.MethodPost, "/v1/assessments/as1/answers/bulk", token,
		`{"items":[{"partner":"A","value":2,"text":"We talk"},{"partner":"B","value":4,"text":"We argue"}]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2.0, body["inserted"])

	resp, _ = do(t, srv, http.MethodPost, "/v1/assessments/as1/answers/bulk", token,
		`{"items":[{"partner":"A","value":7,"text":"x"}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/v1/assessments/as1/answers/bulk", token,
		`{"items":[{"partner":"Z","value":1,"text":"x"}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPredictionEndpoints(t *testing.T) {
	srv, token, _ := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/v1/assessments/as1/predict", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0.75, body["probability"])

	resp, _ = do(t, srv, http.MethodPost, "/v1/assessments/empty/predict", token, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/v1/assessments/x/predict", token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, srv, http.MethodGet, "/v1/assessments/as1/predictions?limit=1", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["predictions"], 1)

	resp, _ = do(t, srv, http.MethodGet, "/v1/assessments/as1/predictions?limit=-2", token, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecommendationEndpoints(t *testing.T) {
	srv, token, _ := newTestServer(t)

	resp, _ := do(t, srv, http.MethodPost, "/v1/assessments/as1/recommendation", token, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body := do(t, srv, http.MethodPost, "/v1/assessments/other/recommendation", token, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal error", body["error"])

	resp, _ = do(t, srv, http.MethodGet, "/v1/assessments/as1/recommendation", token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
