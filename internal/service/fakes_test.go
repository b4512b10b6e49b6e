package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"divorcerisk/internal/cache"
	"divorcerisk/internal/model"

	"github.com/google/generative-ai-go/genai"
)

type stubRouter struct {
	mu      sync.Mutex
	results func(req RouteRequest) ([]model.RouteResult, error)
	calls   []RouteRequest
}

func (r *stubRouter) Route(_ context.Context, req RouteRequest) ([]model.RouteResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, req)
	r.mu.Unlock()
	return r.results(req)
}

func (r *stubRouter) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// routeByText answers every text from a fixed table; unknown texts get no_match
func routeByText(table map[string]model.RouteResult) *stubRouter {
	return &stubRouter{results: func(req RouteRequest) ([]model.RouteResult, error) {
		out := make([]model.RouteResult, len(req.Texts))
		for i, text := range req.Texts {
			r, ok := table[text]
			if !ok {
				r = model.RouteResult{TargetID: model.NoMatch, Relation: model.RelationNeutral}
			}
			out[i] = r
		}
		return out, nil
	}}
}

func failingRouter(err error) *stubRouter {
	return &stubRouter{results: func(RouteRequest) ([]model.RouteResult, error) {
		return nil, err
	}}
}

type stubClassifier struct {
	p    float64
	err  error
	seen [][]float64
}

func (c *stubClassifier) PredictProba(x []float64) (float64, error) {
	c.seen = append(c.seen, append([]float64(nil), x...))
	return c.p, c.err
}

type stubPersonalizer struct {
	text  string
	err   error
	calls int
}

func (p *stubPersonalizer) Personalize(context.Context, []model.DomainRiskScore, []model.RecommendationModule) (string, error) {
	p.calls++
	return p.text, p.err
}

type stubGenerator struct {
	replies []string
	errs    []error
	prompts []string
}

func (g *stubGenerator) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	i := len(g.prompts)
	if len(parts) > 0 {
		if t, ok := parts[0].(genai.Text); ok {
			g.prompts = append(g.prompts, string(t))
		} else {
			g.prompts = append(g.prompts, "")
		}
	}
	if i < len(g.errs) && g.errs[i] != nil {
		return nil, g.errs[i]
	}
	if i >= len(g.replies) {
		return nil, errors.New("no scripted reply")
	}
	return textResponse(g.replies[i]), nil
}

func textResponse(s string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(s)}},
		}},
	}
}

type recordedEvent struct {
	assessmentID string
	msgType      string
	payload      interface{}
}

type recordingBroadcaster struct {
	events []recordedEvent
}

func (b *recordingBroadcaster) BroadcastToAssessment(assessmentID, msgType string, payload interface{}) {
	b.events = append(b.events, recordedEvent{assessmentID, msgType, payload})
}

type memAssessments struct {
	byID map[string]*model.Assessment
}

func newMemAssessments(list ...*model.Assessment) *memAssessments {
	m := &memAssessments{byID: map[string]*model.Assessment{}}
	for _, a := range list {
		m.byID[a.ID] = a
	}
	return m
}

func (m *memAssessments) Create(_ context.Context, a *model.Assessment) error {
	m.byID[a.ID] = a
	return nil
}

func (m *memAssessments) GetByID(_ context.Context, id string) (*model.Assessment, error) {
	return m.byID[id], nil
}

func (m *memAssessments) GetByClinicianID(_ context.Context, clinicianID string) ([]*model.Assessment, error) {
	var out []*model.Assessment
	for _, a := range m.byID {
		if a.ClinicianID == clinicianID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memAssessments) UpdateStatus(_ context.Context, id string, status model.AssessmentStatus) error {
	if a, ok := m.byID[id]; ok {
		a.Status = status
	}
	return nil
}

type memAnswers struct {
	list []*model.StoredAnswer
}

func (m *memAnswers) InsertMany(_ context.Context, answers []*model.StoredAnswer) error {
	m.list = append(m.list, answers...)
	return nil
}

func (m *memAnswers) GetByAssessmentID(_ context.Context, assessmentID string) ([]*model.StoredAnswer, error) {
	var out []*model.StoredAnswer
	for _, a := range m.list {
		if a.AssessmentID == assessmentID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memAnswers) CountByAssessmentID(ctx context.Context, assessmentID string) (int64, error) {
	out, _ := m.GetByAssessmentID(ctx, assessmentID)
	return int64(len(out)), nil
}

type memPredictions struct {
	list []*model.PredictionRecord
}

func (m *memPredictions) Append(_ context.Context, p *model.PredictionRecord) error {
	m.list = append(m.list, p)
	return nil
}

func (m *memPredictions) GetLatest(ctx context.Context, assessmentID string) (*model.PredictionRecord, error) {
	h, _ := m.GetHistory(ctx, assessmentID, 1)
	if len(h) == 0 {
		return nil, nil
	}
	return h[0], nil
}

func (m *memPredictions) GetHistory(_ context.Context, assessmentID string, limit int) ([]*model.PredictionRecord, error) {
	var out []*model.PredictionRecord
	for i := len(m.list) - 1; i >= 0; i-- {
		if m.list[i].AssessmentID == assessmentID {
			out = append(out, m.list[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memRecommendations struct {
	byID map[string]*model.RecommendationRecord
}

func (m *memRecommendations) Upsert(_ context.Context, rec *model.RecommendationRecord) error {
	if m.byID == nil {
		m.byID = map[string]*model.RecommendationRecord{}
	}
	m.byID[rec.AssessmentID] = rec
	return nil
}

func (m *memRecommendations) Get(_ context.Context, assessmentID string) (*model.RecommendationRecord, error) {
	return m.byID[assessmentID], nil
}

type memRiskBoard struct {
	scores map[string]map[string]float64
}

func (b *memRiskBoard) UpdateScore(_ context.Context, clinicianID, assessmentID string, p float64) error {
	if b.scores == nil {
		b.scores = map[string]map[string]float64{}
	}
	if b.scores[clinicianID] == nil {
		b.scores[clinicianID] = map[string]float64{}
	}
	b.scores[clinicianID][assessmentID] = p
	return nil
}

func (b *memRiskBoard) GetTop(_ context.Context, clinicianID string, limit int) ([]cache.RiskEntry, error) {
	var out []cache.RiskEntry
	for id, p := range b.scores[clinicianID] {
		out = append(out, cache.RiskEntry{AssessmentID: id, Probability: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Probability > out[j].Probability })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

type memRouteCache struct {
	data   map[string][]model.RouteResult
	getErr error
	sets   int
}

func (c *memRouteCache) Get(_ context.Context, key string) ([]model.RouteResult, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.data[key], nil
}

func (c *memRouteCache) Set(_ context.Context, key string, results []model.RouteResult) error {
	if c.data == nil {
		c.data = map[string][]model.RouteResult{}
	}
	c.data[key] = results
	c.sets++
	return nil
}
