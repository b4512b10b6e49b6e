package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"divorcerisk/internal/model"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
)

const routerSystemPrompt = `You are a semantic router for a fixed bank of survey items.
For each USER sentence, select EXACTLY ONE canonical item that best matches the MEANING, not just keywords.
Also classify the stance of the USER sentence relative to the chosen canonical text:
- "entails" = the user expresses essentially the SAME claim
- "contradicts" = the user expresses the OPPOSITE claim
- "neutral" = you cannot reasonably tell either way

Rules:
1) Prefer "entails" or "contradicts" when the meaning is clear. Use "neutral" only when truly unsure.
2) Do not guess below the confidence threshold given in the request; if nothing is above it, return "no_match".
3) Return exactly one result per user sentence, in the same order.

Output JSON only:
{"results": [{"target_id": "<item id>" | "no_match", "relation": "entails" | "contradicts" | "neutral", "confidence": 0.0-1.0, "alternates": [{"id": "<item id>", "confidence": 0.0-1.0}]}]}`

type routePrompt struct {
	Task         string                `json:"task"`
	Instructions routeInstructions     `json:"instructions"`
	UserTexts    []string              `json:"user_texts"`
	Canonical    []model.CanonicalItem `json:"canonical_items"`
}

type routeInstructions struct {
	ChooseOne        bool    `json:"choose_one"`
	ReturnTopK       int     `json:"return_topk"`
	NoGuessBelowConf float64 `json:"no_guess_below_conf"`
}

type routeResponse struct {
	Results *[]model.RouteResult `json:"results"`
	Error   string               `json:"error"`
}

// GeminiRouter implements SemanticRouter on a Gemini model with JSON output
type GeminiRouter struct {
	model     contentGenerator
	modelName string
	retry     RetryPolicy
	logger    *zap.Logger
}

// NewGeminiRouter creates a router backed by the named Gemini model
func NewGeminiRouter(client *genai.Client, modelName string, retry RetryPolicy, logger *zap.Logger) *GeminiRouter {
	m := client.GenerativeModel(strings.TrimSpace(modelName))
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(routerSystemPrompt)},
	}
	return newGeminiRouter(m, modelName, retry, logger)
}

func newGeminiRouter(gen contentGenerator, modelName string, retry RetryPolicy, logger *zap.Logger) *GeminiRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	retry.Logger = logger
	return &GeminiRouter{
		model:     gen,
		modelName: modelName,
		retry:     retry,
		logger:    logger,
	}
}

// ModelName identifies the backing model, used in cache keys
func (r *GeminiRouter) ModelName() string {
	return r.modelName
}

// Route sends the whole batch as a single request
func (r *GeminiRouter) Route(ctx context.Context, req RouteRequest) ([]model.RouteResult, error) {
	body, err := json.Marshal(routePrompt{
		Task: "route_and_relation_batch",
		Instructions: routeInstructions{
			ChooseOne:        true,
			ReturnTopK:       1,
			NoGuessBelowConf: req.MinConfidence,
		},
		UserTexts: req.Texts,
		Canonical: req.Items,
	})
	if err != nil {
		return nil, fmt.Errorf("encode route prompt: %w", err)
	}

	r.logger.Debug("routing batch", zap.Int("texts", len(req.Texts)), zap.String("model", r.modelName))

	var results []model.RouteResult
	err = r.retry.Do(ctx, "route", func(ctx context.Context) error {
		resp, err := r.model.GenerateContent(ctx, genai.Text(string(body)))
		if err != nil {
			return err
		}
		out, err := parseRouteResponse(firstText(resp))
		if err != nil {
			return err
		}
		results = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func parseRouteResponse(text string) ([]model.RouteResult, error) {
	text = stripCodeFences(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}

	var resp routeResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if resp.Results == nil {
		if resp.Error != "" {
			return nil, fmt.Errorf("%w: model reported error: %s", ErrMalformedOutput, resp.Error)
		}
		return nil, fmt.Errorf("%w: missing results list", ErrMalformedOutput)
	}

	results := *resp.Results
	for i := range results {
		r := &results[i]
		r.TargetID = strings.TrimSpace(r.TargetID)
		switch rel := model.Relation(strings.ToLower(strings.TrimSpace(string(r.Relation)))); rel {
		case model.RelationEntails, model.RelationContradicts:
			r.Relation = rel
		default:
			r.Relation = model.RelationNeutral
		}
		r.Confidence = clampUnit(r.Confidence)
		for j := range r.Alternates {
			r.Alternates[j].Confidence = clampUnit(r.Alternates[j].Confidence)
		}
	}
	return results, nil
}

func clampUnit(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
