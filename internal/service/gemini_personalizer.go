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

const personalizeTemplate = `You are a professional couples therapist.
A couple completed a risk questionnaire, and here are the results.

Risks per domain (0.0 = no risk, 1.0 = highest risk):
%s

Suggested intervention modules per domain:
%s

How to read the scores:
- 0.0 = no risk (healthy domain)
- 0.3 = mild concern
- 0.5 = moderate concern
- 0.7 = high concern
- 1.0 = very high risk (critical domain)
Focus the plan on the highest risk domains first, while also strengthening medium and low risk areas.

Create a 4-week improvement program as a Markdown table with the columns:
Week | Domain Focus | Exercises / Tasks (at least 2 per week, drawn from the suggested modules or new ones)

Notes:
- Cover the most critical domains first.
- Use simple, supportive and practical language.
- Balance emotional connection, communication and conflict resolution.`

type personalizeRisk struct {
	Risk float64    `json:"risk"`
	Band model.Band `json:"band"`
}

// GeminiPersonalizer implements Personalizer with a Gemini text model
type GeminiPersonalizer struct {
	model     contentGenerator
	modelName string
	retry     RetryPolicy
	logger    *zap.Logger
}

// NewGeminiPersonalizer creates a personalizer backed by the named Gemini model
func NewGeminiPersonalizer(client *genai.Client, modelName string, retry RetryPolicy, logger *zap.Logger) *GeminiPersonalizer {
	m := client.GenerativeModel(strings.TrimSpace(modelName))
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0.4),
	}
	return newGeminiPersonalizer(m, modelName, retry, logger)
}

func newGeminiPersonalizer(gen contentGenerator, modelName string, retry RetryPolicy, logger *zap.Logger) *GeminiPersonalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	retry.Logger = logger
	return &GeminiPersonalizer{
		model:     gen,
		modelName: modelName,
		retry:     retry,
		logger:    logger,
	}
}

// Personalize generates the 4-week program text
func (p *GeminiPersonalizer) Personalize(ctx context.Context, risks []model.DomainRiskScore, modules []model.RecommendationModule) (string, error) {
	prompt, err := buildPersonalizePrompt(risks, modules)
	if err != nil {
		return "", err
	}

	var text string
	err = p.retry.Do(ctx, "personalize", func(ctx context.Context) error {
		resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return err
		}
		out := strings.TrimSpace(firstText(resp))
		if out == "" {
			return fmt.Errorf("%w: empty program text", ErrMalformedOutput)
		}
		text = out
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersonalization, err)
	}
	return text, nil
}

func buildPersonalizePrompt(risks []model.DomainRiskScore, modules []model.RecommendationModule) (string, error) {
	riskMap := make(map[string]personalizeRisk, len(risks))
	for _, r := range risks {
		riskMap[r.Domain] = personalizeRisk{Risk: math.Round(r.Risk*1000) / 1000, Band: r.Band}
	}
	moduleMap := make(map[string][]string, len(modules))
	for _, m := range modules {
		moduleMap[m.Domain] = m.Tasks
	}

	riskJSON, err := json.MarshalIndent(riskMap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode domain risks: %w", err)
	}
	moduleJSON, err := json.MarshalIndent(moduleMap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode modules: %w", err)
	}
	return fmt.Sprintf(personalizeTemplate, riskJSON, moduleJSON), nil
}
