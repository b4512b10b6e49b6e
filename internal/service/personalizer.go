package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"divorcerisk/internal/model"

	"go.uber.org/zap"
)

// NoConcernsText is the fallback program text when every domain is Green
const NoConcernsText = "No major concerns (all Green)."

const fallbackTopN = 3

// Personalizer writes free-form program guidance from domain risks and modules
type Personalizer interface {
	Personalize(ctx context.Context, risks []model.DomainRiskScore, modules []model.RecommendationModule) (string, error)
}

// FallbackText summarizes the three riskiest domains without any external call
func FallbackText(risks []model.DomainRiskScore) string {
	allGreen := true
	for _, r := range risks {
		if r.Band != model.BandGreen {
			allGreen = false
			break
		}
	}
	if allGreen {
		return NoConcernsText
	}

	sorted := make([]model.DomainRiskScore, len(risks))
	copy(sorted, risks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Risk > sorted[j].Risk
	})
	if len(sorted) > fallbackTopN {
		sorted = sorted[:fallbackTopN]
	}

	parts := make([]string, len(sorted))
	for i, r := range sorted {
		parts[i] = fmt.Sprintf("%s: %s (risk=%s)", capitalize(r.Domain), r.Band, formatRisk(r.Risk))
	}
	return "Top concerns: " + strings.Join(parts, "; ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func formatRisk(r float64) string {
	return strconv.FormatFloat(math.Round(r*1000)/1000, 'f', -1, 64)
}

// BuildProgram asks p for guidance text and falls back to FallbackText on any
// failure. It never returns an error.
func BuildProgram(ctx context.Context, p Personalizer, risks []model.DomainRiskScore, modules []model.RecommendationModule, logger *zap.Logger) model.RecommendationProgram {
	program := model.RecommendationProgram{
		DomainRisks: risks,
		Modules:     modules,
	}

	if p != nil {
		text, err := p.Personalize(ctx, risks, modules)
		if err == nil && strings.TrimSpace(text) == "" {
			err = fmt.Errorf("%w: empty text", ErrMalformedOutput)
		}
		if err == nil {
			program.Text = strings.TrimSpace(text)
			program.Source = model.ProgramPersonalized
			return program
		}
		if logger != nil {
			logger.Warn("personalization failed, using fallback text",
				zap.Error(personalizationError(err)))
		}
	}

	program.Text = FallbackText(risks)
	program.Source = model.ProgramFallback
	return program
}

// personalizationError tags err with ErrPersonalization unless it already is
func personalizationError(err error) error {
	if errors.Is(err, ErrPersonalization) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersonalization, err)
}
