package app

import (
	"context"
	"errors"
	"fmt"

	"divorcerisk/internal/cache"
	"divorcerisk/internal/catalog"
	"divorcerisk/internal/classifier"
	"divorcerisk/internal/config"
	"divorcerisk/internal/model"
	"divorcerisk/internal/service"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrRouterDisabled is returned for every batch when no Gemini key is configured
var ErrRouterDisabled = errors.New("semantic router disabled: GEMINI_API_KEY not set")

// Engines bundles the Gemini-backed pipeline stages shared by the server and the CLI
type Engines struct {
	Router       service.SemanticRouter
	Personalizer service.Personalizer

	client *genai.Client
}

type disabledRouter struct{}

func (disabledRouter) Route(context.Context, service.RouteRequest) ([]model.RouteResult, error) {
	return nil, ErrRouterDisabled
}

// LoadClassifier reads the XGBoost model and checks it against the item bank
func LoadClassifier(cfg *config.Config, cat *catalog.Catalog, logger *zap.Logger) (*classifier.Model, error) {
	clf, err := classifier.LoadFile(cfg.ModelPath, cat.FeatureIDs())
	if err != nil {
		return nil, fmt.Errorf("load classifier: %w", err)
	}
	logger.Info("classifier loaded",
		zap.String("path", cfg.ModelPath),
		zap.String("objective", clf.Objective()),
		zap.Int("trees", clf.Trees()))
	return clf, nil
}

// NewEngines builds the Gemini router and personalizer when a key is set.
// routeCache may be nil. Without a key every answer is audited as a router
// error and programs use the fallback text.
func NewEngines(ctx context.Context, cfg *config.Config, routeCache cache.RouteCache, logger *zap.Logger) (*Engines, error) {
	e := &Engines{Router: disabledRouter{}}
	if !cfg.AI.IsEnabled() {
		logger.Warn("GEMINI_API_KEY not set: routing disabled, personalization uses fallback text")
		return e, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.AI.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	e.client = client

	retry := service.DefaultRetryPolicy()
	retry.AttemptTimeout = cfg.AI.Timeout()

	router := service.NewGeminiRouter(client, cfg.AI.Models.Router, retry, logger)
	e.Router = router
	if routeCache != nil {
		e.Router = service.NewCachedRouter(router, routeCache, router.ModelName(), logger)
	}
	e.Personalizer = service.NewGeminiPersonalizer(client, cfg.AI.Models.Personalize, retry, logger)

	logger.Info("gemini configured",
		zap.String("router_model", cfg.AI.Models.Router),
		zap.String("personalize_model", cfg.AI.Models.Personalize))
	return e, nil
}

// Close releases the Gemini client
func (e *Engines) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}
