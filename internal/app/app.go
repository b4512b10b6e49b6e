// Package app wires configuration, storage and services for the binaries.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"divorcerisk/internal/cache"
	"divorcerisk/internal/catalog"
	"divorcerisk/internal/classifier"
	"divorcerisk/internal/config"
	"divorcerisk/internal/repository"
	"divorcerisk/internal/service"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// App holds the storage clients, repositories and services of the server
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Catalog *catalog.Catalog

	Mongo *mongo.Client
	Redis *redis.Client

	AssessmentRepo     repository.AssessmentRepo
	AnswerRepo         repository.AnswerRepo
	PredictionRepo     repository.PredictionRepo
	RecommendationRepo repository.RecommendationRepo
	RouteCache         cache.RouteCache
	RiskBoard          cache.RiskBoard

	Engines    *Engines
	Classifier *classifier.Model

	Auth            *service.AuthService
	Assessments     *service.AssessmentService
	Predictions     *service.PredictionService
	Recommendations *service.RecommendationService
}

// NewLogger builds a production zap logger; "debug" lowers the level
func NewLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(level, "debug") {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Connect opens MongoDB and Redis and builds the repositories
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, err
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("db", cfg.MongoDB))

	rdb := redis.NewClient(&redis.Options{
		Addr: strings.TrimPrefix(cfg.RedisAddr, "redis://"),
	})
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = mongoClient.Disconnect(ctx)
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

	db := mongoClient.Database(cfg.MongoDB)
	indexCtx, cancelIndex := context.WithTimeout(ctx, 10*time.Second)
	defer cancelIndex()
	if err := repository.EnsureIndexes(indexCtx, db); err != nil {
		logger.Warn("failed to create indexes", zap.Error(err))
	} else {
		logger.Info("indexes ensured")
	}

	return &App{
		Config:             cfg,
		Logger:             logger,
		Catalog:            cat,
		Mongo:              mongoClient,
		Redis:              rdb,
		AssessmentRepo:     repository.NewAssessmentRepo(db),
		AnswerRepo:         repository.NewAnswerRepo(db),
		PredictionRepo:     repository.NewPredictionRepo(db),
		RecommendationRepo: repository.NewRecommendationRepo(db),
		RouteCache:         cache.NewRouteCache(rdb, cfg.RouteCacheTTL),
		RiskBoard:          cache.NewRiskBoard(rdb),
	}, nil
}

// BuildServices loads the classifier, the Gemini clients and the services
func (a *App) BuildServices(ctx context.Context) error {
	clf, err := LoadClassifier(a.Config, a.Catalog, a.Logger)
	if err != nil {
		return err
	}
	a.Classifier = clf

	engines, err := NewEngines(ctx, a.Config, a.RouteCache, a.Logger)
	if err != nil {
		return err
	}
	a.Engines = engines

	dedup, err := service.ParseDedupPolicy(a.Config.DedupPolicy)
	if err != nil {
		return err
	}
	normalizer := service.NewNormalizer(a.Catalog, engines.Router, service.NormalizerOptions{
		RelationThreshold: a.Config.RelationThreshold,
		MinConfidence:     a.Config.MinConfidence,
		Dedup:             dedup,
	}, a.Logger)
	pipeline := service.NewPipeline(normalizer, clf, a.Config.DecisionThreshold)

	a.Auth = service.NewAuthService(a.Config.ClinicianUsername, a.Config.ClinicianPassword, a.Config.JWTSecret, a.Config.TokenTTL)
	a.Assessments = service.NewAssessmentService(a.AssessmentRepo, a.AnswerRepo, a.PredictionRepo, a.RiskBoard, a.Logger)
	a.Predictions = service.NewPredictionService(a.AssessmentRepo, a.AnswerRepo, a.PredictionRepo, a.RiskBoard, pipeline, a.Logger)
	a.Recommendations = service.NewRecommendationService(a.AssessmentRepo, a.PredictionRepo, a.RecommendationRepo,
		a.Catalog, engines.Personalizer, a.Logger)
	return nil
}

// SetBroadcaster routes pipeline events to b
func (a *App) SetBroadcaster(b service.Broadcaster) {
	a.Predictions.SetBroadcaster(b)
	a.Recommendations.SetBroadcaster(b)
}

// Close releases the model clients and storage connections
func (a *App) Close(ctx context.Context) {
	if a.Engines != nil {
		if err := a.Engines.Close(); err != nil {
			a.Logger.Warn("close gemini client", zap.Error(err))
		}
	}
	if err := a.Redis.Close(); err != nil {
		a.Logger.Warn("close redis", zap.Error(err))
	}
	if err := a.Mongo.Disconnect(ctx); err != nil {
		a.Logger.Warn("disconnect mongo", zap.Error(err))
	}
}
