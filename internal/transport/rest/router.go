package rest

import (
	"net/http"
	"os"

	"divorcerisk/internal/service"
	"divorcerisk/internal/transport/rest/handler"
	"divorcerisk/internal/transport/rest/middleware"
	"divorcerisk/internal/transport/ws"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService           *service.AuthService
	AssessmentService     handler.AssessmentService
	PredictionService     handler.PredictionService
	RecommendationService handler.RecommendationService
	WSHub                 *ws.Hub
	Logger                *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	assessmentHandler := handler.NewAssessmentHandler(c.AssessmentService, logger)
	predictionHandler := handler.NewPredictionHandler(c.PredictionService, logger)
	recommendationHandler := handler.NewRecommendationHandler(c.RecommendationService, logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)
	r.Use(middleware.AccessLog(logger))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// WebSocket route (token in query param)
	if c.WSHub != nil {
		wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.AssessmentService, logger)
		v1.HandleFunc("/ws/assessments/{id}", wsHandler.AssessmentWS).Methods("GET")
	}

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Clinician routes
	clinician := v1.NewRoute().Subrouter()
	clinician.Use(authMW.RequireClinician)

	clinician.HandleFunc("/assessments", assessmentHandler.Create).Methods("POST", "OPTIONS")
	clinician.HandleFunc("/assessments", assessmentHandler.List).Methods("GET", "OPTIONS")
	clinician.HandleFunc("/assessments/{id}", assessmentHandler.Get).Methods("GET", "OPTIONS")
	clinician.HandleFunc("/assessments/{id}/answers", assessmentHandler.Answers).Methods("GET", "OPTIONS")
	clinician.HandleFunc("/assessments/{id}/answers/bulk", assessmentHandler.BulkAnswers).Methods("POST", "OPTIONS")
	clinician.HandleFunc("/assessments/{id}/predict", predictionHandler.Predict).Methods("POST", "OPTIONS")
	clinician.HandleFunc("/assessments/{id}/predictions", predictionHandler.History).Methods("GET", "OPTIONS")
	clinician.HandleFunc("/assessments/{id}/recommendation", recommendationHandler.Generate).Methods("POST", "OPTIONS")
	clinician.HandleFunc("/assessments/{id}/recommendation", recommendationHandler.Get).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization, X-Request-ID"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
