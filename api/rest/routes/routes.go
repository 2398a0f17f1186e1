package routes

import (
	"context"
	"net/http"

	"exoml-server/api/rest/handlers"
	"exoml-server/api/rest/middleware"
	"exoml-server/core/interpreter"
	"exoml-server/core/jobs"
	"exoml-server/core/monitoring"
	"exoml-server/core/predictor"
	"exoml-server/core/registry"
	"exoml-server/core/repository"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Dependencies are the components the HTTP layer is built on
type Dependencies struct {
	DB          *repository.DB
	Registry    *registry.Registry
	Engine      *predictor.Engine
	Jobs        *jobs.Service
	Interpreter *interpreter.Interpreter
	Metrics     *monitoring.Metrics
	Logger      *zap.Logger
	Environment string

	// RunRateLimit is runs per second per client; 0 disables the limiter
	RunRateLimit float64
	RunRateBurst int
}

// SetupRoutes configures all API routes on r
func SetupRoutes(ctx context.Context, r *mux.Router, deps Dependencies) {
	logger := deps.Logger.Named("http")

	predictionRepo := repository.NewPredictionRepository(deps.DB)
	runRepo := repository.NewRunRepository(deps.DB)

	featureHandler := handlers.NewFeatureHandler(deps.Registry, logger)
	predictionHandler := handlers.NewPredictionHandler(deps.Engine, predictionRepo, deps.Metrics, logger)
	notebookHandler := handlers.NewNotebookHandler(deps.Jobs, logger)
	runHandler := handlers.NewRunHandler(runRepo, logger)
	artifactHandler := handlers.NewArtifactHandler(deps.Interpreter, logger)
	dashboardHandler := handlers.NewDashboardHandler(deps.DB, predictionRepo, runRepo, deps.Environment, logger)

	r.Use(middleware.Recover(logger))
	r.Use(middleware.AccessLog(logger))

	api := r.PathPrefix("/api").Subrouter()

	// Model endpoints
	api.HandleFunc("/models", featureHandler.ListModels).Methods("GET")
	api.HandleFunc("/model-features/{model}", featureHandler.GetModelFeatures).Methods("GET")

	// Prediction endpoints
	api.HandleFunc("/predict", predictionHandler.Predict).Methods("POST")
	api.HandleFunc("/predictions", predictionHandler.ListPredictions).Methods("GET")
	api.HandleFunc("/predictions", predictionHandler.ClearPredictions).Methods("DELETE")

	// Notebook endpoints
	api.HandleFunc("/notebooks", notebookHandler.ListNotebooks).Methods("GET")
	var runNotebook http.Handler = http.HandlerFunc(notebookHandler.RunNotebook)
	if deps.RunRateLimit > 0 {
		runNotebook = middleware.NewRateLimiter(ctx, deps.RunRateLimit, deps.RunRateBurst).Middleware(runNotebook)
	}
	api.Handle("/run-notebook", runNotebook).Methods("POST")
	api.HandleFunc("/runs", runHandler.ListRuns).Methods("GET")
	api.HandleFunc("/runs/{id}", runHandler.GetRun).Methods("GET")

	// Stored training output
	api.HandleFunc("/metrics/{dataset}", artifactHandler.GetMetrics).Methods("GET")
	api.HandleFunc("/features/{dataset}", artifactHandler.GetTopFeatures).Methods("GET")

	// Dashboard endpoints
	api.HandleFunc("/health", dashboardHandler.Health).Methods("GET")
	api.HandleFunc("/dashboard", dashboardHandler.Summary).Methods("GET")

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}
}

// CORS wraps h with the allowed origins
func CORS(h http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(origins),
		gorillahandlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillahandlers.ExposedHeaders([]string{"X-Run-ID", "Retry-After"}),
	)(h)
}
