package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/ethoslabs/ethos/internal/api/handlers"
	mw "github.com/ethoslabs/ethos/internal/api/middleware"
	"github.com/ethoslabs/ethos/internal/config"
	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/ethoslabs/ethos/internal/embedding"
	"github.com/ethoslabs/ethos/internal/llm"
	"github.com/ethoslabs/ethos/internal/service"
	"github.com/ethoslabs/ethos/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router plus request metrics for the metrics endpoint.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	questionStore := store.NewQuestionStore(db)
	linkStore := store.NewLinkStore(db)
	sessionStore := store.NewSessionStore(db)
	answerStore := store.NewAnswerStore(db)
	contradictionStore := store.NewContradictionStore(db)
	frameworkStore := store.NewFrameworkStore(db)
	stageStore := store.NewStageStore(db)

	// External clients via provider factory
	var embeddingClient domain.EmbeddingClient
	var llmClient domain.LLMClient

	var err error
	llmClient, err = llm.NewClient(config.LLMProvider(), config.LLMAPIKey())
	if err != nil {
		logger.Warn("LLM client initialization failed", zap.String("provider", config.LLMProvider()), zap.Error(err))
	} else {
		logger.Info("LLM client initialized", zap.String("provider", config.LLMProvider()))
	}

	embeddingClient, err = embedding.NewClient(config.EmbeddingProvider(), config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("embedding client initialization failed", zap.String("provider", config.EmbeddingProvider()), zap.Error(err))
	} else {
		logger.Info("embedding client initialized", zap.String("provider", config.EmbeddingProvider()))
	}

	// Services
	questionSvc := service.NewQuestionService(questionStore, linkStore, embeddingClient, llmClient, logger)
	stageSvc := service.NewStageService(stageStore, questionStore, sessionStore, llmClient, logger)
	sessionSvc := service.NewSessionService(service.SessionServiceDeps{
		Sessions:       sessionStore,
		Answers:        answerStore,
		Contradictions: contradictionStore,
		Questions:      questionStore,
		Links:          linkStore,
		Frameworks:     frameworkStore,
		Stages:         stageStore,
		Embedder:       embeddingClient,
		LLM:            llmClient,
		Generator:      service.NewCandidateGenerator(questionStore, linkStore, embeddingClient, logger),
		Judge:          service.NewContradictionJudge(llmClient, logger),
		Scorer:         service.NewConsistencyScorer(llmClient, logger),
		Analyzer:       service.NewFrameworkAnalyzer(llmClient, logger),
		QuestionSvc:    questionSvc,
		StageSvc:       stageSvc,
		Logger:         logger,
	})

	// Handlers
	sessionHandler := handlers.NewSessionHandler(sessionSvc)
	questionHandler := handlers.NewQuestionHandler(questionSvc)
	referenceHandler := handlers.NewReferenceHandler(frameworkStore, stageSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		r.Route("/sessions/{userID}", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Post("/answers", sessionHandler.SubmitAnswer)
			r.Post("/contradictions/{id}/resolve", sessionHandler.ResolveContradiction)
			r.Get("/analysis", sessionHandler.Analysis)
			r.Get("/questions/next", sessionHandler.NextQuestion)
			r.Post("/advance", sessionHandler.Advance)
		})

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", questionHandler.ListByStage)
			r.Post("/", questionHandler.Create)
			r.Get("/{id}", questionHandler.GetByID)
			r.Get("/{id}/links", questionHandler.ListLinks)
		})

		r.Get("/frameworks", referenceHandler.ListFrameworks)
		r.Get("/stages", referenceHandler.ListStages)
	})

	return app
}

// NewRouter returns just the chi.Mux.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.QuestionStore      = (*store.QuestionStore)(nil)
	_ domain.LinkStore          = (*store.LinkStore)(nil)
	_ domain.SessionStore       = (*store.SessionStore)(nil)
	_ domain.AnswerStore        = (*store.AnswerStore)(nil)
	_ domain.ContradictionStore = (*store.ContradictionStore)(nil)
	_ domain.FrameworkStore     = (*store.FrameworkStore)(nil)
	_ domain.StageStore         = (*store.StageStore)(nil)
	_ domain.EmbeddingClient    = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient    = (*embedding.MockClient)(nil)
	_ domain.LLMClient          = (*llm.OpenAIClient)(nil)
	_ domain.LLMClient          = (*llm.AnthropicClient)(nil)
	_ domain.LLMClient          = (*llm.MockClient)(nil)
)
