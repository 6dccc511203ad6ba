package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"interviewer/config"
	"interviewer/db"
	"interviewer/handlers"
	"interviewer/logger"
	"interviewer/services"
	"interviewer/services/interview"
	"interviewer/services/llm"
	"interviewer/services/questionbank"
	"interviewer/services/speech"

	"github.com/gorilla/mux"
)

const evictionInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interviewRepo, err := db.NewPostgresInterviewRepository(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to initialize interview database: %v", err)
	}
	defer interviewRepo.Close()

	userRepo, err := db.NewPostgresUserRepository(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to initialize user database: %v", err)
	}
	defer userRepo.Close()

	provider, err := llm.NewFromConfig(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize %s provider: %v", cfg.LLMProvider, err)
	}

	deps := interview.Deps{
		Decider:   provider,
		Generator: provider,
		Evaluator: provider,
		Explainer: provider,
		Timeout:   cfg.CapabilityTimeout,
	}

	if cfg.PineconeAPIKey != "" && cfg.OpenAIAPIKey != "" {
		bank, err := questionbank.NewService(ctx, cfg.PineconeAPIKey, cfg.OpenAIAPIKey, cfg.PineconeIndexName)
		if err != nil {
			logger.Warnf("Question bank disabled: %v", err)
		} else {
			deps.References = bank
			logger.Infof("Question bank enabled with index %s", cfg.PineconeIndexName)
		}
	}

	if cfg.TranscribeURL == "" {
		logger.Warn("TRANSCRIBE_URL is not set, spoken answers will be rejected")
	}

	store := interview.NewStore(cfg.SessionIdleTTL)
	go store.Run(ctx, evictionInterval)

	interviewService := services.NewInterviewService(
		store,
		userRepo,
		interviewRepo,
		speech.NewHTTPTranscriber(cfg.TranscribeURL),
		speech.NewWAVScorer(),
		cfg.Policy,
		deps,
	)
	interviewHandler := handlers.NewInterviewHandler(interviewService)

	recordService := services.NewInterviewRecordService(interviewRepo)
	recordHandler := handlers.NewInterviewRecordHandler(recordService)

	router := mux.NewRouter()

	router.Use(corsMiddleware(cfg.AllowedOrigin))
	router.Use(jsonMiddleware)

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(handlers.RequireUser)
	interviewHandler.RegisterRoutes(api)
	recordHandler.RegisterRoutes(api)

	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("OPTIONS")

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Failed to shut down server: %v", err)
		}
	}()

	logger.Infof("Server starting on port %s with %s provider", cfg.Port, cfg.LLMProvider)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server failed to start: %v", err)
	}
	logger.Info("Server stopped")
}

func corsMiddleware(allowedOrigin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+handlers.UserIDHeader)
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}
