package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medassist/internal/app"
	"medassist/internal/config"
	"medassist/internal/history"
	"medassist/internal/http"
	"medassist/internal/rag"
	"medassist/internal/service"
	"medassist/internal/storage"
	"medassist/internal/websearch"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers medical questions from indexed PDF documents and, for symptom
// descriptions, adds a structured symptom analysis.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: MedAssist API
//   description: |
//     Retrieval-augmented medical assistant. Upload PDFs to build the knowledge base,
//     then submit questions or symptom descriptions for analysis.
//     Responses are informational and not a substitute for professional medical advice.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
//   - multipart/form-data
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx := context.Background()

	components, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer func() {
		_ = components.Close()
	}()

	// Validate embedding client vector size (fail-fast)
	if err := app.ValidateEmbedder(ctx, components.Embedder, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Embedding client check failed: %v", err)
	}
	slog.Info("Embedding client validated", "provider", cfg.EmbeddingProvider, "vector_size", cfg.QdrantVectorSize)

	generator, err := app.NewGenerator(cfg)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	// Create RAG engine
	var summarizerOpts []rag.SummarizerOption
	if cfg.WebSearch.Enabled {
		web := websearch.New(websearch.Config{
			SearchURL:    cfg.WebSearch.URL,
			FetchTimeout: cfg.WebSearch.FetchTimeout,
			RateLimit:    cfg.WebSearch.RateLimit,
		})
		summarizerOpts = append(summarizerOpts, rag.WithWebSearch(web, cfg.WebSearch.Results))
		slog.Info("Web search enabled", "results", cfg.WebSearch.Results)
	}
	retriever := rag.NewRetriever(components.Pipeline)
	assembler := rag.NewAssembler(
		rag.NewRouter(cfg.SymptomTriggers),
		rag.NewSummarizer(retriever, generator, cfg.GenerationTimeout, summarizerOpts...),
		rag.NewSymptomAnalyzer(generator, cfg.GenerationTimeout),
	)
	slog.Info("RAG engine initialized", "provider", cfg.LLMProvider, "model", cfg.LLMModelName)

	// A nil store keeps history in memory only.
	var historyStore storage.HistoryStore
	if cfg.HistoryPersist {
		historyStore = components.History
	}
	historyManager := history.NewManager(historyStore, history.WithCapacity(cfg.HistoryMaxSessions, cfg.HistorySessionTTL))

	deps := &http.Deps{
		AnalyzeService:  service.NewAnalyzeService(assembler, historyManager, cfg.DefaultTemperature, cfg.DefaultTopK),
		UploadService:   service.NewUploadService(components.Pipeline, cfg.UploadDir),
		DocumentService: service.NewDocumentService(components.Documents, components.Pipeline),
		VectorStore:     components.VectorStore,
		Collections:     components.VectorStore,
		CollectionName:  cfg.QdrantCollection,
		DB:              components.DB,
		Model:           app.NewModelChecker(cfg),
		MaxUploadBytes:  int64(cfg.MaxUploadMB) << 20,
		CORSOrigins:     cfg.CORSOrigins,
	}
	router := http.NewRouter(deps)

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed to start: %v", err)
		}
	}()

	waitForShutdown(server)
}

func waitForShutdown(server *nethttp.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down API server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
