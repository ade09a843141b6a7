// Package app builds the components shared by the API server and the ingest CLI from a Config.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"medassist/internal/config"
	"medassist/internal/handlers"
	"medassist/internal/indexer"
	"medassist/internal/llm"
	"medassist/internal/rag"
	"medassist/internal/storage"
	"medassist/internal/vectorstore"
)

// VectorStore is a vector store that can also report collection statistics.
type VectorStore interface {
	vectorstore.VectorStore
	handlers.CollectionInspector
}

// Components is the storage and indexing layer.
type Components struct {
	DB          *sql.DB
	Documents   *storage.DocumentRepo
	Chunks      *storage.ChunkRepo
	History     *storage.HistoryRepo
	VectorStore VectorStore
	Embedder    llm.Embedder
	Pipeline    *indexer.Pipeline
}

// Open opens the database, runs migrations, connects the vector store, ensures the
// collection exists and builds the indexing pipeline. The embedder is not contacted.
func Open(ctx context.Context, cfg *config.Config) (*Components, error) {
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	vs, err := NewVectorStore(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := vs.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	slog.Info("Vector collection ready", "store", cfg.VectorStore, "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	embedder, err := NewEmbedder(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	c := &Components{
		DB:          db,
		Documents:   storage.NewDocumentRepo(db),
		Chunks:      storage.NewChunkRepo(db),
		History:     storage.NewHistoryRepo(db),
		VectorStore: vs,
		Embedder:    embedder,
	}
	c.Pipeline = indexer.NewPipeline(
		c.Documents,
		c.Chunks,
		embedder,
		vs,
		cfg.QdrantCollection,
		indexer.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
	)
	return c, nil
}

// Close releases the database.
func (c *Components) Close() error {
	return c.DB.Close()
}

// NewVectorStore returns the configured vector store.
func NewVectorStore(cfg *config.Config) (VectorStore, error) {
	switch cfg.VectorStore {
	case config.VectorStoreMemory:
		return vectorstore.NewMemoryStore(), nil
	case config.VectorStoreQdrant:
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown vector store %q", cfg.VectorStore)
	}
}

// NewEmbedder returns the configured embeddings client.
func NewEmbedder(cfg *config.Config) (llm.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderLlamaCpp:
		return llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize), nil
	case config.ProviderOpenAI:
		return llm.NewOpenAIEmbedder(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// ValidateEmbedder embeds a sample string and checks the vector size against the collection.
func ValidateEmbedder(ctx context.Context, embedder llm.Embedder, vectorSize int) error {
	vectors, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		return fmt.Errorf("failed to validate embedding client: %w", err)
	}
	if len(vectors) == 0 {
		return errors.New("embedding client returned no vectors")
	}
	if len(vectors[0]) != vectorSize {
		return fmt.Errorf("embedding vector size mismatch: expected %d, got %d", vectorSize, len(vectors[0]))
	}
	return nil
}

// NewGenerator returns the configured text generator.
func NewGenerator(cfg *config.Config) (rag.Generator, error) {
	switch cfg.LLMProvider {
	case config.ProviderLlamaCpp:
		return llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName), nil
	case config.ProviderOpenAI:
		return llm.NewOpenAIGenerator(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName), nil
	case config.ProviderOllama:
		gen, err := llm.NewOllamaGenerator(cfg.LLMBaseURL, cfg.LLMModelName)
		if err != nil {
			return nil, err
		}
		return gen, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// NewModelChecker returns a health check for OpenAI-compatible model servers, or nil
// when the provider has no /v1/models endpoint to query.
func NewModelChecker(cfg *config.Config) handlers.ModelChecker {
	if cfg.LLMProvider == config.ProviderOllama {
		return nil
	}
	return llm.NewModelsClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)
}
