package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported provider and backend names.
const (
	ProviderLlamaCpp = "llamacpp"
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"

	VectorStoreQdrant = "qdrant"
	VectorStoreMemory = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort     string
	LogLevel    slog.Level
	LogFormat   string   // "text" or "json"
	CORSOrigins []string // empty allows any origin

	DBPath         string
	UploadDir      string
	MaxUploadMB    int
	HistoryPersist bool

	HistoryMaxSessions int           // in-memory session logs
	HistorySessionTTL  time.Duration // idle lifetime of an in-memory session log

	VectorStore      string
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	QdrantVectorSize int

	LLMProvider  string
	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string

	EmbeddingProvider  string
	EmbeddingBaseURL   string
	EmbeddingModelName string

	GenerationTimeout  time.Duration
	DefaultTemperature float64
	DefaultTopK        int
	ChunkSize          int
	ChunkOverlap       int

	// SymptomTriggers replaces the built-in router vocabulary when non-empty.
	SymptomTriggers []string
	WebSearch       WebSearchConfig
}

// WebSearchConfig configures the optional web evidence source.
type WebSearchConfig struct {
	Enabled      bool
	URL          string
	Results      int
	FetchTimeout time.Duration
	RateLimit    float64
}

// fileConfig is the optional YAML overlay named by CONFIG_FILE.
type fileConfig struct {
	SymptomTriggers []string `yaml:"symptom_triggers"`
	WebSearch       struct {
		Enabled      *bool    `yaml:"enabled"`
		URL          string   `yaml:"url"`
		Results      *int     `yaml:"results"`
		FetchTimeout string   `yaml:"fetch_timeout"`
		RateLimit    *float64 `yaml:"rate_limit"`
	} `yaml:"web_search"`
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values, and
// both take precedence over the YAML file named by CONFIG_FILE.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit YAML overlay path. An empty path falls back to CONFIG_FILE.
func LoadFile(configFile string) (*Config, error) {
	loadDotEnv()

	if configFile == "" {
		configFile = getEnv("CONFIG_FILE", "")
	}
	var file fileConfig
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		DBPath:             getEnv("DB_PATH", "./data/medassist.db"),
		UploadDir:          getEnv("UPLOAD_DIR", "./data/uploads"),
		VectorStore:        strings.ToLower(getEnv("VECTOR_STORE", VectorStoreQdrant)),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:       getEnv("QDRANT_API_KEY", ""),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "medical_docs"),
		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", ProviderLlamaCpp)),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingProvider:  strings.ToLower(getEnv("EMBEDDING_PROVIDER", ProviderLlamaCpp)),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "nomic-embed-text-v1.5"),
	}

	var err error
	if cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.MaxUploadMB, err = getEnvInt("MAX_UPLOAD_MB", 16); err != nil {
		return nil, err
	}
	if cfg.HistoryPersist, err = getEnvBool("HISTORY_PERSIST", true); err != nil {
		return nil, err
	}
	if cfg.HistoryMaxSessions, err = getEnvInt("HISTORY_MAX_SESSIONS", 10000); err != nil {
		return nil, err
	}
	if cfg.HistorySessionTTL, err = getEnvDuration("HISTORY_SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.GenerationTimeout, err = getEnvDuration("GENERATION_TIMEOUT", 45*time.Second); err != nil {
		return nil, err
	}
	if cfg.DefaultTemperature, err = getEnvFloat("DEFAULT_TEMPERATURE", 0.2); err != nil {
		return nil, err
	}
	if cfg.DefaultTopK, err = getEnvInt("DEFAULT_TOP_K", 8); err != nil {
		return nil, err
	}
	if cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 100); err != nil {
		return nil, err
	}

	// QDRANT_VECTOR_SIZE must match the output vector size of the embeddings model.
	// If it changes, the Qdrant collection must be recreated.
	vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	cfg.QdrantVectorSize = vectorSize

	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", ""))
	cfg.SymptomTriggers = file.SymptomTriggers
	if raw := getEnv("SYMPTOM_TRIGGERS", ""); raw != "" {
		cfg.SymptomTriggers = splitList(raw)
	}
	if cfg.WebSearch, err = loadWebSearch(file); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case ProviderLlamaCpp, ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of %s, %s, %s: got %q", ProviderLlamaCpp, ProviderOpenAI, ProviderOllama, c.LLMProvider)
	}
	switch c.EmbeddingProvider {
	case ProviderLlamaCpp, ProviderOpenAI:
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER must be %s or %s: got %q", ProviderLlamaCpp, ProviderOpenAI, c.EmbeddingProvider)
	}
	switch c.VectorStore {
	case VectorStoreQdrant, VectorStoreMemory:
	default:
		return fmt.Errorf("VECTOR_STORE must be %s or %s: got %q", VectorStoreQdrant, VectorStoreMemory, c.VectorStore)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json: got %q", c.LogFormat)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be greater than 0")
	}
	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE): got size %d, overlap %d", c.ChunkSize, c.ChunkOverlap)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive")
	}
	if c.HistoryMaxSessions <= 0 || c.HistorySessionTTL <= 0 {
		return fmt.Errorf("HISTORY_MAX_SESSIONS and HISTORY_SESSION_TTL must be positive")
	}
	return nil
}

// loadWebSearch resolves web-search settings: environment, then YAML, then defaults.
func loadWebSearch(file fileConfig) (WebSearchConfig, error) {
	ws := WebSearchConfig{
		URL:          file.WebSearch.URL,
		Results:      3,
		FetchTimeout: 5 * time.Second,
		RateLimit:    2,
	}
	if file.WebSearch.Enabled != nil {
		ws.Enabled = *file.WebSearch.Enabled
	}
	if file.WebSearch.Results != nil {
		ws.Results = *file.WebSearch.Results
	}
	if file.WebSearch.RateLimit != nil {
		ws.RateLimit = *file.WebSearch.RateLimit
	}
	if file.WebSearch.FetchTimeout != "" {
		d, err := time.ParseDuration(file.WebSearch.FetchTimeout)
		if err != nil {
			return ws, fmt.Errorf("web_search.fetch_timeout must be a duration: %w", err)
		}
		ws.FetchTimeout = d
	}

	var err error
	ws.URL = getEnv("WEB_SEARCH_URL", ws.URL)
	if ws.Enabled, err = getEnvBool("WEB_SEARCH_ENABLED", ws.Enabled); err != nil {
		return ws, err
	}
	if ws.Results, err = getEnvInt("WEB_SEARCH_RESULTS", ws.Results); err != nil {
		return ws, err
	}
	if ws.FetchTimeout, err = getEnvDuration("WEB_FETCH_TIMEOUT", ws.FetchTimeout); err != nil {
		return ws, err
	}
	if ws.RateLimit, err = getEnvFloat("WEB_SEARCH_RATE", ws.RateLimit); err != nil {
		return ws, err
	}
	if ws.Enabled && ws.Results <= 0 {
		return ws, fmt.Errorf("WEB_SEARCH_RESULTS must be greater than 0 when web search is enabled")
	}
	return ws, nil
}

// loadDotEnv loads .env from the current directory, then the first one found walking up.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 45s: %w", key, err)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error: got %q", s)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
