// Package config loads runtime configuration from the environment,
// following the env-first convention of the wider codebase: every field has
// a sane default and can be overridden by a SCREAMING_SNAKE_CASE variable.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration tree for the retrieval/knowledge engine.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Graph     GraphConfig     `yaml:"graph"`
	QA        QAConfig        `yaml:"qa"`
	LogLevel  string          `yaml:"log_level"`
}

// DatabaseConfig configures the document/edge store (internal/store).
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	DocumentsCollection string
	EdgesCollection     string
	QAPairsCollection   string
	QAEdgesCollection   string
	GlossaryCollection  string

	MainViewName string
	QAViewName   string
	Analyzer     string
}

// QdrantConfig configures the ANN vector index backend.
type QdrantConfig struct {
	Host    string
	Port    int
	APIKey  string
	Timeout time.Duration
	UseTLS  bool

	DefaultDimension int
	NLists           int
}

// LLMConfig configures the completion service client.
type LLMConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxRetries int
	RetryDelay time.Duration
}

// EmbeddingConfig configures the embedding service client.
type EmbeddingConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
}

// RetrievalConfig holds defaults for the hybrid search orchestrator.
type RetrievalConfig struct {
	DefaultTopN        int
	DefaultMinScoreBM25      float64
	DefaultMinScoreSemantic  float64
	RRFK               int
	KInflateNoTags     int
	KInflateWithTags   int
	BM25Weight         float64
	SemanticWeight     float64
	GraphWeight        float64
}

// GraphConfig holds defaults for the bounded graph traverser.
type GraphConfig struct {
	MaxDepthHardCap      int
	DefaultMaxRelated    int
	DefaultTimeoutMillis int
}

// QAConfig holds defaults for the Q&A generation/validation pipeline.
type QAConfig struct {
	ValidationThreshold float64
	MinAnswerLength     int
	MaxAnswerLength     int
	MaxRetries          int
	RetryDelay          time.Duration
	SemaphoreLimit      int
	ReversalRatio       float64
}

// Load builds a Config from environment variables with defaults matching
// each component's stated defaults.
func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "knowledgecore"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "knowledgecore_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			DocumentsCollection: getEnv("DOCUMENTS_COLLECTION", "documents"),
			EdgesCollection:     getEnv("EDGES_COLLECTION", "relationships"),
			QAPairsCollection:   getEnv("QA_PAIRS_COLLECTION", "qa_pairs"),
			QAEdgesCollection:   getEnv("QA_EDGES_COLLECTION", "qa_relationships"),
			GlossaryCollection:  getEnv("GLOSSARY_COLLECTION", "glossary"),

			MainViewName: getEnv("MAIN_VIEW_NAME", "document_view"),
			QAViewName:   getEnv("QA_VIEW_NAME", "qa_view"),
			Analyzer:     getEnv("DEFAULT_ANALYZER", "text_en"),
		},
		Qdrant: QdrantConfig{
			Host:             getEnv("QDRANT_HOST", "localhost"),
			Port:             getIntEnv("QDRANT_PORT", 6334),
			APIKey:           getEnv("QDRANT_API_KEY", ""),
			Timeout:          getDurationEnv("QDRANT_TIMEOUT", 10*time.Second),
			UseTLS:           getBoolEnv("QDRANT_TLS", false),
			DefaultDimension: getIntEnv("EMBEDDING_DEFAULT_DIMENSION", 1536),
			NLists:           getIntEnv("VECTOR_INDEX_NLISTS", 50),
		},
		LLM: LLMConfig{
			BaseURL:    getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:     getEnv("LLM_API_KEY", ""),
			Model:      getEnv("LLM_MODEL", "gpt-4o-mini"),
			MaxRetries: getIntEnv("LLM_MAX_RETRIES", 3),
			RetryDelay: getDurationEnv("LLM_RETRY_DELAY", 2*time.Second),
		},
		Embedding: EmbeddingConfig{
			BaseURL:   getEnv("EMBEDDING_BASE_URL", "https://api.openai.com/v1"),
			APIKey:    getEnv("EMBEDDING_API_KEY", ""),
			Model:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimension: getIntEnv("EMBEDDING_DEFAULT_DIMENSION", 1536),
		},
		Retrieval: RetrievalConfig{
			DefaultTopN:             getIntEnv("RETRIEVAL_TOP_N", 10),
			DefaultMinScoreBM25:     getFloatEnv("RETRIEVAL_MIN_SCORE_BM25", 0.0),
			DefaultMinScoreSemantic: getFloatEnv("RETRIEVAL_MIN_SCORE_SEMANTIC", 0.7),
			RRFK:                    getIntEnv("RETRIEVAL_RRF_K", 60),
			KInflateNoTags:          getIntEnv("RETRIEVAL_K_INFLATE_NO_TAGS", 2),
			KInflateWithTags:        getIntEnv("RETRIEVAL_K_INFLATE_WITH_TAGS", 5),
			BM25Weight:              getFloatEnv("RETRIEVAL_WEIGHT_BM25", 0.4),
			SemanticWeight:          getFloatEnv("RETRIEVAL_WEIGHT_SEMANTIC", 0.4),
			GraphWeight:             getFloatEnv("RETRIEVAL_WEIGHT_GRAPH", 0.2),
		},
		Graph: GraphConfig{
			MaxDepthHardCap:      getIntEnv("GRAPH_MAX_DEPTH_HARD_CAP", 3),
			DefaultMaxRelated:    getIntEnv("GRAPH_MAX_RELATED_PER_SEED", 100),
			DefaultTimeoutMillis: getIntEnv("GRAPH_TRAVERSAL_TIMEOUT_MS", 5000),
		},
		QA: QAConfig{
			ValidationThreshold: getFloatEnv("QA_VALIDATION_THRESHOLD", 0.97),
			MinAnswerLength:     getIntEnv("QA_MIN_ANSWER_LENGTH", 3),
			MaxAnswerLength:     getIntEnv("QA_MAX_ANSWER_LENGTH", 2000),
			MaxRetries:          getIntEnv("QA_MAX_RETRIES", 3),
			RetryDelay:          getDurationEnv("QA_RETRY_DELAY", time.Second),
			SemaphoreLimit:      getIntEnv("QA_SEMAPHORE_LIMIT", 10),
			ReversalRatio:       getFloatEnv("QA_REVERSAL_RATIO", 0.15),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// LoadFromFile builds a Config from environment defaults (via Load), then
// overlays any fields set in the YAML file at path — env vars establish the
// baseline, the file narrows it. A missing file is not an error; callers
// that want a required file should stat it themselves first.
func LoadFromFile(path string) (*Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
