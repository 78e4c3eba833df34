// Package config loads and validates engine configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all engine configuration.
type Config struct {
	// Matching settings.
	MinMatchScore     float64 // Matches below this score are never returned.
	MaxMatchesPerNeed int
	ScoringWorkers    int // Bounded worker pool for per-candidate scoring.
	IndexShards       int

	// Scoring weights. Non-negative, applied as given; the defaults sum to 1.
	WeightSimilarity      float64
	WeightComplementarity float64
	WeightProficiency     float64
	WeightFeasibility     float64
	WeightHistory         float64

	// Complementarity target: the overlap ratio considered optimal.
	OptimalOverlap float64

	// Feasibility penalties, composed multiplicatively. Defaults mirror the
	// reference behavior but carry no deeper meaning — tune freely.
	TimezonePenalty     float64
	AvailabilityPenalty float64
	BudgetPenalty       float64
	UrgencyPenalty      float64
	UrgencyThreshold    float64

	// Outcome learning.
	HistoryAlpha float64 // EMA smoothing factor for success patterns.

	// Embedding provider settings.
	EmbeddingProvider   string // "auto", "openai", "ollama", or "noop"
	OpenAIAPIKey        string
	EmbeddingModel      string
	EmbeddingDimensions int // Vector dimensions; must match the chosen model's output.
	OllamaURL           string
	OllamaModel         string
	EmbedQueueSize      int           // Bounded embedding request queue.
	EmbedBatchSize      int           // Max texts per provider batch call.
	EmbedFlushInterval  time.Duration // Max time a queued request waits for a batch.
	EmbedRateLimit      float64       // Outbound provider calls per second; 0 disables limiting.
	EmbedRateBurst      int
	RedisURL            string // Shared limiter backend for multi-instance quotas; empty uses in-memory.

	// Qdrant settings (persistent vector index; empty URL disables it).
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	// Persistence settings. Driver "sqlite" (default, local file),
	// "postgres" (DatabaseURL required), or "none" (in-memory only).
	StoreDriver string
	SQLitePath  string
	DatabaseURL string

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		MinMatchScore:     envFloat("SUBSTRATE_MIN_MATCH_SCORE", 0.4),
		MaxMatchesPerNeed: envInt("SUBSTRATE_MAX_MATCHES", 10),
		ScoringWorkers:    envInt("SUBSTRATE_SCORING_WORKERS", 8),
		IndexShards:       envInt("SUBSTRATE_INDEX_SHARDS", 16),

		WeightSimilarity:      envFloat("SUBSTRATE_WEIGHT_SIMILARITY", 0.3),
		WeightComplementarity: envFloat("SUBSTRATE_WEIGHT_COMPLEMENTARITY", 0.3),
		WeightProficiency:     envFloat("SUBSTRATE_WEIGHT_PROFICIENCY", 0.2),
		WeightFeasibility:     envFloat("SUBSTRATE_WEIGHT_FEASIBILITY", 0.1),
		WeightHistory:         envFloat("SUBSTRATE_WEIGHT_HISTORY", 0.1),

		OptimalOverlap: envFloat("SUBSTRATE_OPTIMAL_OVERLAP", 0.2),

		TimezonePenalty:     envFloat("SUBSTRATE_TIMEZONE_PENALTY", 0.8),
		AvailabilityPenalty: envFloat("SUBSTRATE_AVAILABILITY_PENALTY", 0.9),
		BudgetPenalty:       envFloat("SUBSTRATE_BUDGET_PENALTY", 0.95),
		UrgencyPenalty:      envFloat("SUBSTRATE_URGENCY_PENALTY", 0.9),
		UrgencyThreshold:    envFloat("SUBSTRATE_URGENCY_THRESHOLD", 0.8),

		HistoryAlpha: envFloat("SUBSTRATE_HISTORY_ALPHA", 0.3),

		EmbeddingProvider:   envStr("SUBSTRATE_EMBEDDING_PROVIDER", "auto"),
		OpenAIAPIKey:        envStr("OPENAI_API_KEY", ""),
		EmbeddingModel:      envStr("SUBSTRATE_EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions: envInt("SUBSTRATE_EMBEDDING_DIMENSIONS", 1024),
		OllamaURL:           envStr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:         envStr("OLLAMA_MODEL", "mxbai-embed-large"),
		EmbedQueueSize:      envInt("SUBSTRATE_EMBED_QUEUE_SIZE", 256),
		EmbedBatchSize:      envInt("SUBSTRATE_EMBED_BATCH_SIZE", 16),
		EmbedFlushInterval:  envDuration("SUBSTRATE_EMBED_FLUSH_INTERVAL", 50*time.Millisecond),
		EmbedRateLimit:      envFloat("SUBSTRATE_EMBED_RATE_LIMIT", 0),
		EmbedRateBurst:      envInt("SUBSTRATE_EMBED_RATE_BURST", 32),
		RedisURL:            envStr("REDIS_URL", ""),

		QdrantURL:        envStr("QDRANT_URL", ""),
		QdrantAPIKey:     envStr("QDRANT_API_KEY", ""),
		QdrantCollection: envStr("SUBSTRATE_QDRANT_COLLECTION", "capabilities"),

		StoreDriver: envStr("SUBSTRATE_STORE_DRIVER", "sqlite"),
		SQLitePath:  envStr("SUBSTRATE_SQLITE_PATH", "./substrate_data/substrate.db"),
		DatabaseURL: envStr("DATABASE_URL", ""),

		OTELEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure: envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:  envStr("OTEL_SERVICE_NAME", "substrate"),

		LogLevel: envStr("SUBSTRATE_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that configuration values are internally consistent.
func (c Config) Validate() error {
	if c.MinMatchScore < 0 || c.MinMatchScore > 1 {
		return fmt.Errorf("config: SUBSTRATE_MIN_MATCH_SCORE must be in [0,1]")
	}
	if c.MaxMatchesPerNeed <= 0 {
		return fmt.Errorf("config: SUBSTRATE_MAX_MATCHES must be positive")
	}
	if c.ScoringWorkers <= 0 {
		return fmt.Errorf("config: SUBSTRATE_SCORING_WORKERS must be positive")
	}
	if c.IndexShards <= 0 {
		return fmt.Errorf("config: SUBSTRATE_INDEX_SHARDS must be positive")
	}
	for name, w := range map[string]float64{
		"SUBSTRATE_WEIGHT_SIMILARITY":      c.WeightSimilarity,
		"SUBSTRATE_WEIGHT_COMPLEMENTARITY": c.WeightComplementarity,
		"SUBSTRATE_WEIGHT_PROFICIENCY":     c.WeightProficiency,
		"SUBSTRATE_WEIGHT_FEASIBILITY":     c.WeightFeasibility,
		"SUBSTRATE_WEIGHT_HISTORY":         c.WeightHistory,
	} {
		if w < 0 {
			return fmt.Errorf("config: %s must be non-negative", name)
		}
	}
	if c.OptimalOverlap < 0 || c.OptimalOverlap > 1 {
		return fmt.Errorf("config: SUBSTRATE_OPTIMAL_OVERLAP must be in [0,1]")
	}
	for name, p := range map[string]float64{
		"SUBSTRATE_TIMEZONE_PENALTY":     c.TimezonePenalty,
		"SUBSTRATE_AVAILABILITY_PENALTY": c.AvailabilityPenalty,
		"SUBSTRATE_BUDGET_PENALTY":       c.BudgetPenalty,
		"SUBSTRATE_URGENCY_PENALTY":      c.UrgencyPenalty,
	} {
		if p <= 0 || p > 1 {
			return fmt.Errorf("config: %s must be in (0,1]", name)
		}
	}
	if c.HistoryAlpha <= 0 || c.HistoryAlpha > 1 {
		return fmt.Errorf("config: SUBSTRATE_HISTORY_ALPHA must be in (0,1]")
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("config: SUBSTRATE_EMBEDDING_DIMENSIONS must be positive")
	}
	if c.EmbedQueueSize <= 0 || c.EmbedBatchSize <= 0 {
		return fmt.Errorf("config: embedding queue and batch sizes must be positive")
	}
	if c.EmbedRateLimit < 0 {
		return fmt.Errorf("config: SUBSTRATE_EMBED_RATE_LIMIT must be non-negative")
	}
	if c.EmbedRateLimit > 0 && c.EmbedRateBurst <= 0 {
		return fmt.Errorf("config: SUBSTRATE_EMBED_RATE_BURST must be positive when rate limiting is enabled")
	}
	switch c.StoreDriver {
	case "sqlite", "postgres", "none":
	default:
		return fmt.Errorf("config: SUBSTRATE_STORE_DRIVER must be sqlite, postgres, or none")
	}
	if c.StoreDriver == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required when SUBSTRATE_STORE_DRIVER=postgres")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
