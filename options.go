package substrate

import "log/slog"

// Option configures an Engine.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	logger            *slog.Logger
	version           string
	storeDriver       string
	sqlitePath        string
	databaseURL       string
	qdrantURL         string
	minMatchScore     float64
	hasMinMatchScore  bool
	maxMatches        int
	embeddingProvider EmbeddingProvider
	vectorIndex       VectorIndex
	matchHooks        []MatchHook
}

// WithLogger sets the structured logger for the Engine.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported in logs and telemetry.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithStoreDriver overrides the persistence backend from config
// (SUBSTRATE_STORE_DRIVER env var): "sqlite", "postgres", or "none".
func WithStoreDriver(driver string) Option {
	return func(o *resolvedOptions) { o.storeDriver = driver }
}

// WithSQLitePath overrides the SQLite database file path from config
// (SUBSTRATE_SQLITE_PATH env var).
func WithSQLitePath(path string) Option {
	return func(o *resolvedOptions) { o.sqlitePath = path }
}

// WithDatabaseURL overrides the Postgres connection string from config
// (DATABASE_URL env var).
func WithDatabaseURL(url string) Option {
	return func(o *resolvedOptions) { o.databaseURL = url }
}

// WithQdrantURL overrides the Qdrant endpoint from config (QDRANT_URL env
// var). An empty URL leaves Qdrant disabled.
func WithQdrantURL(url string) Option {
	return func(o *resolvedOptions) { o.qdrantURL = url }
}

// WithMinMatchScore overrides the score threshold below which matches are
// never returned (SUBSTRATE_MIN_MATCH_SCORE env var).
func WithMinMatchScore(score float64) Option {
	return func(o *resolvedOptions) {
		o.minMatchScore = score
		o.hasMinMatchScore = true
	}
}

// WithMaxMatches overrides the default result cap per FindMatches call
// (SUBSTRATE_MAX_MATCHES env var).
func WithMaxMatches(n int) Option {
	return func(o *resolvedOptions) { o.maxMatches = n }
}

// WithEmbeddingProvider replaces the auto-detected embedding provider
// (Ollama/OpenAI/noop). The provided implementation must satisfy the
// EmbeddingProvider interface.
func WithEmbeddingProvider(p EmbeddingProvider) Option {
	return func(o *resolvedOptions) { o.embeddingProvider = p }
}

// WithVectorIndex replaces the auto-detected persistent vector index
// (Qdrant when QDRANT_URL is set, pgvector when the store is Postgres).
// Only the last call wins.
func WithVectorIndex(v VectorIndex) Option {
	return func(o *resolvedOptions) { o.vectorIndex = v }
}

// WithMatchHook registers a hook to receive matching lifecycle
// notifications. Multiple hooks may be registered; all registered hooks
// receive every event.
func WithMatchHook(hook MatchHook) Option {
	return func(o *resolvedOptions) { o.matchHooks = append(o.matchHooks, hook) }
}
