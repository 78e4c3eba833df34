package substrate

import (
	"context"

	"github.com/google/uuid"
)

// EmbeddingProvider generates vector embeddings from text.
// When provided via WithEmbeddingProvider, replaces the auto-detected
// Ollama/OpenAI/noop provider. Uses []float32 so external consumers carry
// no vector-database dependency.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// VectorIndex is a persistent similarity index over capability embeddings.
// When provided via WithVectorIndex, replaces the auto-detected
// Qdrant/pgvector index. FindSimilar must never return capabilities owned
// by excludeUserID.
type VectorIndex interface {
	Upsert(ctx context.Context, points []VectorPoint) error
	FindSimilar(ctx context.Context, vector []float32, limit int, excludeUserID string) ([]VectorResult, error)
	Delete(ctx context.Context, capabilityIDs []uuid.UUID) error
	Healthy(ctx context.Context) error
}

// MatchHook receives async notifications when matching lifecycle events
// occur. Multiple hooks may be registered via multiple WithMatchHook calls.
// Hook methods run in goroutines — they must not block indefinitely.
// Failures are logged but never fail the originating call.
type MatchHook interface {
	OnMatchProposed(ctx context.Context, match Match) error
	OnOutcomeRecorded(ctx context.Context, outcome Outcome) error
}
