// Package search provides durable semantic retrieval over capability
// embeddings. The in-memory index remains authoritative; a persistent
// vector index mirrors its embedding keys and adds cross-restart recall.
package search

import (
	"context"

	"github.com/google/uuid"
)

// Point is one capability embedding with the payload needed to resolve
// and filter results.
type Point struct {
	CapabilityID uuid.UUID
	UserID       string
	Type         string
	Tags         []string
	Vector       []float32
}

// Result is a single semantic search hit.
type Result struct {
	CapabilityID uuid.UUID
	UserID       string
	Score        float32
}

// VectorIndex is a durable semantic index over capability embeddings.
type VectorIndex interface {
	// Upsert writes capability embeddings, replacing existing points with
	// the same capability ID.
	Upsert(ctx context.Context, points []Point) error

	// FindSimilar returns the capabilities most similar to the query
	// vector, excluding those owned by excludeUserID.
	FindSimilar(ctx context.Context, vector []float32, limit int, excludeUserID string) ([]Result, error)

	// Delete removes capability points by ID.
	Delete(ctx context.Context, capIDs []uuid.UUID) error

	// Healthy reports whether the backing store is reachable.
	Healthy(ctx context.Context) error
}
