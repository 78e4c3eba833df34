// Package storage provides persistence for profiles, collaboration
// outcomes, and learned success patterns.
//
// Two backends are available: SQLite (default, single local file, pure Go
// driver) and PostgreSQL (pgx pool; also serves as the persistent vector
// index via pgvector). The engine runs fully in-memory when neither is
// configured.
package storage

import (
	"context"
	"errors"

	"github.com/substratehq/substrate/internal/learn"
	"github.com/substratehq/substrate/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

// ProfileStore persists user profiles.
type ProfileStore interface {
	SaveProfile(ctx context.Context, p model.Profile) error
	LoadProfile(ctx context.Context, userID string) (model.Profile, error)
	ListProfiles(ctx context.Context) ([]model.Profile, error)
}

// OutcomeStore is an append-only log of collaboration outcomes.
type OutcomeStore interface {
	AppendOutcome(ctx context.Context, o model.CollaborationOutcome) error
	ListOutcomes(ctx context.Context) ([]model.CollaborationOutcome, error)
}

// PatternStore persists learned success patterns across restarts.
type PatternStore interface {
	SavePatterns(ctx context.Context, patterns map[string]learn.Pattern) error
	LoadPatterns(ctx context.Context) (map[string]learn.Pattern, error)
}

// Store is the full persistence surface the engine wires up.
type Store interface {
	ProfileStore
	OutcomeStore
	PatternStore

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
