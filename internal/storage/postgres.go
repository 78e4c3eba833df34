package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/substratehq/substrate/internal/learn"
	"github.com/substratehq/substrate/internal/model"
	"github.com/substratehq/substrate/internal/search"
)

// PostgresStore is the PostgreSQL persistence backend. Besides the Store
// surface it implements search.VectorIndex via pgvector, so a single
// Postgres deployment can serve both persistence and semantic retrieval.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	dims   int
}

// NewPostgresStore connects to Postgres, ensures the schema, and returns
// the store. dims is the embedding dimensionality of the vector column.
func NewPostgresStore(ctx context.Context, dsn string, dims int, logger *slog.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse postgres DSN: %w", err)
	}

	// Register pgvector types on each new connection. Best-effort: the
	// extension may not exist until ensureSchema has run; later connections
	// register successfully.
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if err := pgxvector.RegisterTypes(ctx, conn); err != nil {
			logger.Debug("storage: pgvector types not registered yet", "error", err)
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool, logger: logger, dims: dims}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("storage: postgres connected", "embedding_dims", dims)
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id    TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			outcome_id      UUID PRIMARY KEY,
			match_id        UUID NOT NULL,
			success         BOOLEAN NOT NULL,
			actual_timeline TEXT,
			actual_cost     DOUBLE PRECISION,
			created_at      TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_match ON outcomes (match_id)`,
		`CREATE TABLE IF NOT EXISTS success_patterns (
			pattern  TEXT PRIMARY KEY,
			value    DOUBLE PRECISION NOT NULL,
			outcomes INTEGER NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS capability_embeddings (
			capability_id   UUID PRIMARY KEY,
			user_id         TEXT NOT NULL,
			capability_type TEXT NOT NULL,
			tags            TEXT[],
			embedding       vector(%d) NOT NULL
		)`, s.dims),
		`CREATE INDEX IF NOT EXISTS idx_capability_embeddings_user ON capability_embeddings (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_capability_embeddings_hnsw
			ON capability_embeddings USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("storage: ensure postgres schema: %w", err)
		}
	}
	return nil
}

// SaveProfile upserts a profile as a JSONB document.
func (s *PostgresStore) SaveProfile(ctx context.Context, p model.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("storage: marshal profile %s: %w", p.UserID, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, data, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		p.UserID, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage: save profile %s: %w", p.UserID, err)
	}
	return nil
}

// LoadProfile returns the stored profile for userID, or ErrNotFound.
func (s *PostgresStore) LoadProfile(ctx context.Context, userID string) (model.Profile, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM profiles WHERE user_id = $1`, userID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("storage: load profile %s: %w", userID, err)
	}

	var p model.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Profile{}, fmt.Errorf("storage: unmarshal profile %s: %w", userID, err)
	}
	return p, nil
}

// ListProfiles returns all stored profiles.
func (s *PostgresStore) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("storage: list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("storage: scan profile: %w", err)
		}
		var p model.Profile
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("storage: unmarshal profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// AppendOutcome writes one collaboration outcome.
func (s *PostgresStore) AppendOutcome(ctx context.Context, o model.CollaborationOutcome) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO outcomes (outcome_id, match_id, success, actual_timeline, actual_cost, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.MatchID, o.Success, o.ActualTimeline, o.ActualCost, o.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage: append outcome %s: %w", o.ID, err)
	}
	return nil
}

// ListOutcomes returns all outcomes in insertion order.
func (s *PostgresStore) ListOutcomes(ctx context.Context) ([]model.CollaborationOutcome, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT outcome_id, match_id, success, actual_timeline, actual_cost, created_at
		 FROM outcomes ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("storage: list outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []model.CollaborationOutcome
	for rows.Next() {
		var (
			o        model.CollaborationOutcome
			timeline *string
		)
		if err := rows.Scan(&o.ID, &o.MatchID, &o.Success, &timeline, &o.ActualCost, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan outcome: %w", err)
		}
		if timeline != nil {
			o.ActualTimeline = *timeline
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// SavePatterns replaces the persisted success patterns.
func (s *PostgresStore) SavePatterns(ctx context.Context, patterns map[string]learn.Pattern) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage: save patterns: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM success_patterns`); err != nil {
		return fmt.Errorf("storage: clear patterns: %w", err)
	}
	for key, p := range patterns {
		if _, err := tx.Exec(ctx,
			`INSERT INTO success_patterns (pattern, value, outcomes) VALUES ($1, $2, $3)`,
			key, p.Value, p.Outcomes,
		); err != nil {
			return fmt.Errorf("storage: save pattern %s: %w", key, err)
		}
	}
	return tx.Commit(ctx)
}

// LoadPatterns returns the persisted success patterns.
func (s *PostgresStore) LoadPatterns(ctx context.Context) (map[string]learn.Pattern, error) {
	rows, err := s.pool.Query(ctx, `SELECT pattern, value, outcomes FROM success_patterns`)
	if err != nil {
		return nil, fmt.Errorf("storage: load patterns: %w", err)
	}
	defer rows.Close()

	patterns := make(map[string]learn.Pattern)
	for rows.Next() {
		var (
			key string
			p   learn.Pattern
		)
		if err := rows.Scan(&key, &p.Value, &p.Outcomes); err != nil {
			return nil, fmt.Errorf("storage: scan pattern: %w", err)
		}
		patterns[key] = p
	}
	return patterns, rows.Err()
}

// Upsert writes capability embeddings, implementing search.VectorIndex.
func (s *PostgresStore) Upsert(ctx context.Context, points []search.Point) error {
	if len(points) == 0 {
		return nil
	}
	for _, p := range points {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO capability_embeddings (capability_id, user_id, capability_type, tags, embedding)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (capability_id) DO UPDATE SET
				user_id = EXCLUDED.user_id,
				capability_type = EXCLUDED.capability_type,
				tags = EXCLUDED.tags,
				embedding = EXCLUDED.embedding`,
			p.CapabilityID, p.UserID, p.Type, p.Tags, pgvector.NewVector(p.Vector),
		)
		if err != nil {
			return fmt.Errorf("storage: upsert embedding %s: %w", p.CapabilityID, err)
		}
	}
	return nil
}

// FindSimilar returns the capabilities nearest to the query vector by
// cosine distance, excluding those owned by excludeUserID.
func (s *PostgresStore) FindSimilar(ctx context.Context, vector []float32, limit int, excludeUserID string) ([]search.Result, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT capability_id, user_id, 1 - (embedding <=> $1) AS score
		 FROM capability_embeddings
		 WHERE user_id <> $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(vector), excludeUserID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: find similar: %w", err)
	}
	defer rows.Close()

	var results []search.Result
	for rows.Next() {
		var (
			r     search.Result
			score float64
		)
		if err := rows.Scan(&r.CapabilityID, &r.UserID, &score); err != nil {
			return nil, fmt.Errorf("storage: scan similar: %w", err)
		}
		r.Score = float32(score)
		results = append(results, r)
	}
	return results, rows.Err()
}

// Delete removes capability embeddings, implementing search.VectorIndex.
func (s *PostgresStore) Delete(ctx context.Context, capIDs []uuid.UUID) error {
	if len(capIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM capability_embeddings WHERE capability_id = ANY($1)`, capIDs)
	if err != nil {
		return fmt.Errorf("storage: delete %d embeddings: %w", len(capIDs), err)
	}
	return nil
}

// Healthy reports database reachability, implementing search.VectorIndex.
func (s *PostgresStore) Healthy(ctx context.Context) error {
	return s.Ping(ctx)
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}
