package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/substratehq/substrate/internal/learn"
	"github.com/substratehq/substrate/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id    TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS outcomes (
	outcome_id      TEXT PRIMARY KEY,
	match_id        TEXT NOT NULL,
	success         INTEGER NOT NULL,
	actual_timeline TEXT,
	actual_cost     REAL,
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outcomes_match ON outcomes (match_id);

CREATE TABLE IF NOT EXISTS success_patterns (
	pattern  TEXT PRIMARY KEY,
	value    REAL NOT NULL,
	outcomes INTEGER NOT NULL
);
`

// SQLiteStore is the default single-file persistence backend. Profiles are
// stored as JSON documents; outcomes and patterns in flat tables.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if necessary) the database at path and
// ensures the schema exists.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite %s: %w", path, err)
	}
	// modernc sqlite serializes writes internally; a single connection
	// avoids SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ensure sqlite schema: %w", err)
	}

	logger.Info("storage: sqlite opened", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

// SaveProfile upserts a profile as a JSON document.
func (s *SQLiteStore) SaveProfile(ctx context.Context, p model.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("storage: marshal profile %s: %w", p.UserID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		p.UserID, string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("storage: save profile %s: %w", p.UserID, err)
	}
	return nil
}

// LoadProfile returns the stored profile for userID, or ErrNotFound.
func (s *SQLiteStore) LoadProfile(ctx context.Context, userID string) (model.Profile, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM profiles WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("storage: load profile %s: %w", userID, err)
	}

	var p model.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return model.Profile{}, fmt.Errorf("storage: unmarshal profile %s: %w", userID, err)
	}
	return p, nil
}

// ListProfiles returns all stored profiles.
func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("storage: list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("storage: scan profile: %w", err)
		}
		var p model.Profile
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("storage: unmarshal profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// AppendOutcome writes one collaboration outcome.
func (s *SQLiteStore) AppendOutcome(ctx context.Context, o model.CollaborationOutcome) error {
	var cost any
	if o.ActualCost != nil {
		cost = *o.ActualCost
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (outcome_id, match_id, success, actual_timeline, actual_cost, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID.String(), o.MatchID.String(), boolToInt(o.Success), o.ActualTimeline, cost,
		o.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("storage: append outcome %s: %w", o.ID, err)
	}
	return nil
}

// ListOutcomes returns all outcomes in insertion order.
func (s *SQLiteStore) ListOutcomes(ctx context.Context) ([]model.CollaborationOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome_id, match_id, success, actual_timeline, actual_cost, created_at
		 FROM outcomes ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("storage: list outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []model.CollaborationOutcome
	for rows.Next() {
		var (
			idStr, matchStr, createdStr string
			success                     int
			timeline                    sql.NullString
			cost                        sql.NullFloat64
		)
		if err := rows.Scan(&idStr, &matchStr, &success, &timeline, &cost, &createdStr); err != nil {
			return nil, fmt.Errorf("storage: scan outcome: %w", err)
		}

		o := model.CollaborationOutcome{Success: success != 0}
		if o.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("storage: outcome id: %w", err)
		}
		if o.MatchID, err = uuid.Parse(matchStr); err != nil {
			return nil, fmt.Errorf("storage: outcome match id: %w", err)
		}
		if o.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr); err != nil {
			return nil, fmt.Errorf("storage: outcome created_at: %w", err)
		}
		if timeline.Valid {
			o.ActualTimeline = timeline.String
		}
		if cost.Valid {
			c := cost.Float64
			o.ActualCost = &c
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// SavePatterns replaces the persisted success patterns.
func (s *SQLiteStore) SavePatterns(ctx context.Context, patterns map[string]learn.Pattern) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: save patterns: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM success_patterns`); err != nil {
		return fmt.Errorf("storage: clear patterns: %w", err)
	}
	for key, p := range patterns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO success_patterns (pattern, value, outcomes) VALUES (?, ?, ?)`,
			key, p.Value, p.Outcomes,
		); err != nil {
			return fmt.Errorf("storage: save pattern %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// LoadPatterns returns the persisted success patterns.
func (s *SQLiteStore) LoadPatterns(ctx context.Context) (map[string]learn.Pattern, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT pattern, value, outcomes FROM success_patterns`)
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

// Ping checks database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close shuts down the database handle.
func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
