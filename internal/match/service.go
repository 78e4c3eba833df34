// Package match implements the capability matching pipeline: candidate
// retrieval, multi-factor scoring, ranking, and match lifecycle tracking.
package match

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/substratehq/substrate/internal/config"
	"github.com/substratehq/substrate/internal/index"
	"github.com/substratehq/substrate/internal/learn"
	"github.com/substratehq/substrate/internal/model"
	"github.com/substratehq/substrate/internal/search"
	"github.com/substratehq/substrate/internal/service/embedding"
	"github.com/substratehq/substrate/internal/telemetry"
)

// MatchSet is the result of one FindMatches call. Partial is set when the
// request deadline expired before every candidate was scored; Matches then
// holds the best-scored subset computed so far.
type MatchSet struct {
	Matches    []model.Match
	Partial    bool
	Provenance *model.ProvenanceGraph
}

// Service wires the retrieval, scoring, and ranking stages together and
// tracks the lifecycle of proposed matches. Safe for concurrent use.
type Service struct {
	cfg       config.Config
	logger    *slog.Logger
	index     *index.Index
	retriever *Retriever
	scorer    *Scorer
	learner   *learn.Learner
	embedder  embedding.Provider // nil: lexical similarity only
	vector    search.VectorIndex // nil: in-memory retrieval only

	mu       sync.RWMutex
	profiles map[string]model.Profile
	matches  map[uuid.UUID]*trackedMatch
	teams    map[uuid.UUID]model.Team

	findDuration metric.Float64Histogram
	returned     metric.Int64Counter
}

type trackedMatch struct {
	match  model.Match
	status model.MatchStatus
}

// NewService creates the matching service. embedder and vector may be nil.
func NewService(cfg config.Config, logger *slog.Logger, ix *index.Index, learner *learn.Learner, embedder embedding.Provider, vector search.VectorIndex) *Service {
	meter := telemetry.Meter("substrate/match")
	findDuration, _ := meter.Float64Histogram("substrate.match.find_duration",
		metric.WithDescription("Wall-clock duration of FindMatches calls"),
		metric.WithUnit("ms"),
	)
	returned, _ := meter.Int64Counter("substrate.match.returned",
		metric.WithDescription("Total matches returned to callers"),
	)

	return &Service{
		cfg:          cfg,
		logger:       logger,
		index:        ix,
		retriever:    NewRetriever(ix),
		scorer:       NewScorer(cfg, learner),
		learner:      learner,
		embedder:     embedder,
		vector:       vector,
		profiles:     make(map[string]model.Profile),
		matches:      make(map[uuid.UUID]*trackedMatch),
		teams:        make(map[uuid.UUID]model.Team),
		findDuration: findDuration,
		returned:     returned,
	}
}

// IndexProfile validates a profile and indexes its shareable capabilities.
// Re-indexing the same profile replaces its previous entries. Embedding or
// vector-index failures degrade to lexical matching and are never fatal.
func (s *Service) IndexProfile(ctx context.Context, profile model.Profile) error {
	if err := model.ValidateProfile(profile); err != nil {
		return fmt.Errorf("match: index profile: %w", err)
	}

	s.mu.Lock()
	s.profiles[profile.UserID] = profile
	s.mu.Unlock()

	shareable := profile.Shareable()
	for _, cap := range shareable.Capabilities {
		s.index.Upsert(profile.UserID, cap)
	}

	if s.embedder != nil && len(shareable.Capabilities) > 0 {
		s.embedCapabilities(ctx, profile.UserID, shareable.Capabilities)
	}

	s.logger.Info("match: profile indexed",
		"user_id", profile.UserID,
		"capabilities", len(shareable.Capabilities),
	)
	return nil
}

func (s *Service) embedCapabilities(ctx context.Context, userID string, caps []model.Capability) {
	texts := make([]string, len(caps))
	for i, c := range caps {
		texts[i] = c.EmbeddingText()
	}

	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		s.logger.Warn("match: capability embedding failed, lexical matching only",
			"user_id", userID, "error", err)
		return
	}

	points := make([]search.Point, 0, len(caps))
	for i, c := range caps {
		if i >= len(vecs) || len(vecs[i]) == 0 {
			continue
		}
		s.index.SetEmbedding(c.ID, vecs[i])
		points = append(points, search.Point{
			CapabilityID: c.ID,
			UserID:       userID,
			Type:         string(c.Type),
			Tags:         model.NormalizeTags(c.Tags),
			Vector:       vecs[i],
		})
	}

	if s.vector != nil && len(points) > 0 {
		if err := s.vector.Upsert(ctx, points); err != nil {
			s.logger.Warn("match: vector index upsert failed", "user_id", userID, "error", err)
		}
	}
}

// FindMatches retrieves, scores, and ranks candidate capabilities for the
// need. Scoring is parallelized across a bounded worker pool; if the context
// deadline expires mid-scoring, the best subset scored so far is returned
// with Partial set rather than an error.
func (s *Service) FindMatches(ctx context.Context, need model.Need, requester model.Profile, maxResults int) (MatchSet, error) {
	if err := model.ValidateNeed(need); err != nil {
		return MatchSet{}, fmt.Errorf("match: find matches: %w", err)
	}
	if maxResults <= 0 {
		maxResults = s.cfg.MaxMatchesPerNeed
	}

	start := time.Now()
	g := model.NewProvenanceGraph("capability_match")

	candidates := s.retriever.Retrieve(need, requester, g)

	var needVec []float32
	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, need.EmbeddingText())
		if err != nil {
			s.logger.Warn("match: need embedding failed, lexical fallback", "error", err)
		} else {
			needVec = vec
		}
	}

	candidates = s.augmentSemantic(ctx, needVec, requester.UserID, candidates, maxResults, g)

	// Scored results land in per-candidate slots so the collected order is
	// retrieval order regardless of goroutine completion order.
	scored := make([]*model.Match, len(candidates))
	partial := false

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.cfg.ScoringWorkers)
	for i, entry := range candidates {
		if egCtx.Err() != nil {
			partial = true
			break
		}
		eg.Go(func() error {
			if egCtx.Err() != nil {
				return nil
			}
			owner := s.profileFor(entry.UserID)
			capVec := s.index.Embedding(entry.Capability.ID)
			m := s.scorer.Score(need, requester, owner, entry.Capability, needVec, capVec)
			scored[i] = &m
			return nil
		})
	}
	_ = eg.Wait()
	if ctx.Err() != nil {
		partial = true
	}

	results := make([]model.Match, 0, len(scored))
	for _, m := range scored {
		if m != nil {
			results = append(results, *m)
		}
	}

	ranked := Rank(results, s.cfg.MinMatchScore, maxResults, g)

	if partial {
		g.Append(model.ProvenanceStep{
			Operation: "partial_results",
			Outputs: map[string]any{
				"scored":     len(results),
				"candidates": len(candidates),
			},
			Reasoning:  fmt.Sprintf("Deadline expired after scoring %d of %d candidates; returning best subset", len(results), len(candidates)),
			Confidence: 0.6,
		})
	}

	s.mu.Lock()
	for _, m := range ranked {
		s.matches[m.ID] = &trackedMatch{match: m, status: model.MatchProposed}
	}
	s.mu.Unlock()

	elapsed := time.Since(start)
	s.findDuration.Record(ctx, float64(elapsed.Milliseconds()))
	s.returned.Add(ctx, int64(len(ranked)))

	s.logger.Info("match: find completed",
		"need_id", need.ID,
		"candidates", len(candidates),
		"returned", len(ranked),
		"partial", partial,
		"duration_ms", elapsed.Milliseconds(),
	)

	return MatchSet{Matches: ranked, Partial: partial, Provenance: g}, nil
}

// augmentSemantic unions persistent vector-index hits into the candidate
// set when both an embedding and a vector index are available.
func (s *Service) augmentSemantic(ctx context.Context, needVec []float32, requesterID string, candidates []index.Entry, maxResults int, g *model.ProvenanceGraph) []index.Entry {
	if s.vector == nil || len(needVec) == 0 {
		return candidates
	}

	hits, err := s.vector.FindSimilar(ctx, needVec, maxResults*3, requesterID)
	if err != nil {
		s.logger.Warn("match: semantic retrieval failed", "error", err)
		return candidates
	}

	seen := make(map[uuid.UUID]struct{}, len(candidates))
	for _, e := range candidates {
		seen[e.Capability.ID] = struct{}{}
	}

	added := 0
	for _, hit := range hits {
		if _, ok := seen[hit.CapabilityID]; ok {
			continue
		}
		entry, ok := s.index.Get(hit.CapabilityID)
		if !ok || entry.UserID == requesterID {
			continue
		}
		candidates = append(candidates, entry)
		seen[hit.CapabilityID] = struct{}{}
		added++
	}

	g.Append(model.ProvenanceStep{
		Operation: "semantic_retrieval",
		Inputs:    map[string]any{"limit": maxResults * 3},
		Outputs: map[string]any{
			"hits":             len(hits),
			"added_candidates": added,
		},
		Reasoning:  fmt.Sprintf("Persistent vector index returned %d hits; %d were new candidates", len(hits), added),
		Confidence: 0.85,
	})
	return candidates
}

// Profile returns the indexed profile for userID, if one exists.
func (s *Service) Profile(userID string) (model.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	return p, ok
}

func (s *Service) profileFor(userID string) model.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[userID]; ok {
		return p
	}
	return model.Profile{UserID: userID}
}

// Get returns a tracked match and its lifecycle status.
func (s *Service) Get(matchID uuid.UUID) (model.Match, model.MatchStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tm, ok := s.matches[matchID]
	if !ok {
		return model.Match{}, "", false
	}
	return tm.match.Clone(), tm.status, true
}

// Resolve transitions a match's lifecycle state. Rejection is itself a
// learning signal and is recorded as an unsuccessful outcome.
func (s *Service) Resolve(matchID uuid.UUID, to model.MatchStatus) error {
	s.mu.Lock()
	tm, ok := s.matches[matchID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("match: resolve: unknown match %s", matchID)
	}
	if !tm.status.CanTransition(to) {
		from := tm.status
		s.mu.Unlock()
		return fmt.Errorf("match: resolve: illegal transition %s -> %s", from, to)
	}
	tm.status = to
	m := tm.match
	s.mu.Unlock()

	if to == model.MatchRejected {
		s.learner.Record(m.Need.Type, m.Capability.Type, false, m.MatchScore)
	}

	s.logger.Info("match: resolved", "match_id", matchID, "status", to)
	return nil
}

// RecordOutcome folds a collaboration outcome into the learner and returns
// the outcome record for persistence. An outcome referencing an unknown
// match is a logged no-op, not an error.
func (s *Service) RecordOutcome(matchID uuid.UUID, success bool) (model.CollaborationOutcome, bool) {
	s.mu.RLock()
	tm, ok := s.matches[matchID]
	s.mu.RUnlock()

	if !ok {
		s.logger.Warn("match: outcome for unknown match ignored", "match_id", matchID)
		return model.CollaborationOutcome{}, false
	}

	m := tm.match
	s.learner.Record(m.Need.Type, m.Capability.Type, success, m.MatchScore)

	return model.CollaborationOutcome{
		ID:        uuid.New(),
		MatchID:   matchID,
		Success:   success,
		CreatedAt: time.Now().UTC(),
	}, true
}
