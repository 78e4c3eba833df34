// Package substrate is the public API for embedding the Substrate
// capability-matching engine.
//
// Applications import this package to construct and extend the engine
// without forking it:
//
//	eng, err := substrate.New(
//	    substrate.WithVersion(version),
//	    substrate.WithLogger(logger),
//	    substrate.WithMatchHook(myNotifier{}),
//	)
//	if err != nil { ... }
//	defer eng.Close(ctx)
//
// The import graph enforces a strict no-cycle rule: substrate (root)
// imports internal/*, but internal/* never imports substrate (root).
// Public types (Profile, Need, Match, etc.) are standalone structs with no
// internal imports; conversion helpers (toInternalProfile, toPublicMatch)
// live here because this is the only file that sees both sides of the
// boundary.
package substrate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/substratehq/substrate/internal/config"
	"github.com/substratehq/substrate/internal/explain"
	"github.com/substratehq/substrate/internal/index"
	"github.com/substratehq/substrate/internal/learn"
	"github.com/substratehq/substrate/internal/match"
	"github.com/substratehq/substrate/internal/model"
	"github.com/substratehq/substrate/internal/ratelimit"
	"github.com/substratehq/substrate/internal/search"
	"github.com/substratehq/substrate/internal/service/embedding"
	"github.com/substratehq/substrate/internal/storage"
	"github.com/substratehq/substrate/internal/telemetry"
)

// hookTimeout bounds each async hook invocation.
const hookTimeout = 10 * time.Second

// Engine is the capability-matching engine lifecycle. Construct with
// New(), release resources with Close(). Engine has no public fields —
// use New() options to configure it.
type Engine struct {
	cfg          config.Config
	logger       *slog.Logger
	svc          *match.Service
	learner      *learn.Learner
	store        storage.Store       // nil when driver is "none"
	qdrant       *search.QdrantIndex // nil when Qdrant is not configured
	batcher      *embedding.Batcher
	limiter      ratelimit.Limiter
	redis        *redis.Client // nil unless the limiter is Redis-backed
	hooks        []MatchHook
	otelShutdown telemetry.Shutdown
	version      string
}

// New initialises the engine: loads configuration, opens the persistence
// backend, wires the embedding provider and vector index, and replays
// persisted profiles and learned patterns into the in-memory state.
func New(opts ...Option) (*Engine, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	// Load configuration (env vars), then apply option overrides.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.storeDriver != "" {
		cfg.StoreDriver = o.storeDriver
	}
	if o.sqlitePath != "" {
		cfg.SQLitePath = o.sqlitePath
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	if o.qdrantURL != "" {
		cfg.QdrantURL = o.qdrantURL
	}
	if o.hasMinMatchScore {
		cfg.MinMatchScore = o.minMatchScore
	}
	if o.maxMatches > 0 {
		cfg.MaxMatchesPerNeed = o.maxMatches
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	logger.Info("substrate starting", "version", version, "store", cfg.StoreDriver)

	ctx := context.Background()

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	// Open the persistence backend.
	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, fmt.Errorf("storage: %w", err)
	}

	// Create embedding provider — external override takes priority over
	// auto-detect.
	var provider embedding.Provider
	if o.embeddingProvider != nil {
		provider = &providerAdapter{p: o.embeddingProvider}
	} else {
		provider = newEmbeddingProvider(cfg, logger)
	}

	// Optional outbound rate limit on provider calls. Multi-instance
	// deployments coordinate through Redis when REDIS_URL is set.
	var limiter ratelimit.Limiter = ratelimit.NoopLimiter{}
	var redisClient *redis.Client
	if cfg.EmbedRateLimit > 0 {
		if cfg.RedisURL != "" {
			redisOpts, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				closeStore(ctx, store)
				_ = otelShutdown(ctx)
				return nil, fmt.Errorf("redis: %w", err)
			}
			redisClient = redis.NewClient(redisOpts)
			limiter = ratelimit.NewRedisLimiter(redisClient, logger, int64(cfg.EmbedRateLimit), time.Second)
			logger.Info("embedding rate limit: redis", "rps", cfg.EmbedRateLimit)
		} else {
			limiter = ratelimit.NewMemoryLimiter(cfg.EmbedRateLimit, cfg.EmbedRateBurst)
			logger.Info("embedding rate limit: memory", "rps", cfg.EmbedRateLimit, "burst", cfg.EmbedRateBurst)
		}
		provider = embedding.NewLimitedProvider(provider, limiter, "embed:"+cfg.EmbeddingProvider)
	}

	batcher := embedding.NewBatcher(provider, logger, cfg.EmbedQueueSize, cfg.EmbedBatchSize, cfg.EmbedFlushInterval)
	batcher.Start(ctx)

	// Wire the persistent vector index: external override, then Qdrant,
	// then pgvector when the store is Postgres.
	var vector search.VectorIndex
	var qdrantIndex *search.QdrantIndex
	switch {
	case o.vectorIndex != nil:
		vector = &vectorAdapter{v: o.vectorIndex}
	case cfg.QdrantURL != "":
		qdrantIndex, err = search.NewQdrantIndex(search.QdrantConfig{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
			Dims:       uint64(cfg.EmbeddingDimensions), //nolint:gosec // validated positive in config.Validate
		}, logger)
		if err != nil {
			_ = limiter.Close()
			closeStore(ctx, store)
			_ = otelShutdown(ctx)
			return nil, fmt.Errorf("qdrant: %w", err)
		}
		if err := qdrantIndex.EnsureCollection(ctx); err != nil {
			_ = qdrantIndex.Close()
			_ = limiter.Close()
			closeStore(ctx, store)
			_ = otelShutdown(ctx)
			return nil, fmt.Errorf("qdrant ensure collection: %w", err)
		}
		vector = qdrantIndex
		logger.Info("vector index: qdrant", "collection", cfg.QdrantCollection)
	default:
		if pg, ok := store.(*storage.PostgresStore); ok {
			vector = pg
			logger.Info("vector index: pgvector")
		} else {
			logger.Info("vector index: disabled (lexical retrieval only)")
		}
	}

	learner := learn.New(cfg.HistoryAlpha, logger)
	svc := match.NewService(cfg, logger, index.New(cfg.IndexShards), learner, batcher, vector)

	eng := &Engine{
		cfg:          cfg,
		logger:       logger,
		svc:          svc,
		learner:      learner,
		store:        store,
		qdrant:       qdrantIndex,
		batcher:      batcher,
		limiter:      limiter,
		redis:        redisClient,
		hooks:        o.matchHooks,
		otelShutdown: otelShutdown,
		version:      version,
	}

	if err := eng.replayPersisted(ctx); err != nil {
		eng.shutdown(ctx)
		return nil, err
	}

	return eng, nil
}

// replayPersisted restores learned patterns and re-indexes stored profiles
// so a restart resumes where the previous process left off.
func (e *Engine) replayPersisted(ctx context.Context) error {
	if e.store == nil {
		return nil
	}

	patterns, err := e.store.LoadPatterns(ctx)
	if err != nil {
		return fmt.Errorf("restore patterns: %w", err)
	}
	if len(patterns) > 0 {
		e.learner.Restore(patterns)
		e.logger.Info("learned patterns restored", "patterns", len(patterns))
	}

	profiles, err := e.store.ListProfiles(ctx)
	if err != nil {
		return fmt.Errorf("restore profiles: %w", err)
	}
	for _, p := range profiles {
		if err := e.svc.IndexProfile(ctx, p); err != nil {
			e.logger.Warn("stored profile failed re-indexing, skipped",
				"user_id", p.UserID, "error", err)
		}
	}
	if len(profiles) > 0 {
		e.logger.Info("stored profiles re-indexed", "profiles", len(profiles))
	}
	return nil
}

// IndexProfile validates a profile, indexes its shareable capabilities for
// matching, and persists it. Re-indexing the same user replaces the
// previous profile.
func (e *Engine) IndexProfile(ctx context.Context, profile Profile) error {
	p := toInternalProfile(profile)
	if err := e.svc.IndexProfile(ctx, p); err != nil {
		return err
	}
	if e.store != nil {
		if err := e.store.SaveProfile(ctx, p); err != nil {
			return fmt.Errorf("persist profile %s: %w", p.UserID, err)
		}
	}
	return nil
}

// FindMatches retrieves, scores, and ranks capabilities from other profiles
// that could serve the need. requesterID must identify a previously indexed
// profile; the requester's own capabilities are never returned. If ctx
// carries a deadline that expires mid-scoring, the best subset scored so
// far is returned with Partial set rather than an error.
func (e *Engine) FindMatches(ctx context.Context, need Need, requesterID string, maxResults int) (MatchSet, error) {
	requester, ok := e.svc.Profile(requesterID)
	if !ok {
		return MatchSet{}, fmt.Errorf("find matches: unknown requester %q, index the profile first", requesterID)
	}

	set, err := e.svc.FindMatches(ctx, toInternalNeed(need), requester, maxResults)
	if err != nil {
		return MatchSet{}, err
	}

	out := MatchSet{
		Matches: make([]Match, len(set.Matches)),
		Partial: set.Partial,
	}
	for i, m := range set.Matches {
		out.Matches[i] = toPublicMatch(m)
	}

	if len(e.hooks) > 0 {
		for _, m := range out.Matches {
			e.fireHooks(func(ctx context.Context, h MatchHook) error {
				return h.OnMatchProposed(ctx, m)
			}, "OnMatchProposed")
		}
	}

	return out, nil
}

// GetMatch returns a previously proposed match and its lifecycle status.
func (e *Engine) GetMatch(matchID uuid.UUID) (Match, MatchStatus, bool) {
	m, status, ok := e.svc.Get(matchID)
	if !ok {
		return Match{}, "", false
	}
	return toPublicMatch(m), MatchStatus(status), true
}

// ExplainMatch renders a structured explanation of a previously proposed
// match: score interpretation, key factors, evidence, uncertainty, and
// optionally the full reasoning trail and a verification protocol.
func (e *Engine) ExplainMatch(matchID uuid.UUID, opts ExplainOptions) (Explanation, error) {
	m, _, ok := e.svc.Get(matchID)
	if !ok {
		return Explanation{}, fmt.Errorf("explain: unknown match %s", matchID)
	}
	return toPublicExplanation(explain.Explain(m, explain.Options{
		IncludeReasoning:    opts.IncludeReasoning,
		IncludeAlternatives: opts.IncludeAlternatives,
		IncludeVerification: opts.IncludeVerification,
	})), nil
}

// ExplainMarkdown renders a match explanation as a Markdown document.
func (e *Engine) ExplainMarkdown(matchID uuid.UUID, opts ExplainOptions) (string, error) {
	m, _, ok := e.svc.Get(matchID)
	if !ok {
		return "", fmt.Errorf("explain: unknown match %s", matchID)
	}
	return explain.Explain(m, explain.Options{
		IncludeReasoning:    opts.IncludeReasoning,
		IncludeAlternatives: opts.IncludeAlternatives,
		IncludeVerification: opts.IncludeVerification,
	}).Markdown(), nil
}

// ComposeTeam scores a proposed member set against a problem statement and
// tracks the team for later explanation. Every member must already have an
// indexed profile; the member selection itself is the caller's.
func (e *Engine) ComposeTeam(problem string, memberIDs []string, roles map[string]string) (Team, error) {
	t, err := e.svc.ComposeTeam(problem, memberIDs, roles)
	if err != nil {
		return Team{}, err
	}
	return toPublicTeam(t), nil
}

// GetTeam returns a previously composed team.
func (e *Engine) GetTeam(teamID uuid.UUID) (Team, bool) {
	t, ok := e.svc.Team(teamID)
	if !ok {
		return Team{}, false
	}
	return toPublicTeam(t), true
}

// ExplainTeam renders a structured explanation of a previously composed
// team: predicted outcome, composition rationale, synergies, risks with
// mitigations, and optionally the full reasoning trail.
func (e *Engine) ExplainTeam(teamID uuid.UUID, opts ExplainOptions) (TeamExplanation, error) {
	t, ok := e.svc.Team(teamID)
	if !ok {
		return TeamExplanation{}, fmt.Errorf("explain: unknown team %s", teamID)
	}
	return toPublicTeamExplanation(explain.ExplainTeam(t, explain.Options{
		IncludeReasoning:    opts.IncludeReasoning,
		IncludeAlternatives: opts.IncludeAlternatives,
		IncludeVerification: opts.IncludeVerification,
	})), nil
}

// VerificationProtocol returns the ordered human verification procedure for
// a decision kind (ProtocolMatch or ProtocolTeam). The procedure is fixed
// per kind and never depends on a particular match.
func VerificationProtocol(kind string) ([]VerificationStep, error) {
	steps, err := explain.Protocol(kind)
	if err != nil {
		return nil, err
	}
	out := make([]VerificationStep, len(steps))
	for i, s := range steps {
		out[i] = VerificationStep(s)
	}
	return out, nil
}

// ResolveMatch transitions a match's lifecycle state. Rejecting a match is
// itself a learning signal and is folded into the success patterns.
func (e *Engine) ResolveMatch(ctx context.Context, matchID uuid.UUID, to MatchStatus) error {
	if err := e.svc.Resolve(matchID, model.MatchStatus(to)); err != nil {
		return err
	}
	if to == MatchRejected {
		e.persistPatterns(ctx)
	}
	return nil
}

// RecordOutcome folds a collaboration outcome into the learned success
// patterns and appends it to the outcome log. An outcome referencing an
// unknown match is a logged no-op; the second return value reports whether
// the outcome was applied.
func (e *Engine) RecordOutcome(ctx context.Context, matchID uuid.UUID, success bool) (Outcome, bool, error) {
	o, ok := e.svc.RecordOutcome(matchID, success)
	if !ok {
		return Outcome{}, false, nil
	}

	if e.store != nil {
		if err := e.store.AppendOutcome(ctx, o); err != nil {
			return Outcome{}, true, fmt.Errorf("persist outcome %s: %w", o.ID, err)
		}
	}
	e.persistPatterns(ctx)

	out := Outcome{ID: o.ID, MatchID: o.MatchID, Success: o.Success, CreatedAt: o.CreatedAt}
	e.fireHooks(func(ctx context.Context, h MatchHook) error {
		return h.OnOutcomeRecorded(ctx, out)
	}, "OnOutcomeRecorded")

	return out, true, nil
}

// Healthy reports whether the engine's backing services are reachable.
func (e *Engine) Healthy(ctx context.Context) error {
	if e.store != nil {
		if err := e.store.Ping(ctx); err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}
	if e.qdrant != nil {
		if err := e.qdrant.Healthy(ctx); err != nil {
			return fmt.Errorf("qdrant: %w", err)
		}
	}
	return nil
}

// Close flushes learned patterns, stops the embedding batcher, and releases
// the vector index, store, and telemetry providers.
func (e *Engine) Close(ctx context.Context) error {
	e.logger.Info("substrate shutting down")
	e.persistPatterns(ctx)
	e.shutdown(ctx)
	e.logger.Info("substrate stopped")
	return nil
}

func (e *Engine) shutdown(ctx context.Context) {
	e.batcher.Stop(ctx)
	_ = e.limiter.Close()
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.qdrant != nil {
		_ = e.qdrant.Close()
	}
	closeStore(ctx, e.store)
	_ = e.otelShutdown(ctx)
}

func (e *Engine) persistPatterns(ctx context.Context) {
	if e.store == nil {
		return
	}
	if err := e.store.SavePatterns(ctx, e.learner.Snapshot()); err != nil {
		e.logger.Warn("pattern persistence failed", "error", err)
	}
}

func (e *Engine) fireHooks(call func(context.Context, MatchHook) error, name string) {
	if len(e.hooks) == 0 {
		return
	}
	hooks := e.hooks
	logger := e.logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
		defer cancel()
		for _, h := range hooks {
			if err := call(ctx, h); err != nil {
				logger.Warn("match hook failed", "hook", name, "error", err)
			}
		}
	}()
}

// ── Wiring helpers ─────────────────────────────────────────────────────────────

func newStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		return storage.NewSQLiteStore(cfg.SQLitePath, logger)
	case "postgres":
		return storage.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.EmbeddingDimensions, logger)
	case "none":
		logger.Info("persistence disabled, state is in-memory only")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func closeStore(ctx context.Context, store storage.Store) {
	if store != nil {
		_ = store.Close(ctx)
	}
}

func newEmbeddingProvider(cfg config.Config, logger *slog.Logger) embedding.Provider {
	dims := cfg.EmbeddingDimensions

	switch cfg.EmbeddingProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			logger.Error("OPENAI_API_KEY required when SUBSTRATE_EMBEDDING_PROVIDER=openai")
			return embedding.NewNoopProvider(dims)
		}
		logger.Info("embedding provider: openai", "model", cfg.EmbeddingModel, "dimensions", dims)
		return embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel, dims)
	case "ollama":
		logger.Info("embedding provider: ollama", "url", cfg.OllamaURL, "model", cfg.OllamaModel, "dimensions", dims)
		return embedding.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, dims)
	case "noop":
		logger.Info("embedding provider: noop (semantic matching disabled)")
		return embedding.NewNoopProvider(dims)
	case "auto":
		fallthrough
	default:
		if ollamaReachable(cfg.OllamaURL) {
			logger.Info("embedding provider: ollama (auto-detected)", "url", cfg.OllamaURL, "model", cfg.OllamaModel, "dimensions", dims)
			return embedding.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, dims)
		}
		if cfg.OpenAIAPIKey != "" {
			logger.Info("embedding provider: openai (auto-detected)", "model", cfg.EmbeddingModel, "dimensions", dims)
			return embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel, dims)
		}
		logger.Warn("no embedding provider available, using noop (semantic matching disabled)")
		return embedding.NewNoopProvider(dims)
	}
}

func ollamaReachable(baseURL string) bool {
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(c, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ── Adapters (defined here because this file imports both sides) ───────────────

// providerAdapter wraps a public EmbeddingProvider to satisfy the internal
// embedding.Provider interface.
type providerAdapter struct {
	p EmbeddingProvider
}

func (a *providerAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return a.p.Embed(ctx, text)
}

func (a *providerAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return a.p.EmbedBatch(ctx, texts)
}

func (a *providerAdapter) Dimensions() int {
	return a.p.Dimensions()
}

// vectorAdapter wraps a public VectorIndex to satisfy search.VectorIndex.
type vectorAdapter struct {
	v VectorIndex
}

func (a *vectorAdapter) Upsert(ctx context.Context, points []search.Point) error {
	pub := make([]VectorPoint, len(points))
	for i, p := range points {
		pub[i] = VectorPoint(p)
	}
	return a.v.Upsert(ctx, pub)
}

func (a *vectorAdapter) FindSimilar(ctx context.Context, vector []float32, limit int, excludeUserID string) ([]search.Result, error) {
	results, err := a.v.FindSimilar(ctx, vector, limit, excludeUserID)
	if err != nil {
		return nil, err
	}
	out := make([]search.Result, len(results))
	for i, r := range results {
		out[i] = search.Result(r)
	}
	return out, nil
}

func (a *vectorAdapter) Delete(ctx context.Context, capabilityIDs []uuid.UUID) error {
	return a.v.Delete(ctx, capabilityIDs)
}

func (a *vectorAdapter) Healthy(ctx context.Context) error {
	return a.v.Healthy(ctx)
}

// ── Type converters ────────────────────────────────────────────────────────────

// toInternalProfile converts a public Profile to the internal model.Profile.
// Lives here because this is the only file that imports both sides of the
// boundary.
func toInternalProfile(p Profile) model.Profile {
	caps := make([]model.Capability, len(p.Capabilities))
	for i, c := range p.Capabilities {
		caps[i] = toInternalCapability(c)
	}
	domains := make([]model.Domain, len(p.Domains))
	for i, d := range p.Domains {
		domains[i] = model.Domain(d)
	}
	return model.Profile{
		UserID:       p.UserID,
		Capabilities: caps,
		Domains:      domains,
		Location:     p.Location,
		Timezone:     p.Timezone,
		Availability: p.Availability,
	}
}

func toInternalCapability(c Capability) model.Capability {
	return model.Capability{
		ID:          c.ID,
		Type:        model.CapabilityType(c.Type),
		Name:        c.Name,
		Description: c.Description,
		Proficiency: c.Proficiency,
		Confidence:  c.Confidence,
		Evidence:    c.Evidence,
		Privacy:     model.PrivacyLevel(c.Privacy),
		Tags:        c.Tags,
		Metadata:    c.Metadata,
	}
}

func toInternalNeed(n Need) model.Need {
	return model.Need{
		ID:          n.ID,
		Type:        model.CapabilityType(n.Type),
		Name:        n.Name,
		Description: n.Description,
		Urgency:     n.Urgency,
		Importance:  n.Importance,
		Domain:      model.Domain(n.Domain),
		Context:     n.Context,
		Constraints: n.Constraints,
		Tags:        n.Tags,
	}
}

// toPublicMatch converts an internal model.Match to the public Match.
func toPublicMatch(m model.Match) Match {
	return Match{
		ID:         m.ID,
		NeedID:     m.Need.ID,
		NeedUserID: m.NeedUserID,
		Capability: Capability{
			ID:          m.Capability.ID,
			Type:        CapabilityType(m.Capability.Type),
			Name:        m.Capability.Name,
			Description: m.Capability.Description,
			Proficiency: m.Capability.Proficiency,
			Confidence:  m.Capability.Confidence,
			Evidence:    m.Capability.Evidence,
			Privacy:     PrivacyLevel(m.Capability.Privacy),
			Tags:        m.Capability.Tags,
			Metadata:    m.Capability.Metadata,
		},
		CapabilityUserID:     m.CapabilityUserID,
		MatchScore:           m.MatchScore,
		ComplementarityScore: m.ComplementarityScore,
		FeasibilityScore:     m.FeasibilityScore,
		Confidence:           m.Confidence,
		Evidence:             m.Evidence,
		UncertaintyFactors:   m.UncertaintyFactors,
		VerificationMethods:  m.VerificationMethods,
		CreatedAt:            m.CreatedAt,
	}
}

// toPublicExplanation converts an internal explain.Explanation to the
// public Explanation.
func toPublicExplanation(e explain.Explanation) Explanation {
	out := Explanation{
		MatchID: e.MatchID,
		Summary: e.Summary,
		Quality: Band(e.Quality),
		Confidence: ConfidenceReport{
			Value:    e.Confidence.Value,
			Interval: Interval(e.Confidence.Interval),
		},
		Evidence:           e.Evidence,
		UncertaintyFactors: e.UncertaintyFactors,
	}
	for _, s := range e.ScoreBreakdown {
		out.ScoreBreakdown = append(out.ScoreBreakdown, ScoreInterpretation{
			Name: s.Name, Score: s.Score, Band: Band(s.Band),
		})
	}
	for _, r := range e.Reasoning {
		out.Reasoning = append(out.Reasoning, toPublicReasoningStep(r))
	}
	for _, r := range e.KeyFactors {
		out.KeyFactors = append(out.KeyFactors, toPublicReasoningStep(r))
	}
	for _, v := range e.Verification {
		out.Verification = append(out.Verification, VerificationStep(v))
	}
	return out
}

func toPublicReasoningStep(r explain.ReasoningStep) ReasoningStep {
	return ReasoningStep{
		Operation:    r.Operation,
		Reasoning:    r.Reasoning,
		Confidence:   r.Confidence,
		Alternatives: r.Alternatives,
	}
}

func toPublicTeam(t model.Team) Team {
	return Team{
		ID:                   t.ID,
		ProblemDescription:   t.ProblemDescription,
		Members:              t.Members,
		Roles:                t.Roles,
		ComplementarityScore: t.ComplementarityScore,
		DiversityScore:       t.DiversityScore,
		FeasibilityScore:     t.FeasibilityScore,
		PredictedSuccess:     t.PredictedSuccess,
		RiskFactors:          t.RiskFactors,
		CreatedAt:            t.CreatedAt,
	}
}

func toPublicTeamExplanation(e explain.TeamExplanation) TeamExplanation {
	out := TeamExplanation{
		TeamID:  e.TeamID,
		Summary: e.Summary,
		Outcome: PredictedOutcome{
			Probability:    e.Outcome.Probability,
			Interval:       Interval(e.Outcome.Interval),
			Interpretation: e.Outcome.Interpretation,
		},
		Composition: TeamComposition{
			Roles:                e.Composition.Roles,
			ComplementarityScore: e.Composition.ComplementarityScore,
			DiversityScore:       e.Composition.DiversityScore,
			WhyThisMatters:       e.Composition.WhyThisMatters,
		},
		Selection: e.Selection,
		Synergies: e.Synergies,
		Risks: RiskAssessment{
			Risks:       e.Risks.Risks,
			Mitigations: e.Risks.Mitigations,
			Monitoring:  e.Risks.Monitoring,
		},
		Resources: TeamResources{
			TimelineEstimate:    e.Resources.TimelineEstimate,
			TimelineSensitivity: e.Resources.TimelineSensitivity,
			CostEstimate:        e.Resources.CostEstimate,
			CostBreakdown:       e.Resources.CostBreakdown,
		},
	}
	for _, r := range e.Reasoning {
		out.Reasoning = append(out.Reasoning, toPublicReasoningStep(r))
	}
	return out
}
