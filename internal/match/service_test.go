package match

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substratehq/substrate/internal/index"
	"github.com/substratehq/substrate/internal/learn"
	"github.com/substratehq/substrate/internal/model"
)

func newTestService() *Service {
	cfg := testConfig()
	return NewService(cfg, testLogger(), index.New(cfg.IndexShards), learn.New(cfg.HistoryAlpha, testLogger()), nil, nil)
}

func seedProfiles(t *testing.T, s *Service) (requester model.Profile, owners []model.Profile) {
	t.Helper()

	requester = profileWith("requester", capWith(model.TypeKnowledge, "marine biology", "field research", 0.7))

	owners = []model.Profile{
		profileWith("alice",
			capWith(model.TypeSkill, "ROS2 navigation", "autonomous navigation stacks for mobile robots", 0.9, "ros2", "navigation"),
			capWith(model.TypeSkill, "motion planning", "sampling-based planners", 0.8, "planning"),
			capWith(model.TypeKnowledge, "SLAM", "mapping literature", 0.7, "slam"),
		),
		profileWith("bob",
			capWith(model.TypeSkill, "navigation consulting", "advice on robot navigation systems", 0.6, "navigation"),
		),
		profileWith("carol",
			capWith(model.TypeResource, "robot lab", "testing space with motion capture", 0.9, "hardware"),
		),
	}

	for _, p := range append(owners, requester) {
		require.NoError(t, s.IndexProfile(context.Background(), p))
	}
	return requester, owners
}

func navNeed() model.Need {
	return model.Need{
		ID:          uuid.New(),
		Type:        model.TypeSkill,
		Name:        "Navigation software help",
		Description: "Need help with ROS2 navigation for a mobile robot",
		Urgency:     0.5,
		Importance:  0.8,
		Domain:      model.DomainRobotics,
		Tags:        []string{"ros2", "navigation"},
	}
}

func TestFindMatchesHappyPath(t *testing.T) {
	s := newTestService()
	requester, _ := seedProfiles(t, s)

	set, err := s.FindMatches(context.Background(), navNeed(), requester, 10)
	require.NoError(t, err)
	assert.False(t, set.Partial)
	require.NotEmpty(t, set.Matches)

	for _, m := range set.Matches {
		assert.NotEqual(t, m.NeedUserID, m.CapabilityUserID, "no self-matches")
		assert.GreaterOrEqual(t, m.MatchScore, s.cfg.MinMatchScore, "threshold enforced before ranking")
		assert.LessOrEqual(t, m.MatchScore, 1.0)
		assert.NotNil(t, m.Provenance)
		assert.GreaterOrEqual(t, m.Provenance.Len(), 5)
	}

	for i := 1; i < len(set.Matches); i++ {
		assert.GreaterOrEqual(t, set.Matches[i-1].MatchScore, set.Matches[i].MatchScore,
			"results sorted descending by score")
	}
}

func TestFindMatchesDeterministic(t *testing.T) {
	s := newTestService()
	requester, _ := seedProfiles(t, s)
	need := navNeed()

	first, err := s.FindMatches(context.Background(), need, requester, 10)
	require.NoError(t, err)
	second, err := s.FindMatches(context.Background(), need, requester, 10)
	require.NoError(t, err)

	require.Equal(t, len(first.Matches), len(second.Matches))
	for i := range first.Matches {
		assert.Equal(t, first.Matches[i].Capability.ID, second.Matches[i].Capability.ID,
			"identical inputs and index state produce an identical ranked list")
		assert.Equal(t, first.Matches[i].MatchScore, second.Matches[i].MatchScore)
	}
}

func TestFindMatchesEmptyIndex(t *testing.T) {
	s := newTestService()
	requester := profileWith("requester")
	require.NoError(t, s.IndexProfile(context.Background(), requester))

	set, err := s.FindMatches(context.Background(), navNeed(), requester, 10)
	require.NoError(t, err, "zero candidates is an empty result, not an error")
	assert.Empty(t, set.Matches)

	require.NotNil(t, set.Provenance)
	require.GreaterOrEqual(t, set.Provenance.Len(), 1)
	retrieval := set.Provenance.Steps[0]
	assert.Equal(t, "candidate_retrieval", retrieval.Operation)
	assert.Equal(t, 0, retrieval.Outputs["candidate_count"], "the zero-candidate case is recorded")
}

func TestFindMatchesExcludesRequester(t *testing.T) {
	s := newTestService()
	// The requester owns the only capability matching the need.
	requester := profileWith("requester",
		capWith(model.TypeSkill, "ROS2 navigation", "navigation stacks", 0.9, "ros2", "navigation"))
	require.NoError(t, s.IndexProfile(context.Background(), requester))

	set, err := s.FindMatches(context.Background(), navNeed(), requester, 10)
	require.NoError(t, err)
	assert.Empty(t, set.Matches, "a user's own capabilities never match their needs")
}

func TestFindMatchesTruncates(t *testing.T) {
	s := newTestService()
	requester, _ := seedProfiles(t, s)

	set, err := s.FindMatches(context.Background(), navNeed(), requester, 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(set.Matches), 1)
}

func TestFindMatchesRejectsInvalidNeed(t *testing.T) {
	s := newTestService()
	requester, _ := seedProfiles(t, s)

	bad := navNeed()
	bad.Type = "sorcery"
	_, err := s.FindMatches(context.Background(), bad, requester, 10)
	require.Error(t, err, "malformed enums fail fast at the boundary")
}

func TestFindMatchesDeadlinePartial(t *testing.T) {
	s := newTestService()
	requester, _ := seedProfiles(t, s)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	set, err := s.FindMatches(ctx, navNeed(), requester, 10)
	require.NoError(t, err, "deadline expiry yields partial results, not an error")
	assert.True(t, set.Partial)
}

func TestMatchLifecycle(t *testing.T) {
	s := newTestService()
	requester, _ := seedProfiles(t, s)

	set, err := s.FindMatches(context.Background(), navNeed(), requester, 10)
	require.NoError(t, err)
	require.NotEmpty(t, set.Matches)
	id := set.Matches[0].ID

	_, status, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, model.MatchProposed, status)

	require.NoError(t, s.Resolve(id, model.MatchAccepted))
	require.NoError(t, s.Resolve(id, model.MatchCompleted))

	err = s.Resolve(id, model.MatchAccepted)
	require.Error(t, err, "completed is terminal")
}

func TestRejectionIsALearningSignal(t *testing.T) {
	s := newTestService()
	requester, _ := seedProfiles(t, s)

	set, err := s.FindMatches(context.Background(), navNeed(), requester, 10)
	require.NoError(t, err)
	require.NotEmpty(t, set.Matches)
	m := set.Matches[0]

	require.NoError(t, s.Resolve(m.ID, model.MatchRejected))
	assert.Negative(t, s.learner.Boost(m.Need.Type, m.Capability.Type),
		"rejection records an unsuccessful outcome")
}

func TestRecordOutcome(t *testing.T) {
	s := newTestService()
	requester, _ := seedProfiles(t, s)

	set, err := s.FindMatches(context.Background(), navNeed(), requester, 10)
	require.NoError(t, err)
	require.NotEmpty(t, set.Matches)
	m := set.Matches[0]

	outcome, ok := s.RecordOutcome(m.ID, true)
	require.True(t, ok)
	assert.Equal(t, m.ID, outcome.MatchID)
	assert.True(t, outcome.Success)
	assert.Positive(t, s.learner.Boost(m.Need.Type, m.Capability.Type))
}

func TestRecordOutcomeUnknownMatch(t *testing.T) {
	s := newTestService()
	_, ok := s.RecordOutcome(uuid.New(), true)
	assert.False(t, ok, "unknown match is a logged no-op, never fatal")
}

func TestRankFiltersBeforeSorting(t *testing.T) {
	mk := func(score float64) model.Match {
		return model.Match{ID: uuid.New(), MatchScore: score}
	}
	in := []model.Match{mk(0.3), mk(0.9), mk(0.5), mk(0.9), mk(0.1)}
	g := model.NewProvenanceGraph("capability_match")

	out := Rank(in, 0.4, 10, g)
	require.Len(t, out, 3, "below-threshold matches never occupy a rank slot")
	assert.Equal(t, in[1].ID, out[0].ID)
	assert.Equal(t, in[3].ID, out[1].ID, "ties keep their incoming order")
	assert.Equal(t, in[2].ID, out[2].ID)

	require.Equal(t, 1, g.Len())
	assert.Equal(t, "ranking", g.Steps[0].Operation)
	assert.Equal(t, 3, g.Steps[0].Outputs["returned_count"])
}

func TestRankTruncates(t *testing.T) {
	in := []model.Match{
		{ID: uuid.New(), MatchScore: 0.9},
		{ID: uuid.New(), MatchScore: 0.8},
		{ID: uuid.New(), MatchScore: 0.7},
	}
	g := model.NewProvenanceGraph("capability_match")
	out := Rank(in, 0.0, 2, g)
	require.Len(t, out, 2)
	assert.Equal(t, 0.9, out[0].MatchScore)
}
