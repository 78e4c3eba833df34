package explain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substratehq/substrate/internal/explain"
	"github.com/substratehq/substrate/internal/model"
)

func scoredMatch() model.Match {
	g := model.NewProvenanceGraph("match_scoring")
	g.Append(model.ProvenanceStep{Operation: "similarity_scoring", Reasoning: "compared lexically", Confidence: 0.6})
	g.Append(model.ProvenanceStep{Operation: "complementarity_scoring", Reasoning: "profiles overlap 10%", Confidence: 0.85})
	g.Append(model.ProvenanceStep{
		Operation: "feasibility_scoring", Reasoning: "no penalties", Confidence: 0.8,
		AlternativesConsidered: []map[string]any{{"penalty": "timezone", "applied": false}},
	})
	g.Append(model.ProvenanceStep{Operation: "historical_scoring", Reasoning: "no history", Confidence: 0.5})
	g.Append(model.ProvenanceStep{Operation: "score_combination", Reasoning: "combined to 0.72", Confidence: 0.7})

	return model.Match{
		ID:                   uuid.New(),
		Need:                 model.Need{Name: "Navigation help", Type: model.TypeSkill, Domain: model.DomainRobotics},
		NeedUserID:           "a",
		Capability:           model.Capability{Name: "ROS2 navigation", Type: model.TypeSkill, Proficiency: 0.9},
		CapabilityUserID:     "b",
		MatchScore:           0.72,
		ComplementarityScore: 0.6,
		FeasibilityScore:     1.0,
		Confidence:           0.7,
		Evidence:             []string{"shared tags: ros2"},
		UncertaintyFactors:   []string{"no historical outcomes for this type pairing"},
		Provenance:           g,
	}
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, explain.BandExcellent, explain.BandFor(0.8))
	assert.Equal(t, explain.BandGood, explain.BandFor(0.6))
	assert.Equal(t, explain.BandModerate, explain.BandFor(0.4))
	assert.Equal(t, explain.BandWeak, explain.BandFor(0.39))
}

func TestExplainReasoningMatchesProvenance(t *testing.T) {
	m := scoredMatch()
	e := explain.Explain(m, explain.Options{IncludeReasoning: true})

	require.Len(t, e.Reasoning, m.Provenance.Len(),
		"step-by-step reasoning length equals the provenance step count")
	for i, step := range e.Reasoning {
		assert.Equal(t, m.Provenance.Steps[i].Operation, step.Operation)
		assert.Equal(t, m.Provenance.Steps[i].Reasoning, step.Reasoning, "steps are verbatim")
	}
}

func TestExplainKeyFactors(t *testing.T) {
	e := explain.Explain(scoredMatch(), explain.Options{})

	require.Len(t, e.KeyFactors, 2, "only steps with confidence >= 0.8 are key factors")
	assert.Equal(t, "complementarity_scoring", e.KeyFactors[0].Operation)
	assert.Equal(t, "feasibility_scoring", e.KeyFactors[1].Operation)
}

func TestExplainAlternativesGated(t *testing.T) {
	m := scoredMatch()

	without := explain.Explain(m, explain.Options{IncludeReasoning: true})
	for _, step := range without.Reasoning {
		assert.Nil(t, step.Alternatives)
	}

	with := explain.Explain(m, explain.Options{IncludeReasoning: true, IncludeAlternatives: true})
	assert.NotEmpty(t, with.Reasoning[2].Alternatives)
}

func TestConfidenceIntervalBracketsScore(t *testing.T) {
	for _, tc := range []struct{ score, conf float64 }{
		{0.72, 0.7}, {0.0, 0.5}, {1.0, 0.0}, {0.4, 1.0}, {0.95, 0.1},
	} {
		iv := explain.ConfidenceInterval(tc.score, tc.conf)
		assert.LessOrEqual(t, iv.Lower, tc.score, "score %v conf %v", tc.score, tc.conf)
		assert.GreaterOrEqual(t, iv.Upper, tc.score, "score %v conf %v", tc.score, tc.conf)
		assert.GreaterOrEqual(t, iv.Lower, 0.0)
		assert.LessOrEqual(t, iv.Upper, 1.0)
	}
}

func TestConfidenceIntervalWidth(t *testing.T) {
	iv := explain.ConfidenceInterval(0.72, 0.7)
	// delta = 0.72 * 0.3 * 0.3 = 0.0648
	assert.InDelta(t, 0.72-0.0648, iv.Lower, 1e-9)
	assert.InDelta(t, 0.72+0.0648, iv.Upper, 1e-9)
}

func TestExplainWithoutProvenance(t *testing.T) {
	m := scoredMatch()
	m.Provenance = nil
	e := explain.Explain(m, explain.Options{IncludeReasoning: true})
	assert.Empty(t, e.Reasoning)
	assert.Empty(t, e.KeyFactors)
	assert.NotEmpty(t, e.Summary)
}

func TestProtocolMatch(t *testing.T) {
	steps, err := explain.Protocol(explain.KindMatch)
	require.NoError(t, err)
	require.Len(t, steps, 5)

	assert.Equal(t, "verify capability alignment", steps[0].Action)
	assert.Equal(t, "apply human judgment", steps[4].Action)
	for _, s := range steps {
		assert.NotEmpty(t, s.How)
		assert.NotEmpty(t, s.WhatToLookFor)
		assert.NotEmpty(t, s.RedFlags)
	}
}

func TestProtocolTeam(t *testing.T) {
	steps, err := explain.Protocol(explain.KindTeam)
	require.NoError(t, err)
	require.Len(t, steps, 4)
}

func TestProtocolUnknownKind(t *testing.T) {
	_, err := explain.Protocol("committee")
	require.Error(t, err)
}

func TestProtocolIsStatic(t *testing.T) {
	a, _ := explain.Protocol(explain.KindMatch)
	b, _ := explain.Protocol(explain.KindMatch)
	assert.Equal(t, a, b, "the procedure depends only on kind, never on match contents")
}

func TestMarkdownRendering(t *testing.T) {
	e := explain.Explain(scoredMatch(), explain.Options{IncludeReasoning: true, IncludeVerification: true})
	md := e.Markdown()

	assert.Contains(t, md, "## Match explanation")
	assert.Contains(t, md, "### Scores")
	assert.Contains(t, md, "### Reasoning")
	assert.Contains(t, md, "### How to verify")
	assert.Contains(t, md, "shared tags: ros2")
}
