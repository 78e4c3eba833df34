package model_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substratehq/substrate/internal/model"
)

// ---- Enum parsing --------------------------------------------------------

func TestParseCapabilityType(t *testing.T) {
	for _, s := range []string{"skill", "resource", "knowledge", "network", "time", "funding"} {
		got, err := model.ParseCapabilityType(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(got))
	}
}

func TestParseCapabilityType_Unknown(t *testing.T) {
	_, err := model.ParseCapabilityType("wizardry")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown capability type")
}

func TestCapabilityTypeUnmarshalRejectsUnknown(t *testing.T) {
	var c model.Capability
	err := json.Unmarshal([]byte(`{"type":"sorcery","name":"x","privacy":"public"}`), &c)
	require.Error(t, err, "malformed enum must fail fast at the boundary")
}

func TestParsePrivacyLevel(t *testing.T) {
	_, err := model.ParsePrivacyLevel("network")
	assert.NoError(t, err)
	_, err = model.ParsePrivacyLevel("secret")
	assert.Error(t, err)
}

func TestParseDomain(t *testing.T) {
	_, err := model.ParseDomain("robotics")
	assert.NoError(t, err)
	_, err = model.ParseDomain("astrology")
	assert.Error(t, err)
}

func TestPrivacyShareable(t *testing.T) {
	assert.True(t, model.PrivacyPublic.Shareable())
	assert.True(t, model.PrivacyNetwork.Shareable())
	assert.False(t, model.PrivacyPrivate.Shareable())
	assert.False(t, model.PrivacyConfidential.Shareable())
}

// ---- Validation ----------------------------------------------------------

func validCapability() model.Capability {
	return model.Capability{
		ID:          uuid.New(),
		Type:        model.TypeSkill,
		Name:        "ROS2 navigation",
		Description: "Autonomous navigation stacks for mobile robots",
		Proficiency: 0.8,
		Confidence:  0.9,
		Privacy:     model.PrivacyNetwork,
		Tags:        []string{"ros2", "navigation"},
	}
}

func TestValidateCapability_HappyPath(t *testing.T) {
	assert.NoError(t, model.ValidateCapability(validCapability()))
}

func TestValidateCapability_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Capability)
		want   string
	}{
		{"empty name", func(c *model.Capability) { c.Name = "  " }, "name is required"},
		{"name too long", func(c *model.Capability) { c.Name = strings.Repeat("x", model.MaxNameLen+1) }, "name exceeds"},
		{"bad type", func(c *model.Capability) { c.Type = "sorcery" }, "unknown capability type"},
		{"bad privacy", func(c *model.Capability) { c.Privacy = "secret" }, "unknown privacy level"},
		{"proficiency out of range", func(c *model.Capability) { c.Proficiency = 1.2 }, "outside [0,1]"},
		{"confidence negative", func(c *model.Capability) { c.Confidence = -0.1 }, "outside [0,1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCapability()
			tt.mutate(&c)
			err := model.ValidateCapability(c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateNeed(t *testing.T) {
	n := model.Need{
		ID:      uuid.New(),
		Type:    model.TypeSkill,
		Name:    "Navigation software help",
		Urgency: 0.5, Importance: 0.7,
		Domain: model.DomainRobotics,
	}
	assert.NoError(t, model.ValidateNeed(n))

	n.Urgency = 2.0
	assert.Error(t, model.ValidateNeed(n))

	n.Urgency = 0.5
	n.Domain = "astrology"
	assert.Error(t, model.ValidateNeed(n))
}

func TestValidateProfile(t *testing.T) {
	p := model.Profile{UserID: "u1", Capabilities: []model.Capability{validCapability()}}
	assert.NoError(t, model.ValidateProfile(p))

	p.UserID = ""
	assert.Error(t, model.ValidateProfile(p))

	p.UserID = "u1"
	p.Capabilities[0].Type = "sorcery"
	assert.Error(t, model.ValidateProfile(p))
}

func TestNormalizeTags(t *testing.T) {
	got := model.NormalizeTags([]string{" ROS2 ", "navigation", "ros2", "", "Navigation"})
	assert.Equal(t, []string{"ros2", "navigation"}, got)
	assert.Nil(t, model.NormalizeTags(nil))
}

func TestProfileShareable(t *testing.T) {
	private := validCapability()
	private.Privacy = model.PrivacyPrivate
	p := model.Profile{UserID: "u1", Capabilities: []model.Capability{validCapability(), private}}

	shared := p.Shareable()
	assert.Len(t, shared.Capabilities, 1)
	assert.Len(t, p.Capabilities, 2, "original untouched")
}

// ---- JSON contract -------------------------------------------------------

func TestCapabilityJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(validCapability())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{"id", "type", "name", "description", "proficiency", "confidence", "privacy", "tags"} {
		assert.Contains(t, m, key)
	}
	assert.Equal(t, "skill", m["type"], "enums render as lowercase strings")
}

func TestMatchJSONFieldNames(t *testing.T) {
	g := model.NewProvenanceGraph("match_scoring")
	g.Append(model.ProvenanceStep{Operation: "similarity", Reasoning: "r", Confidence: 0.9})

	m := model.Match{
		ID:               uuid.New(),
		NeedUserID:       "a",
		CapabilityUserID: "b",
		MatchScore:       0.7,
		Provenance:       g,
	}
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	for _, key := range []string{"match_id", "need", "need_user_id", "capability", "capability_user_id",
		"match_score", "complementarity_score", "feasibility_score", "confidence", "provenance"} {
		assert.Contains(t, out, key)
	}
}

// ---- Provenance ----------------------------------------------------------

func TestProvenanceAppendCopiesMaps(t *testing.T) {
	g := model.NewProvenanceGraph("capability_match")
	inputs := map[string]any{"need_type": "skill"}
	g.Append(model.ProvenanceStep{Operation: "candidate_retrieval", Inputs: inputs, Confidence: 0.9})

	inputs["need_type"] = "mutated"
	assert.Equal(t, "skill", g.Steps[0].Inputs["need_type"], "recorded step must not alias caller maps")
}

func TestProvenanceClone(t *testing.T) {
	g := model.NewProvenanceGraph("match_scoring")
	g.Append(model.ProvenanceStep{
		Operation:  "similarity",
		Outputs:    map[string]any{"score": 0.5},
		Confidence: 0.9,
	})

	clone := g.Clone()
	require.Equal(t, g.Len(), clone.Len())

	clone.Steps[0].Outputs["score"] = 0.1
	clone.Append(model.ProvenanceStep{Operation: "extra"})

	assert.Equal(t, 0.5, g.Steps[0].Outputs["score"], "clone mutation must not leak into original")
	assert.Equal(t, 1, g.Len())
}

func TestProvenanceCloneNil(t *testing.T) {
	var g *model.ProvenanceGraph
	assert.Nil(t, g.Clone())
	assert.Equal(t, 0, g.Len())
}

func TestMatchCloneDeepCopiesProvenance(t *testing.T) {
	g := model.NewProvenanceGraph("match_scoring")
	g.Append(model.ProvenanceStep{Operation: "similarity", Confidence: 0.9})
	m := model.Match{ID: uuid.New(), Provenance: g, Evidence: []string{"e1"}}

	clone := m.Clone()
	clone.Provenance.Append(model.ProvenanceStep{Operation: "extra"})
	clone.Evidence[0] = "changed"

	assert.Equal(t, 1, m.Provenance.Len())
	assert.Equal(t, "e1", m.Evidence[0])
}

func TestValidateTeamRequest(t *testing.T) {
	roles := map[string]string{"a": "lead"}
	assert.NoError(t, model.ValidateTeamRequest("build a robot", []string{"a", "b"}, roles))

	assert.Error(t, model.ValidateTeamRequest("  ", []string{"a", "b"}, nil), "blank problem")
	assert.Error(t, model.ValidateTeamRequest("p", []string{"a"}, nil), "one member")
	assert.Error(t, model.ValidateTeamRequest("p", []string{"a", ""}, nil), "blank member")
	assert.Error(t, model.ValidateTeamRequest("p", []string{"a", "a"}, nil), "duplicate member")
	assert.Error(t, model.ValidateTeamRequest("p", []string{"a", "b"}, map[string]string{"c": "lead"}), "role for non-member")
}

func TestTeamCloneDeepCopies(t *testing.T) {
	g := model.NewProvenanceGraph("team_composition")
	g.Append(model.ProvenanceStep{Operation: "team_diversity", Confidence: 0.85})
	team := model.Team{
		ID:          uuid.New(),
		Members:     []string{"a", "b"},
		Roles:       map[string]string{"a": "lead"},
		RiskFactors: []string{"r1"},
		Provenance:  g,
	}

	clone := team.Clone()
	clone.Members[0] = "changed"
	clone.Roles["a"] = "changed"
	clone.RiskFactors[0] = "changed"
	clone.Provenance.Append(model.ProvenanceStep{Operation: "extra"})

	assert.Equal(t, "a", team.Members[0])
	assert.Equal(t, "lead", team.Roles["a"])
	assert.Equal(t, "r1", team.RiskFactors[0])
	assert.Equal(t, 1, team.Provenance.Len())
}

// ---- Lifecycle -----------------------------------------------------------

func TestMatchStatusTransitions(t *testing.T) {
	assert.True(t, model.MatchProposed.CanTransition(model.MatchAccepted))
	assert.True(t, model.MatchProposed.CanTransition(model.MatchRejected))
	assert.True(t, model.MatchAccepted.CanTransition(model.MatchCompleted))

	assert.False(t, model.MatchProposed.CanTransition(model.MatchCompleted))
	assert.False(t, model.MatchRejected.CanTransition(model.MatchAccepted), "rejected is terminal")
	assert.False(t, model.MatchCompleted.CanTransition(model.MatchAccepted), "completed is terminal")
}
