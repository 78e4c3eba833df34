package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Team is a proposed multi-member composition for a stated problem. Members
// are referenced by user ID only; each team owns its provenance graph
// exclusively.
type Team struct {
	ID                 uuid.UUID         `json:"team_id"`
	ProblemDescription string            `json:"problem_description"`
	Members            []string          `json:"members"`
	Roles              map[string]string `json:"roles,omitempty"`

	ComplementarityScore float64 `json:"complementarity_score"`
	DiversityScore       float64 `json:"diversity_score"`
	FeasibilityScore     float64 `json:"feasibility_score"`
	PredictedSuccess     float64 `json:"predicted_success_probability"`

	RiskFactors []string         `json:"risk_factors,omitempty"`
	Provenance  *ProvenanceGraph `json:"provenance,omitempty"`

	EstimatedTimeline string         `json:"estimated_timeline,omitempty"`
	EstimatedCost     float64        `json:"estimated_cost,omitempty"`
	RequiredResources map[string]any `json:"required_resources,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ValidateTeamRequest checks a composition request at the ingestion boundary:
// a non-empty problem statement, at least two distinct members, and roles
// (when given) assigned only to members.
func ValidateTeamRequest(problem string, members []string, roles map[string]string) error {
	if strings.TrimSpace(problem) == "" {
		return fmt.Errorf("model: team problem description is required")
	}
	if len(members) < 2 {
		return fmt.Errorf("model: a team needs at least 2 members, got %d", len(members))
	}
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("model: team member user_id is required")
		}
		if _, dup := seen[m]; dup {
			return fmt.Errorf("model: duplicate team member %q", m)
		}
		seen[m] = struct{}{}
	}
	for userID := range roles {
		if _, ok := seen[userID]; !ok {
			return fmt.Errorf("model: role assigned to non-member %q", userID)
		}
	}
	return nil
}

// Clone deep-copies the team, including its provenance graph.
func (t Team) Clone() Team {
	out := t
	out.Members = copyStrings(t.Members)
	out.RiskFactors = copyStrings(t.RiskFactors)
	if t.Roles != nil {
		out.Roles = make(map[string]string, len(t.Roles))
		for k, v := range t.Roles {
			out.Roles[k] = v
		}
	}
	if t.RequiredResources != nil {
		out.RequiredResources = make(map[string]any, len(t.RequiredResources))
		for k, v := range t.RequiredResources {
			out.RequiredResources[k] = v
		}
	}
	out.Provenance = t.Provenance.Clone()
	return out
}
