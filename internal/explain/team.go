package explain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/substratehq/substrate/internal/model"
)

// PredictedOutcome is a team's success estimate with its interpretation.
type PredictedOutcome struct {
	Probability    float64  `json:"success_probability"`
	Interval       Interval `json:"confidence_interval"`
	Interpretation string   `json:"interpretation"`
}

// TeamComposition summarizes why this particular member set was measured
// the way it was.
type TeamComposition struct {
	Roles                map[string]string `json:"roles,omitempty"`
	ComplementarityScore float64           `json:"complementarity_score"`
	DiversityScore       float64           `json:"diversity_score"`
	WhyThisMatters       string            `json:"why_this_matters"`
}

// RiskAssessment pairs each identified risk with a mitigation and lists what
// to watch while the collaboration runs.
type RiskAssessment struct {
	Risks       []string          `json:"identified_risks,omitempty"`
	Mitigations map[string]string `json:"mitigation_strategies,omitempty"`
	Monitoring  []string          `json:"what_to_monitor"`
}

// TeamResources carries the timeline and cost estimates with the factors
// that could move them.
type TeamResources struct {
	TimelineEstimate    string         `json:"timeline_estimate,omitempty"`
	TimelineSensitivity []string       `json:"timeline_sensitivity"`
	CostEstimate        float64        `json:"cost_estimate,omitempty"`
	CostBreakdown       map[string]any `json:"cost_breakdown,omitempty"`
}

// TeamExplanation is the structured, human-facing rendering of one team
// composition.
type TeamExplanation struct {
	TeamID      uuid.UUID        `json:"team_id"`
	Summary     string           `json:"summary"`
	Outcome     PredictedOutcome `json:"predicted_outcome"`
	Composition TeamComposition  `json:"team_composition"`
	Reasoning   []ReasoningStep  `json:"reasoning,omitempty"`
	Selection   string           `json:"why_these_people"`
	Synergies   []string         `json:"synergies_identified,omitempty"`
	Risks       RiskAssessment   `json:"risk_assessment"`
	Resources   TeamResources    `json:"resources"`
}

// ExplainTeam renders a team composition into a structured explanation.
// Reasoning steps are taken verbatim from the team's provenance graph.
func ExplainTeam(t model.Team, opts Options) TeamExplanation {
	e := TeamExplanation{
		TeamID:  t.ID,
		Summary: fmt.Sprintf("Team of %d members for: %s", len(t.Members), t.ProblemDescription),
		Outcome: PredictedOutcome{
			Probability:    t.PredictedSuccess,
			Interval:       ConfidenceInterval(t.PredictedSuccess, t.FeasibilityScore),
			Interpretation: interpretProbability(t.PredictedSuccess),
		},
		Composition: TeamComposition{
			Roles:                t.Roles,
			ComplementarityScore: t.ComplementarityScore,
			DiversityScore:       t.DiversityScore,
			WhyThisMatters:       "Diverse teams with complementary skills have higher success rates",
		},
		Selection: fmt.Sprintf(
			"This team was selected for complementary skills, coordination feasibility, and predicted synergies. Complementarity score: %.2f",
			t.ComplementarityScore),
		Synergies: identifySynergies(t),
		Risks: RiskAssessment{
			Risks:       t.RiskFactors,
			Mitigations: suggestMitigations(t.RiskFactors),
			Monitoring: []string{
				"progress against milestones",
				"communication frequency and quality",
				"resource usage against estimates",
				"emerging risks or blockers",
			},
		},
		Resources: TeamResources{
			TimelineEstimate: t.EstimatedTimeline,
			TimelineSensitivity: []string{
				"scope changes or additions",
				"member availability changes",
				"external dependencies",
			},
			CostEstimate:  t.EstimatedCost,
			CostBreakdown: t.RequiredResources,
		},
	}

	if opts.IncludeReasoning && t.Provenance != nil {
		for _, step := range t.Provenance.Steps {
			rs := ReasoningStep{
				Operation:  step.Operation,
				Reasoning:  step.Reasoning,
				Confidence: step.Confidence,
			}
			if opts.IncludeAlternatives {
				rs.Alternatives = step.AlternativesConsidered
			}
			e.Reasoning = append(e.Reasoning, rs)
		}
	}
	return e
}

func interpretProbability(prob float64) string {
	switch {
	case prob >= 0.8:
		return "Highly likely to succeed"
	case prob >= 0.6:
		return "Good chance of success"
	case prob >= 0.4:
		return "Moderate chance of success"
	default:
		return "Success uncertain, plan risk mitigation"
	}
}

func identifySynergies(t model.Team) []string {
	var synergies []string
	if t.ComplementarityScore >= 0.6 {
		synergies = append(synergies, "members bring complementary capability portfolios")
	}
	if t.DiversityScore >= 0.8 {
		synergies = append(synergies, "little capability duplication, each member covers distinct ground")
	}
	for _, r := range t.RiskFactors {
		if strings.Contains(r, "timezones") {
			synergies = append(synergies, "timezone spread enables follow-the-sun progress if coordinated")
		}
	}
	return synergies
}

// suggestMitigations keys a mitigation strategy off each risk's wording.
func suggestMitigations(risks []string) map[string]string {
	if len(risks) == 0 {
		return nil
	}
	mitigations := make(map[string]string, len(risks))
	for _, risk := range risks {
		lower := strings.ToLower(risk)
		switch {
		case strings.Contains(lower, "timezone"):
			mitigations[risk] = "Schedule a recurring overlapping meeting and default to async communication"
		case strings.Contains(lower, "availability"):
			mitigations[risk] = "Confirm concrete weekly hours with each member before committing"
		case strings.Contains(lower, "capabilities"):
			mitigations[risk] = "Ask sparse profiles to list their full capability set before assigning critical work"
		default:
			mitigations[risk] = "Monitor closely and adapt as needed"
		}
	}
	return mitigations
}
