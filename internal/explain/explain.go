// Package explain turns scored matches and their provenance into structured,
// human-facing explanations and step-by-step verification protocols.
package explain

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/substratehq/substrate/internal/model"
)

// Band is the qualitative interpretation of a score.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandModerate  Band = "moderate"
	BandWeak      Band = "weak"
)

// BandFor maps a score in [0,1] to its interpretation band.
func BandFor(score float64) Band {
	switch {
	case score >= 0.8:
		return BandExcellent
	case score >= 0.6:
		return BandGood
	case score >= 0.4:
		return BandModerate
	default:
		return BandWeak
	}
}

// keyFactorThreshold selects provenance steps confident enough to present
// as the decision's key factors.
const keyFactorThreshold = 0.8

// Options selects which optional sections an explanation includes.
type Options struct {
	IncludeReasoning    bool
	IncludeAlternatives bool
	IncludeVerification bool
}

// Interval is a closed score interval. It always brackets the point score
// it was derived from.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ScoreInterpretation is one sub-score with its qualitative band.
type ScoreInterpretation struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Band  Band    `json:"band"`
}

// ReasoningStep is one provenance step rendered for a reader.
type ReasoningStep struct {
	Operation    string           `json:"operation"`
	Reasoning    string           `json:"reasoning"`
	Confidence   float64          `json:"confidence"`
	Alternatives []map[string]any `json:"alternatives_considered,omitempty"`
}

// ConfidenceReport is the point confidence plus the score interval it
// implies.
type ConfidenceReport struct {
	Value    float64  `json:"value"`
	Interval Interval `json:"interval"`
}

// Explanation is the structured, human-facing rendering of one match.
type Explanation struct {
	MatchID            uuid.UUID             `json:"match_id"`
	Summary            string                `json:"summary"`
	Quality            Band                  `json:"quality"`
	ScoreBreakdown     []ScoreInterpretation `json:"score_breakdown"`
	Reasoning          []ReasoningStep       `json:"reasoning,omitempty"`
	KeyFactors         []ReasoningStep       `json:"key_factors"`
	Confidence         ConfidenceReport      `json:"confidence"`
	Evidence           []string              `json:"evidence,omitempty"`
	UncertaintyFactors []string              `json:"uncertainty_factors,omitempty"`
	Verification       []ProtocolStep        `json:"verification,omitempty"`
}

// Explain renders a match into a structured explanation. Reasoning steps are
// taken verbatim from the match's provenance graph, in order.
func Explain(m model.Match, opts Options) Explanation {
	e := Explanation{
		MatchID: m.ID,
		Quality: BandFor(m.MatchScore),
		ScoreBreakdown: []ScoreInterpretation{
			{Name: "match_score", Score: m.MatchScore, Band: BandFor(m.MatchScore)},
			{Name: "complementarity", Score: m.ComplementarityScore, Band: BandFor(m.ComplementarityScore)},
			{Name: "feasibility", Score: m.FeasibilityScore, Band: BandFor(m.FeasibilityScore)},
			{Name: "proficiency", Score: m.Capability.Proficiency, Band: BandFor(m.Capability.Proficiency)},
		},
		Confidence: ConfidenceReport{
			Value:    m.Confidence,
			Interval: ConfidenceInterval(m.MatchScore, m.Confidence),
		},
		Evidence:           m.Evidence,
		UncertaintyFactors: m.UncertaintyFactors,
	}

	e.Summary = fmt.Sprintf("Capability %q (user %s) is a %s match for need %q: score %.2f, confidence %.2f",
		m.Capability.Name, m.CapabilityUserID, e.Quality, m.Need.Name, m.MatchScore, m.Confidence)

	if m.Provenance != nil {
		for _, step := range m.Provenance.Steps {
			rs := ReasoningStep{
				Operation:  step.Operation,
				Reasoning:  step.Reasoning,
				Confidence: step.Confidence,
			}
			if opts.IncludeAlternatives {
				rs.Alternatives = step.AlternativesConsidered
			}
			if opts.IncludeReasoning {
				e.Reasoning = append(e.Reasoning, rs)
			}
			if step.Confidence >= keyFactorThreshold {
				e.KeyFactors = append(e.KeyFactors, rs)
			}
		}
	}

	if opts.IncludeVerification {
		steps, err := Protocol(KindMatch)
		if err == nil {
			e.Verification = steps
		}
	}

	return e
}

// ConfidenceInterval widens the point score proportionally to the decision's
// uncertainty: score ± score·(1−confidence)·0.3, clamped to [0,1]. The
// interval always brackets the score.
func ConfidenceInterval(score, confidence float64) Interval {
	delta := score * (1 - confidence) * 0.3
	return Interval{
		Lower: clamp01(score - delta),
		Upper: clamp01(score + delta),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
