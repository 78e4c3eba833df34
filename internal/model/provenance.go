package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProvenanceStep is a single reasoning step in a decision trail. Immutable
// once appended to a graph.
type ProvenanceStep struct {
	Operation              string           `json:"operation"`
	Inputs                 map[string]any   `json:"inputs,omitempty"`
	Outputs                map[string]any   `json:"outputs,omitempty"`
	Reasoning              string           `json:"reasoning"`
	Confidence             float64          `json:"confidence"`
	AlternativesConsidered []map[string]any `json:"alternatives_considered,omitempty"`
}

// ProvenanceGraph is the ordered, append-only record of the reasoning steps
// that produced one decision. Steps are never reordered or mutated after the
// owning decision completes; a graph belongs to exactly one decision.
type ProvenanceGraph struct {
	ID           uuid.UUID        `json:"id"`
	DecisionType string           `json:"decision_type"`
	Steps        []ProvenanceStep `json:"steps"`
	CreatedAt    time.Time        `json:"created_at"`
}

// NewProvenanceGraph starts a provenance trail for one decision.
func NewProvenanceGraph(decisionType string) *ProvenanceGraph {
	return &ProvenanceGraph{
		ID:           uuid.New(),
		DecisionType: decisionType,
		CreatedAt:    time.Now().UTC(),
	}
}

// Append adds a reasoning step. Inputs, outputs, and alternatives are copied
// so later mutation of the caller's maps cannot alter the recorded step.
func (g *ProvenanceGraph) Append(step ProvenanceStep) {
	step.Inputs = copyMap(step.Inputs)
	step.Outputs = copyMap(step.Outputs)
	if len(step.AlternativesConsidered) > 0 {
		alts := make([]map[string]any, len(step.AlternativesConsidered))
		for i, a := range step.AlternativesConsidered {
			alts[i] = copyMap(a)
		}
		step.AlternativesConsidered = alts
	}
	g.Steps = append(g.Steps, step)
}

// Len returns the number of recorded steps.
func (g *ProvenanceGraph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Steps)
}

// Clone deep-copies the graph. Cloning a Match must deep-copy its provenance
// to preserve write-once semantics, so every map and slice is duplicated.
func (g *ProvenanceGraph) Clone() *ProvenanceGraph {
	if g == nil {
		return nil
	}
	out := &ProvenanceGraph{
		ID:           g.ID,
		DecisionType: g.DecisionType,
		CreatedAt:    g.CreatedAt,
	}
	if g.Steps != nil {
		out.Steps = make([]ProvenanceStep, len(g.Steps))
		for i, s := range g.Steps {
			cs := s
			cs.Inputs = copyMap(s.Inputs)
			cs.Outputs = copyMap(s.Outputs)
			if len(s.AlternativesConsidered) > 0 {
				alts := make([]map[string]any, len(s.AlternativesConsidered))
				for j, a := range s.AlternativesConsidered {
					alts[j] = copyMap(a)
				}
				cs.AlternativesConsidered = alts
			}
			out.Steps[i] = cs
		}
	}
	return out
}

// Summary renders a human-readable digest of the reasoning trail.
func (g *ProvenanceGraph) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Decision: %s\n", g.DecisionType)
	fmt.Fprintf(&b, "Steps taken: %d\n", len(g.Steps))
	for i, s := range g.Steps {
		fmt.Fprintf(&b, "%d. %s (confidence %.2f): %s\n", i+1, s.Operation, s.Confidence, s.Reasoning)
	}
	return b.String()
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
