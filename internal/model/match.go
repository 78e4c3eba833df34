package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MatchStatus is the lifecycle state of a proposed match.
type MatchStatus string

const (
	MatchProposed  MatchStatus = "proposed"
	MatchAccepted  MatchStatus = "accepted"
	MatchRejected  MatchStatus = "rejected"
	MatchCompleted MatchStatus = "completed"
)

// CanTransition reports whether the lifecycle transition is legal:
// proposed → {accepted, rejected}; accepted → completed.
// rejected and completed are terminal.
func (s MatchStatus) CanTransition(to MatchStatus) bool {
	switch s {
	case MatchProposed:
		return to == MatchAccepted || to == MatchRejected
	case MatchAccepted:
		return to == MatchCompleted
	}
	return false
}

// ParseMatchStatus validates a lowercase match status string.
func ParseMatchStatus(s string) (MatchStatus, error) {
	st := MatchStatus(s)
	switch st {
	case MatchProposed, MatchAccepted, MatchRejected, MatchCompleted:
		return st, nil
	}
	return "", fmt.Errorf("model: unknown match status %q", s)
}

// Match is a scored pairing of one need with one capability from a different
// profile. Created transiently per retrieval call; NeedUserID never equals
// CapabilityUserID. Each match owns its provenance graph exclusively.
type Match struct {
	ID                   uuid.UUID        `json:"match_id"`
	Need                 Need             `json:"need"`
	NeedUserID           string           `json:"need_user_id"`
	Capability           Capability       `json:"capability"`
	CapabilityUserID     string           `json:"capability_user_id"`
	MatchScore           float64          `json:"match_score"`
	ComplementarityScore float64          `json:"complementarity_score"`
	FeasibilityScore     float64          `json:"feasibility_score"`
	Confidence           float64          `json:"confidence"`
	Evidence             []string         `json:"evidence,omitempty"`
	UncertaintyFactors   []string         `json:"uncertainty_factors,omitempty"`
	VerificationMethods  []string         `json:"verification_methods,omitempty"`
	Provenance           *ProvenanceGraph `json:"provenance,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}

// Clone deep-copies the match, including its provenance graph. The clone's
// provenance is an independent write-once trail.
func (m Match) Clone() Match {
	out := m
	out.Evidence = copyStrings(m.Evidence)
	out.UncertaintyFactors = copyStrings(m.UncertaintyFactors)
	out.VerificationMethods = copyStrings(m.VerificationMethods)
	out.Provenance = m.Provenance.Clone()
	return out
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
