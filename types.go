package substrate

import (
	"time"

	"github.com/google/uuid"
)

// CapabilityType classifies what kind of asset a capability (or need) is.
type CapabilityType string

const (
	TypeSkill     CapabilityType = "skill"
	TypeResource  CapabilityType = "resource"
	TypeKnowledge CapabilityType = "knowledge"
	TypeNetwork   CapabilityType = "network"
	TypeTime      CapabilityType = "time"
	TypeFunding   CapabilityType = "funding"
)

// PrivacyLevel controls how widely a capability may be shared. Private and
// confidential capabilities never enter the matching index.
type PrivacyLevel string

const (
	PrivacyPublic       PrivacyLevel = "public"
	PrivacyNetwork      PrivacyLevel = "network"
	PrivacyPrivate      PrivacyLevel = "private"
	PrivacyConfidential PrivacyLevel = "confidential"
)

// Domain is the problem domain a need belongs to.
type Domain string

const (
	DomainRobotics      Domain = "robotics"
	DomainResearch      Domain = "research"
	DomainSoftware      Domain = "software"
	DomainHardware      Domain = "hardware"
	DomainBiology       Domain = "biology"
	DomainClimate       Domain = "climate"
	DomainHealth        Domain = "health"
	DomainEducation     Domain = "education"
	DomainManufacturing Domain = "manufacturing"
	DomainOther         Domain = "other"
)

// MatchStatus is the lifecycle state of a proposed match:
// proposed → {accepted, rejected}; accepted → completed.
type MatchStatus string

const (
	MatchProposed  MatchStatus = "proposed"
	MatchAccepted  MatchStatus = "accepted"
	MatchRejected  MatchStatus = "rejected"
	MatchCompleted MatchStatus = "completed"
)

// Capability is an asset a profile offers: a skill, resource, knowledge
// area, network connection, time, or funding.
// No internal package imports — safe to use from outside the module.
type Capability struct {
	ID          uuid.UUID      `json:"id"`
	Type        CapabilityType `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Proficiency float64        `json:"proficiency"`
	Confidence  float64        `json:"confidence"`
	Evidence    []string       `json:"evidence,omitempty"`
	Privacy     PrivacyLevel   `json:"privacy"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Profile is an anonymized participant in the matching network. The user ID
// is the only cross-profile reference.
type Profile struct {
	UserID       string         `json:"user_id"`
	Capabilities []Capability   `json:"capabilities"`
	Domains      []Domain       `json:"domains,omitempty"`
	Location     string         `json:"location,omitempty"`
	Timezone     string         `json:"timezone,omitempty"`
	Availability map[string]any `json:"availability,omitempty"`
}

// Need is a structured statement of what a profile is seeking, typed with
// the same vocabulary as Capability. Recognized constraint keys are
// "budget" (number), "deadline" (RFC 3339 string), and "location"; anything
// else in Constraints is pass-through.
type Need struct {
	ID          uuid.UUID      `json:"id"`
	Type        CapabilityType `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Urgency     float64        `json:"urgency"`
	Importance  float64        `json:"importance"`
	Domain      Domain         `json:"domain"`
	Context     string         `json:"context,omitempty"`
	Constraints map[string]any `json:"constraints,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
}

// Match is a scored pairing of one need with one capability from a
// different profile. It is a curated view of the internal match record.
type Match struct {
	ID                   uuid.UUID  `json:"match_id"`
	NeedID               uuid.UUID  `json:"need_id"`
	NeedUserID           string     `json:"need_user_id"`
	Capability           Capability `json:"capability"`
	CapabilityUserID     string     `json:"capability_user_id"`
	MatchScore           float64    `json:"match_score"`
	ComplementarityScore float64    `json:"complementarity_score"`
	FeasibilityScore     float64    `json:"feasibility_score"`
	Confidence           float64    `json:"confidence"`
	Evidence             []string   `json:"evidence,omitempty"`
	UncertaintyFactors   []string   `json:"uncertainty_factors,omitempty"`
	VerificationMethods  []string   `json:"verification_methods,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// MatchSet is the result of one FindMatches call. Partial is set when the
// request deadline expired before every candidate was scored; Matches then
// holds the best subset scored in time.
type MatchSet struct {
	Matches []Match `json:"matches"`
	Partial bool    `json:"partial,omitempty"`
}

// Team is a scored multi-member composition for a stated problem. Members
// are referenced by user ID only.
type Team struct {
	ID                   uuid.UUID         `json:"team_id"`
	ProblemDescription   string            `json:"problem_description"`
	Members              []string          `json:"members"`
	Roles                map[string]string `json:"roles,omitempty"`
	ComplementarityScore float64           `json:"complementarity_score"`
	DiversityScore       float64           `json:"diversity_score"`
	FeasibilityScore     float64           `json:"feasibility_score"`
	PredictedSuccess     float64           `json:"predicted_success_probability"`
	RiskFactors          []string          `json:"risk_factors,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
}

// Outcome records how a collaboration that started from a match went.
type Outcome struct {
	ID        uuid.UUID `json:"id"`
	MatchID   uuid.UUID `json:"match_id"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}

// Band is the qualitative interpretation of a score:
// excellent (≥0.8), good (≥0.6), moderate (≥0.4), weak.
type Band string

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

// Interval is a closed score interval bracketing the point score.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ConfidenceReport is the point confidence plus the score interval it implies.
type ConfidenceReport struct {
	Value    float64  `json:"value"`
	Interval Interval `json:"interval"`
}

// VerificationStep is one action in a human verification procedure.
type VerificationStep struct {
	Action        string   `json:"action"`
	How           string   `json:"how"`
	WhatToLookFor string   `json:"what_to_look_for"`
	RedFlags      []string `json:"red_flags"`
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
	Verification       []VerificationStep    `json:"verification,omitempty"`
}

// PredictedOutcome is a team's success estimate with its interpretation.
type PredictedOutcome struct {
	Probability    float64  `json:"success_probability"`
	Interval       Interval `json:"confidence_interval"`
	Interpretation string   `json:"interpretation"`
}

// TeamComposition summarizes why a member set was measured the way it was.
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

// ExplainOptions selects which optional sections an explanation includes.
type ExplainOptions struct {
	IncludeReasoning    bool
	IncludeAlternatives bool
	IncludeVerification bool
}

// Protocol kinds accepted by VerificationProtocol.
const (
	ProtocolMatch = "match"
	ProtocolTeam  = "team"
)

// VectorPoint is one embedded capability stored in a VectorIndex.
type VectorPoint struct {
	CapabilityID uuid.UUID
	UserID       string
	Type         string
	Tags         []string
	Vector       []float32
}

// VectorResult is one similarity hit from a VectorIndex.
type VectorResult struct {
	CapabilityID uuid.UUID
	UserID       string
	Score        float32
}
