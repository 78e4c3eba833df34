package explain

import "fmt"

// Protocol kinds.
const (
	KindMatch = "match"
	KindTeam  = "team"
)

// ProtocolStep is one action in a human verification procedure.
type ProtocolStep struct {
	Action        string   `json:"action"`
	How           string   `json:"how"`
	WhatToLookFor string   `json:"what_to_look_for"`
	RedFlags      []string `json:"red_flags"`
}

// Protocol returns the ordered verification procedure for a decision kind.
// The procedure is a fixed sequence parameterized only by kind; it never
// depends on the contents of a particular match.
func Protocol(kind string) ([]ProtocolStep, error) {
	switch kind {
	case KindMatch:
		return matchProtocol(), nil
	case KindTeam:
		return teamProtocol(), nil
	default:
		return nil, fmt.Errorf("explain: unknown protocol kind %q", kind)
	}
}

func matchProtocol() []ProtocolStep {
	return []ProtocolStep{
		{
			Action:        "verify capability alignment",
			How:           "Compare the need description against the capability description and tags",
			WhatToLookFor: "Concrete overlap in terminology, tools, and problem domain",
			RedFlags:      []string{"vague or generic capability description", "tags unrelated to the stated need"},
		},
		{
			Action:        "check supporting evidence",
			How:           "Review each listed evidence item (repositories, publications, references)",
			WhatToLookFor: "Evidence that is recent, attributable, and specific to the claimed capability",
			RedFlags:      []string{"no evidence listed", "evidence that cannot be independently confirmed"},
		},
		{
			Action:        "assess complementarity",
			How:           "Compare both parties' capability portfolios for useful differences",
			WhatToLookFor: "Some shared vocabulary with clearly distinct strengths",
			RedFlags:      []string{"near-identical skill sets", "no common ground at all"},
		},
		{
			Action:        "confirm feasibility",
			How:           "Discuss timezone, availability, budget, and timeline expectations directly",
			WhatToLookFor: "Workable overlap in working hours and realistic commitments",
			RedFlags:      []string{"unresolved budget constraints", "urgent need against limited availability"},
		},
		{
			Action:        "apply human judgment",
			How:           "Hold a direct conversation before committing to the collaboration",
			WhatToLookFor: "Clear communication and aligned expectations about scope",
			RedFlags:      []string{"reluctance to discuss specifics", "expectations that contradict the scored factors"},
		},
	}
}

func teamProtocol() []ProtocolStep {
	return []ProtocolStep{
		{
			Action:        "verify capability coverage",
			How:           "Map every requirement of the effort to at least one member's capability",
			WhatToLookFor: "Each critical requirement covered by someone with proficiency evidence",
			RedFlags:      []string{"requirements with no owner", "coverage resting on a single member"},
		},
		{
			Action:        "check for excess redundancy",
			How:           "Compare members' capability portfolios pairwise",
			WhatToLookFor: "Distinct strengths with limited duplication",
			RedFlags:      []string{"multiple members offering the same narrow skill", "no complementary breadth"},
		},
		{
			Action:        "confirm coordination feasibility",
			How:           "Check timezone spread, availability, and communication preferences across members",
			WhatToLookFor: "A workable shared window for synchronous coordination",
			RedFlags:      []string{"no overlapping working hours", "members with conflicting commitments"},
		},
		{
			Action:        "run a trial collaboration",
			How:           "Start with a small, bounded task involving the whole team",
			WhatToLookFor: "Smooth handoffs and delivery matching each member's claimed proficiency",
			RedFlags:      []string{"missed handoffs on a small task", "output quality below claimed proficiency"},
		},
	}
}
