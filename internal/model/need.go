package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
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

// ParseDomain validates a lowercase domain string.
func ParseDomain(s string) (Domain, error) {
	d := Domain(s)
	switch d {
	case DomainRobotics, DomainResearch, DomainSoftware, DomainHardware,
		DomainBiology, DomainClimate, DomainHealth, DomainEducation,
		DomainManufacturing, DomainOther:
		return d, nil
	}
	return "", fmt.Errorf("model: unknown domain %q", s)
}

// UnmarshalJSON enforces enum validity at the deserialization boundary.
func (d *Domain) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDomain(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Recognized constraint keys. Anything else in the constraints map is
// pass-through and never interpreted by the engine.
const (
	ConstraintBudget   = "budget"
	ConstraintDeadline = "deadline"
	ConstraintLocation = "location"
)

// Need is a structured statement of what a profile is seeking, typed with the
// same vocabulary as Capability. Immutable once scored.
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

// ValidateNeed checks a need at the ingestion boundary.
func ValidateNeed(n Need) error {
	if _, err := ParseCapabilityType(string(n.Type)); err != nil {
		return err
	}
	if _, err := ParseDomain(string(n.Domain)); err != nil {
		return err
	}
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("model: need name is required")
	}
	if len(n.Name) > MaxNameLen {
		return fmt.Errorf("model: need name exceeds %d characters", MaxNameLen)
	}
	if len(n.Description) > MaxDescriptionLen {
		return fmt.Errorf("model: need description exceeds %d characters", MaxDescriptionLen)
	}
	if n.Urgency < 0 || n.Urgency > 1 {
		return fmt.Errorf("model: need urgency %v outside [0,1]", n.Urgency)
	}
	if n.Importance < 0 || n.Importance > 1 {
		return fmt.Errorf("model: need importance %v outside [0,1]", n.Importance)
	}
	if len(n.Tags) > MaxTags {
		return fmt.Errorf("model: need has %d tags, max %d", len(n.Tags), MaxTags)
	}
	return nil
}

// EmbeddingText renders the need as the canonical text fed to the embedding
// provider. Context is truncated so one oversized field cannot dominate.
func (n Need) EmbeddingText() string {
	parts := []string{
		"Need: " + n.Name,
		"Description: " + n.Description,
		"Type: " + string(n.Type),
		"Domain: " + string(n.Domain),
	}
	if len(n.Tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(n.Tags, ", "))
	}
	if n.Context != "" {
		ctx := n.Context
		if len(ctx) > 200 {
			ctx = ctx[:200]
		}
		parts = append(parts, "Context: "+ctx)
	}
	return strings.Join(parts, " | ")
}
