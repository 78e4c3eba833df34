// Package model defines the domain entities for capability matching:
// capabilities, needs, profiles, matches, provenance graphs, and outcomes.
//
// All entities serialize to plain string-keyed JSON with enums rendered as
// lowercase strings — this is the contract any transport layer must honor.
// Enum parsing rejects unknown variants at ingestion; nothing downstream of
// validation ever sees a malformed enum.
package model

import (
	"encoding/json"
	"fmt"
	"strings"

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

// ParseCapabilityType validates a lowercase capability type string.
func ParseCapabilityType(s string) (CapabilityType, error) {
	t := CapabilityType(s)
	switch t {
	case TypeSkill, TypeResource, TypeKnowledge, TypeNetwork, TypeTime, TypeFunding:
		return t, nil
	}
	return "", fmt.Errorf("model: unknown capability type %q", s)
}

// UnmarshalJSON enforces enum validity at the deserialization boundary.
func (t *CapabilityType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCapabilityType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// PrivacyLevel controls how widely a capability may be shared.
type PrivacyLevel string

const (
	PrivacyPublic       PrivacyLevel = "public"
	PrivacyNetwork      PrivacyLevel = "network"
	PrivacyPrivate      PrivacyLevel = "private"
	PrivacyConfidential PrivacyLevel = "confidential"
)

// ParsePrivacyLevel validates a lowercase privacy level string.
func ParsePrivacyLevel(s string) (PrivacyLevel, error) {
	p := PrivacyLevel(s)
	switch p {
	case PrivacyPublic, PrivacyNetwork, PrivacyPrivate, PrivacyConfidential:
		return p, nil
	}
	return "", fmt.Errorf("model: unknown privacy level %q", s)
}

// UnmarshalJSON enforces enum validity at the deserialization boundary.
func (p *PrivacyLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePrivacyLevel(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Shareable reports whether a capability at this privacy level may enter the
// matching index. Private and confidential capabilities never leave the
// owner's profile.
func (p PrivacyLevel) Shareable() bool {
	return p == PrivacyPublic || p == PrivacyNetwork
}

// Field length limits enforced at ingestion.
const (
	MaxNameLen        = 200
	MaxDescriptionLen = 4000
	MaxTags           = 50
)

// Capability is an asset that a profile offers: a skill, resource, knowledge
// area, network connection, time, or funding. The ID is assigned at creation
// and never reused or mutated; a capability is owned by exactly one profile.
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

// ValidateCapability checks a capability at the ingestion boundary.
// Malformed enums and out-of-range scores are hard errors — never silently
// defaulted.
func ValidateCapability(c Capability) error {
	if _, err := ParseCapabilityType(string(c.Type)); err != nil {
		return err
	}
	if _, err := ParsePrivacyLevel(string(c.Privacy)); err != nil {
		return err
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("model: capability name is required")
	}
	if len(c.Name) > MaxNameLen {
		return fmt.Errorf("model: capability name exceeds %d characters", MaxNameLen)
	}
	if len(c.Description) > MaxDescriptionLen {
		return fmt.Errorf("model: capability description exceeds %d characters", MaxDescriptionLen)
	}
	if c.Proficiency < 0 || c.Proficiency > 1 {
		return fmt.Errorf("model: capability proficiency %v outside [0,1]", c.Proficiency)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("model: capability confidence %v outside [0,1]", c.Confidence)
	}
	if len(c.Tags) > MaxTags {
		return fmt.Errorf("model: capability has %d tags, max %d", len(c.Tags), MaxTags)
	}
	return nil
}

// NormalizeTags lowercases, trims, and deduplicates a tag list, preserving
// first-seen order. The JSON contract renders tags as a list; set semantics
// are applied here once so scoring can treat the slice as a set.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// EmbeddingText renders the capability as the canonical text fed to the
// embedding provider.
func (c Capability) EmbeddingText() string {
	parts := []string{
		"Capability: " + c.Name,
		"Description: " + c.Description,
		"Type: " + string(c.Type),
	}
	if len(c.Tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(c.Tags, ", "))
	}
	return strings.Join(parts, " | ")
}
