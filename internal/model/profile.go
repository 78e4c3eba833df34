package model

import (
	"fmt"
	"strings"
)

// Profile is an anonymized participant in the matching network. It owns its
// capabilities exclusively; the user ID is the only cross-profile reference.
type Profile struct {
	UserID       string         `json:"user_id"`
	Capabilities []Capability   `json:"capabilities"`
	Domains      []Domain       `json:"domains,omitempty"`
	Location     string         `json:"location,omitempty"`
	Timezone     string         `json:"timezone,omitempty"`
	Availability map[string]any `json:"availability,omitempty"`
}

// ValidateProfile checks a profile and all of its capabilities at the
// ingestion boundary.
func ValidateProfile(p Profile) error {
	if strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("model: profile user_id is required")
	}
	for i, c := range p.Capabilities {
		if err := ValidateCapability(c); err != nil {
			return fmt.Errorf("model: capability %d: %w", i, err)
		}
	}
	for _, d := range p.Domains {
		if _, err := ParseDomain(string(d)); err != nil {
			return err
		}
	}
	return nil
}

// CapabilityKeys returns the (type, name) identity pairs of the profile's
// capabilities, used for set-overlap complementarity.
func (p Profile) CapabilityKeys() map[[2]string]struct{} {
	keys := make(map[[2]string]struct{}, len(p.Capabilities))
	for _, c := range p.Capabilities {
		keys[[2]string{string(c.Type), strings.ToLower(c.Name)}] = struct{}{}
	}
	return keys
}

// Shareable returns a copy of the profile with private and confidential
// capabilities removed. Only this view ever enters the matching index.
func (p Profile) Shareable() Profile {
	out := p
	out.Capabilities = make([]Capability, 0, len(p.Capabilities))
	for _, c := range p.Capabilities {
		if c.Privacy.Shareable() {
			out.Capabilities = append(out.Capabilities, c)
		}
	}
	return out
}
