package match

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/substratehq/substrate/internal/model"
)

// ComposeTeam scores a proposed member set against a problem statement and
// tracks the resulting team for later explanation. Every member must have an
// indexed profile. The composition itself is caller-chosen; this pass
// measures it and surfaces the risks.
func (s *Service) ComposeTeam(problem string, members []string, roles map[string]string) (model.Team, error) {
	if err := model.ValidateTeamRequest(problem, members, roles); err != nil {
		return model.Team{}, fmt.Errorf("match: compose team: %w", err)
	}

	profiles := make([]model.Profile, 0, len(members))
	for _, userID := range members {
		p, ok := s.Profile(userID)
		if !ok {
			return model.Team{}, fmt.Errorf("match: compose team: unknown member %q, index the profile first", userID)
		}
		profiles = append(profiles, p)
	}

	g := model.NewProvenanceGraph("team_composition")

	comp := s.teamComplementarity(profiles, g)
	div := teamDiversity(profiles, g)
	feas, risks := s.teamFeasibility(profiles, g)
	success := clamp01((comp + div + feas) / 3)

	g.Append(model.ProvenanceStep{
		Operation: "team_combination",
		Inputs: map[string]any{
			"complementarity": comp,
			"diversity":       div,
			"feasibility":     feas,
		},
		Outputs:    map[string]any{"predicted_success": success},
		Reasoning:  fmt.Sprintf("Averaged team metrics into predicted success %.3f (complementarity %.3f, diversity %.3f, feasibility %.3f)", success, comp, div, feas),
		Confidence: 0.7,
	})

	team := model.Team{
		ID:                   uuid.New(),
		ProblemDescription:   problem,
		Members:              append([]string(nil), members...),
		Roles:                roles,
		ComplementarityScore: comp,
		DiversityScore:       div,
		FeasibilityScore:     feas,
		PredictedSuccess:     success,
		RiskFactors:          risks,
		Provenance:           g,
		CreatedAt:            time.Now().UTC(),
	}

	s.mu.Lock()
	s.teams[team.ID] = team
	s.mu.Unlock()

	s.logger.Info("match: team composed",
		"team_id", team.ID,
		"members", len(members),
		"predicted_success", success,
	)
	return team.Clone(), nil
}

// Team returns a tracked team composition.
func (s *Service) Team(teamID uuid.UUID) (model.Team, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[teamID]
	if !ok {
		return model.Team{}, false
	}
	return t.Clone(), true
}

// teamComplementarity is the mean pairwise portfolio complementarity across
// all member pairs, using the same overlap target as match scoring.
func (s *Service) teamComplementarity(profiles []model.Profile, g *model.ProvenanceGraph) float64 {
	var sum float64
	pairs := 0
	for i := 0; i < len(profiles); i++ {
		for j := i + 1; j < len(profiles); j++ {
			sum += s.pairComplementarity(profiles[i], profiles[j])
			pairs++
		}
	}
	score := 0.5
	if pairs > 0 {
		score = clamp01(sum / float64(pairs))
	}

	g.Append(model.ProvenanceStep{
		Operation: "team_complementarity",
		Inputs: map[string]any{
			"members":         len(profiles),
			"pairs":           pairs,
			"optimal_overlap": s.cfg.OptimalOverlap,
		},
		Outputs:    map[string]any{"score": score},
		Reasoning:  fmt.Sprintf("Averaged portfolio complementarity over %d member pairs: %.3f", pairs, score),
		Confidence: 0.85,
	})
	return score
}

func (s *Service) pairComplementarity(a, b model.Profile) float64 {
	ka := a.CapabilityKeys()
	kb := b.CapabilityKeys()
	if len(ka) == 0 || len(kb) == 0 {
		return 0.5
	}
	inter := 0
	for k := range ka {
		if _, ok := kb[k]; ok {
			inter++
		}
	}
	union := len(ka) + len(kb) - inter
	overlap := float64(inter) / float64(union)
	return clamp01(1 - 2*math.Abs(overlap-s.cfg.OptimalOverlap))
}

// teamDiversity is the ratio of distinct capability identities to total
// capability entries across the team: 1.0 means no member duplicates another.
func teamDiversity(profiles []model.Profile, g *model.ProvenanceGraph) float64 {
	distinct := make(map[[2]string]struct{})
	total := 0
	for _, p := range profiles {
		for k := range p.CapabilityKeys() {
			distinct[k] = struct{}{}
		}
		total += len(p.Capabilities)
	}
	score := 0.5
	if total > 0 {
		score = clamp01(float64(len(distinct)) / float64(total))
	}

	g.Append(model.ProvenanceStep{
		Operation: "team_diversity",
		Inputs: map[string]any{
			"distinct_capabilities": len(distinct),
			"total_capabilities":    total,
		},
		Outputs:    map[string]any{"score": score},
		Reasoning:  fmt.Sprintf("%d distinct capabilities across %d listed: diversity %.3f", len(distinct), total, score),
		Confidence: 0.85,
	})
	return score
}

// teamFeasibility applies the pairwise coordination penalties at the team
// level and derives the matching risk factors.
func (s *Service) teamFeasibility(profiles []model.Profile, g *model.ProvenanceGraph) (float64, []string) {
	score := 1.0
	var risks []string

	zones := make(map[string]struct{})
	withAvailability := 0
	sparse := 0
	for _, p := range profiles {
		if p.Timezone != "" {
			zones[p.Timezone] = struct{}{}
		}
		if len(p.Availability) > 0 {
			withAvailability++
		}
		if len(p.Capabilities) < 3 {
			sparse++
		}
	}

	if len(zones) > 1 {
		score *= s.cfg.TimezonePenalty
		risks = append(risks, fmt.Sprintf("members span %d timezones, coordination windows are limited", len(zones)))
	}
	// As with pairwise scoring, availability claims exist to be verified;
	// the penalty applies only when every member has stated one.
	if withAvailability == len(profiles) {
		score *= s.cfg.AvailabilityPenalty
		risks = append(risks, "stated availability overlap has not been verified across members")
	} else if missing := len(profiles) - withAvailability; missing > 0 {
		risks = append(risks, fmt.Sprintf("%d member(s) have no stated availability", missing))
	}
	if sparse > 0 {
		risks = append(risks, fmt.Sprintf("%d member(s) list fewer than 3 capabilities", sparse))
	}
	score = clamp01(score)
	sort.Strings(risks)

	g.Append(model.ProvenanceStep{
		Operation: "team_feasibility",
		Inputs: map[string]any{
			"members":           len(profiles),
			"timezones":         len(zones),
			"with_availability": withAvailability,
		},
		Outputs:    map[string]any{"score": score, "risks": risks},
		Reasoning:  fmt.Sprintf("Assessed coordination feasibility across %d members: %.3f", len(profiles), score),
		Confidence: 0.75,
	})
	return score, risks
}
