package match

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/substratehq/substrate/internal/config"
	"github.com/substratehq/substrate/internal/index"
	"github.com/substratehq/substrate/internal/learn"
	"github.com/substratehq/substrate/internal/model"
)

// Scorer computes the four sub-scores for a (need, capability) pair and
// combines them into a Match. Every sub-score is recorded as a provenance
// step on the match's own graph.
type Scorer struct {
	cfg     config.Config
	learner *learn.Learner
}

// NewScorer creates a scorer using the given weights and penalties.
func NewScorer(cfg config.Config, learner *learn.Learner) *Scorer {
	return &Scorer{cfg: cfg, learner: learner}
}

// Score builds a fully scored Match. needVec and capVec are optional
// embeddings; when either is absent the similarity step degrades to
// lexical overlap with reduced confidence.
func (s *Scorer) Score(need model.Need, requester model.Profile, owner model.Profile, cap model.Capability, needVec, capVec []float32) model.Match {
	g := model.NewProvenanceGraph("match_scoring")

	sim, semantic := s.similarity(need, cap, needVec, capVec, g)
	comp, overlap := s.complementarity(requester, owner, g)
	feas, penalties := s.feasibility(need, requester, owner, g)
	boost, hasHistory := s.historicalBoost(need, cap, g)

	score := s.cfg.WeightSimilarity*sim +
		s.cfg.WeightComplementarity*comp +
		s.cfg.WeightProficiency*cap.Proficiency +
		s.cfg.WeightFeasibility*feas +
		s.cfg.WeightHistory*boost
	score = clamp01(score)

	evidence := deriveEvidence(need, cap, overlap, comp)
	uncertainty := deriveUncertainty(owner, cap, semantic, hasHistory, penalties)
	verification := deriveVerificationMethods(need, cap)

	confidence := s.confidence(score, requester, owner, evidence, hasHistory)

	g.Append(model.ProvenanceStep{
		Operation: "score_combination",
		Inputs: map[string]any{
			"similarity":       sim,
			"complementarity":  comp,
			"proficiency":      cap.Proficiency,
			"feasibility":      feas,
			"historical_boost": boost,
			"weights": map[string]any{
				"similarity":      s.cfg.WeightSimilarity,
				"complementarity": s.cfg.WeightComplementarity,
				"proficiency":     s.cfg.WeightProficiency,
				"feasibility":     s.cfg.WeightFeasibility,
				"history":         s.cfg.WeightHistory,
			},
		},
		Outputs: map[string]any{
			"match_score": score,
			"confidence":  confidence,
		},
		Reasoning: fmt.Sprintf(
			"Combined weighted sub-scores into match score %.3f (similarity %.3f, complementarity %.3f, proficiency %.3f, feasibility %.3f, historical boost %+.3f)",
			score, sim, comp, cap.Proficiency, feas, boost),
		Confidence: confidence,
	})

	return model.Match{
		ID:                   uuid.New(),
		Need:                 need,
		NeedUserID:           requester.UserID,
		Capability:           cap,
		CapabilityUserID:     owner.UserID,
		MatchScore:           score,
		ComplementarityScore: comp,
		FeasibilityScore:     feas,
		Confidence:           confidence,
		Evidence:             evidence,
		UncertaintyFactors:   uncertainty,
		VerificationMethods:  verification,
		Provenance:           g,
		CreatedAt:            time.Now().UTC(),
	}
}

// similarity returns the similarity score and whether embeddings were used.
func (s *Scorer) similarity(need model.Need, cap model.Capability, needVec, capVec []float32, g *model.ProvenanceGraph) (float64, bool) {
	semantic := len(needVec) > 0 && len(capVec) > 0

	var score float64
	method := "lexical_jaccard"
	confidence := 0.6
	if semantic {
		score = clamp01(Cosine(needVec, capVec))
		method = "semantic_cosine"
		confidence = 0.9
	} else {
		score = Jaccard(lexicalTerms(need.Name, need.Description, need.Tags),
			lexicalTerms(cap.Name, cap.Description, cap.Tags))
	}

	reasoning := fmt.Sprintf("Compared need %q against capability %q using %s: %.3f", need.Name, cap.Name, method, score)
	if !semantic {
		reasoning += " (no embeddings available, lexical fallback)"
	}

	g.Append(model.ProvenanceStep{
		Operation: "similarity_scoring",
		Inputs: map[string]any{
			"need_name":       need.Name,
			"capability_name": cap.Name,
			"method":          method,
		},
		Outputs:    map[string]any{"score": score},
		Reasoning:  reasoning,
		Confidence: confidence,
	})
	return score, semantic
}

// complementarity scores how well the two profiles' capability sets differ
// without being disjoint, targeting an optimal overlap ratio.
func (s *Scorer) complementarity(requester, owner model.Profile, g *model.ProvenanceGraph) (score, overlap float64) {
	a := requester.CapabilityKeys()
	b := owner.CapabilityKeys()

	var reasoning string
	if len(a) == 0 || len(b) == 0 {
		score = 0.5
		reasoning = "One profile has no capabilities listed; returning neutral complementarity"
	} else {
		inter := 0
		for k := range a {
			if _, ok := b[k]; ok {
				inter++
			}
		}
		union := len(a) + len(b) - inter
		overlap = float64(inter) / float64(union)
		score = clamp01(1 - 2*math.Abs(overlap-s.cfg.OptimalOverlap))
		reasoning = fmt.Sprintf("Profiles overlap on %.0f%% of capabilities (target %.0f%%): complementarity %.3f",
			overlap*100, s.cfg.OptimalOverlap*100, score)
	}

	g.Append(model.ProvenanceStep{
		Operation: "complementarity_scoring",
		Inputs: map[string]any{
			"requester_capabilities": len(a),
			"owner_capabilities":     len(b),
			"optimal_overlap":        s.cfg.OptimalOverlap,
		},
		Outputs:    map[string]any{"overlap_ratio": overlap, "score": score},
		Reasoning:  reasoning,
		Confidence: 0.85,
	})
	return score, overlap
}

// feasibility starts at 1.0 and composes independent multiplicative
// penalties for practical collaboration risks.
func (s *Scorer) feasibility(need model.Need, requester, owner model.Profile, g *model.ProvenanceGraph) (float64, []string) {
	score := 1.0
	var penalties []string

	if requester.Timezone != "" && owner.Timezone != "" && requester.Timezone != owner.Timezone {
		score *= s.cfg.TimezonePenalty
		penalties = append(penalties, "timezone_mismatch")
	}
	// Availability data on both sides means there is an overlap claim to
	// verify; absent data carries no penalty.
	if len(requester.Availability) > 0 && len(owner.Availability) > 0 {
		score *= s.cfg.AvailabilityPenalty
		penalties = append(penalties, "availability_unverified")
	}
	if _, ok := need.Constraints[model.ConstraintBudget]; ok {
		score *= s.cfg.BudgetPenalty
		penalties = append(penalties, "budget_unverified")
	}
	if need.Urgency > s.cfg.UrgencyThreshold {
		score *= s.cfg.UrgencyPenalty
		penalties = append(penalties, "high_urgency")
	}
	score = clamp01(score)

	reasoning := "No feasibility penalties applied"
	if len(penalties) > 0 {
		reasoning = fmt.Sprintf("Applied penalties [%s]: feasibility %.3f", strings.Join(penalties, ", "), score)
	}

	g.Append(model.ProvenanceStep{
		Operation: "feasibility_scoring",
		Inputs: map[string]any{
			"urgency":           need.Urgency,
			"urgency_threshold": s.cfg.UrgencyThreshold,
			"constraints":       constraintKeys(need.Constraints),
			"requester_tz":      requester.Timezone,
			"owner_tz":          owner.Timezone,
		},
		Outputs:    map[string]any{"score": score, "penalties": penalties},
		Reasoning:  reasoning,
		Confidence: 0.8,
	})
	return score, penalties
}

// historicalBoost looks up the learned success pattern for the type pair.
func (s *Scorer) historicalBoost(need model.Need, cap model.Capability, g *model.ProvenanceGraph) (float64, bool) {
	boost := s.learner.Boost(need.Type, cap.Type)
	pattern, hasHistory := s.learner.PatternFor(need.Type, cap.Type)

	reasoning := fmt.Sprintf("No recorded outcomes for %s:%s pairings; boost is zero", need.Type, cap.Type)
	confidence := 0.5
	if hasHistory {
		reasoning = fmt.Sprintf("Learned pattern for %s:%s pairings (value %.3f over %d outcomes): boost %+.3f",
			need.Type, cap.Type, pattern.Value, pattern.Outcomes, boost)
		confidence = 0.7
	}

	g.Append(model.ProvenanceStep{
		Operation: "historical_scoring",
		Inputs: map[string]any{
			"need_type":       string(need.Type),
			"capability_type": string(cap.Type),
		},
		Outputs: map[string]any{
			"boost":       boost,
			"outcomes":    pattern.Outcomes,
			"has_history": hasHistory,
		},
		Reasoning:  reasoning,
		Confidence: confidence,
	})
	return boost, hasHistory
}

// confidence is the mean of four indicators: the score itself, evidence
// quality (0.9/0.5), profile completeness (0.8 when both profiles list at
// least 3 capabilities, else 0.5), and history availability (0.8/0.5).
func (s *Scorer) confidence(score float64, requester, owner model.Profile, evidence []string, hasHistory bool) float64 {
	evidenceQuality := 0.5
	if len(evidence) > 0 {
		evidenceQuality = 0.9
	}
	profileCompleteness := 0.5
	if len(requester.Capabilities) >= 3 && len(owner.Capabilities) >= 3 {
		profileCompleteness = 0.8
	}
	historyAvailability := 0.5
	if hasHistory {
		historyAvailability = 0.8
	}
	return clamp01((score + evidenceQuality + profileCompleteness + historyAvailability) / 4)
}

func deriveEvidence(need model.Need, cap model.Capability, overlap, comp float64) []string {
	var evidence []string
	if shared := sharedTags(need.Tags, cap.Tags); len(shared) > 0 {
		evidence = append(evidence, fmt.Sprintf("shared tags: %s", strings.Join(shared, ", ")))
	}
	if cap.Proficiency >= 0.7 {
		evidence = append(evidence, fmt.Sprintf("high proficiency (%.2f)", cap.Proficiency))
	}
	if n := len(cap.Evidence); n > 0 {
		evidence = append(evidence, fmt.Sprintf("%d supporting evidence item(s) on record", n))
	}
	if comp >= 0.8 {
		evidence = append(evidence, fmt.Sprintf("complementary capability portfolios (overlap %.0f%%)", overlap*100))
	}
	return evidence
}

func deriveUncertainty(owner model.Profile, cap model.Capability, semantic, hasHistory bool, penalties []string) []string {
	var factors []string
	if !semantic {
		factors = append(factors, "embedding provider unavailable; similarity computed lexically")
	}
	if owner.Timezone == "" {
		factors = append(factors, "owner timezone unknown")
	}
	if len(owner.Capabilities) < 3 {
		factors = append(factors, "owner profile lists fewer than 3 capabilities")
	}
	if !hasHistory {
		factors = append(factors, "no historical outcomes for this type pairing")
	}
	if cap.Confidence < 0.5 {
		factors = append(factors, fmt.Sprintf("owner's own confidence in this capability is low (%.2f)", cap.Confidence))
	}
	for _, p := range penalties {
		switch p {
		case "availability_unverified":
			factors = append(factors, "availability overlap not verified")
		case "budget_unverified":
			factors = append(factors, "budget constraint present but not verified")
		}
	}
	return factors
}

func deriveVerificationMethods(need model.Need, cap model.Capability) []string {
	methods := []string{"direct conversation to confirm scope and expectations"}
	if len(cap.Evidence) > 0 {
		methods = append(methods, "review listed evidence items")
	} else {
		methods = append(methods, "request work samples or references")
	}
	if need.Urgency > 0.8 {
		methods = append(methods, "confirm turnaround time before committing")
	}
	return methods
}

func sharedTags(a, b []string) []string {
	na := model.NormalizeTags(a)
	nb := model.NormalizeTags(b)
	set := make(map[string]struct{}, len(na))
	for _, t := range na {
		set[t] = struct{}{}
	}
	var shared []string
	for _, t := range nb {
		if _, ok := set[t]; ok {
			shared = append(shared, t)
		}
	}
	sort.Strings(shared)
	return shared
}

func constraintKeys(constraints map[string]any) []string {
	keys := make([]string, 0, len(constraints))
	for k := range constraints {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// lexicalTerms is the term set compared by lexical similarity: name tokens,
// description tokens, and normalized tags.
func lexicalTerms(name, description string, tags []string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, tok := range index.Tokenize(name + " " + description) {
		terms[tok] = struct{}{}
	}
	for _, tag := range model.NormalizeTags(tags) {
		terms[tag] = struct{}{}
	}
	return terms
}

// Jaccard returns |a∩b| / |a∪b|, or 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Cosine returns the cosine similarity of two vectors, or 0 when either
// has zero norm or the dimensions differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
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
