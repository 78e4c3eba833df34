package match

import (
	"fmt"
	"sort"

	"github.com/substratehq/substrate/internal/model"
)

// Rank filters out matches below minScore before sorting, so low-quality
// candidates never occupy a rank slot, then sorts descending by match score
// with ties keeping their incoming order, and truncates to maxResults.
// One provenance step summarizing the score range is appended to g.
func Rank(matches []model.Match, minScore float64, maxResults int, g *model.ProvenanceGraph) []model.Match {
	kept := make([]model.Match, 0, len(matches))
	for _, m := range matches {
		if m.MatchScore >= minScore {
			kept = append(kept, m)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].MatchScore > kept[j].MatchScore
	})

	if len(kept) > maxResults {
		kept = kept[:maxResults]
	}

	var low, high float64
	if len(kept) > 0 {
		high = kept[0].MatchScore
		low = kept[len(kept)-1].MatchScore
	}

	g.Append(model.ProvenanceStep{
		Operation: "ranking",
		Inputs: map[string]any{
			"scored_count":    len(matches),
			"min_match_score": minScore,
			"max_results":     maxResults,
		},
		Outputs: map[string]any{
			"returned_count": len(kept),
			"score_high":     high,
			"score_low":      low,
		},
		Reasoning: fmt.Sprintf("Kept %d of %d matches at or above %.2f, sorted descending (scores %.3f..%.3f)",
			len(kept), len(matches), minScore, high, low),
		Confidence: 0.95,
	})
	return kept
}
