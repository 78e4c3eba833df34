package match

import (
	"fmt"

	"github.com/substratehq/substrate/internal/index"
	"github.com/substratehq/substrate/internal/model"
)

// Retriever issues multi-key lookups against the capability index and
// records the retrieval as a provenance step.
type Retriever struct {
	index *index.Index
}

// NewRetriever creates a retriever over the given index.
func NewRetriever(ix *index.Index) *Retriever {
	return &Retriever{index: ix}
}

// Retrieve returns deduplicated candidate capabilities for the need,
// excluding the requester's own. Unknown keys yield no candidates, never
// an error. The step appended to g records the keys queried and the
// candidate count, including the zero-candidate case.
func (r *Retriever) Retrieve(need model.Need, requester model.Profile, g *model.ProvenanceGraph) []index.Entry {
	keys := index.NeedKeys(need)
	entries := r.index.Candidates(need, requester.UserID)

	g.Append(model.ProvenanceStep{
		Operation: "candidate_retrieval",
		Inputs: map[string]any{
			"need_id":   need.ID.String(),
			"need_type": string(need.Type),
			"keys":      keys,
		},
		Outputs: map[string]any{
			"candidate_count": len(entries),
		},
		Reasoning: fmt.Sprintf("Queried %d retrieval keys (type, tags, tokens): %d candidates after deduplication and self-match exclusion",
			len(keys), len(entries)),
		Confidence: 0.9,
	})
	return entries
}
