package explain

import (
	"fmt"
	"strings"
)

// Markdown renders the explanation as a human-readable Markdown document.
func (e Explanation) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Match explanation\n\n%s\n\n", e.Summary)

	b.WriteString("### Scores\n\n")
	for _, s := range e.ScoreBreakdown {
		fmt.Fprintf(&b, "- **%s**: %.2f (%s)\n", s.Name, s.Score, s.Band)
	}
	fmt.Fprintf(&b, "- **confidence**: %.2f (score interval %.2f–%.2f)\n",
		e.Confidence.Value, e.Confidence.Interval.Lower, e.Confidence.Interval.Upper)

	if len(e.KeyFactors) > 0 {
		b.WriteString("\n### Key factors\n\n")
		for _, f := range e.KeyFactors {
			fmt.Fprintf(&b, "- %s\n", f.Reasoning)
		}
	}

	if len(e.Reasoning) > 0 {
		b.WriteString("\n### Reasoning\n\n")
		for i, step := range e.Reasoning {
			fmt.Fprintf(&b, "%d. [%s] %s (confidence %.2f)\n", i+1, step.Operation, step.Reasoning, step.Confidence)
		}
	}

	if len(e.Evidence) > 0 {
		b.WriteString("\n### Evidence\n\n")
		for _, ev := range e.Evidence {
			fmt.Fprintf(&b, "- %s\n", ev)
		}
	}

	if len(e.UncertaintyFactors) > 0 {
		b.WriteString("\n### Uncertainty\n\n")
		for _, u := range e.UncertaintyFactors {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}

	if len(e.Verification) > 0 {
		b.WriteString("\n### How to verify\n\n")
		for i, step := range e.Verification {
			fmt.Fprintf(&b, "%d. **%s** — %s. Look for: %s.\n", i+1, step.Action, step.How, step.WhatToLookFor)
			if len(step.RedFlags) > 0 {
				fmt.Fprintf(&b, "   Red flags: %s.\n", strings.Join(step.RedFlags, "; "))
			}
		}
	}

	return b.String()
}
