package assess

import (
	"fmt"
	"strings"
)

const instructions = `You are a B2B sales qualification analyst using the MEDDPICC framework.
Assess the deal below. Ratings are 1 (weak) to 5 (strong); missing dimensions were not rated.
Respond with a single JSON object and nothing else: no Markdown, no code fences, no commentary.
The object must have exactly these four fields:
  "tier": one of "Strong", "Workable", "Weak"
  "decision": one of "Go", "Hold", "No-go"
  "score": integer from 0 to 100
  "analysis": at most 120 words naming the main risks and the next steps`

// BuildPrompt renders the instruction prompt for payload.
func BuildPrompt(p Payload) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nDeal:\n")
	fmt.Fprintf(&b, "- Account: %s\n", oneLine(p.Deal.Account))
	fmt.Fprintf(&b, "- Title: %s\n", oneLine(p.Deal.Title))
	fmt.Fprintf(&b, "- Value: %.2f\n", p.Deal.Value)
	if p.Deal.Stage != "" {
		fmt.Fprintf(&b, "- Stage: %s\n", oneLine(p.Deal.Stage))
	}

	b.WriteString("\nScores:\n")
	if len(p.Scores) == 0 {
		b.WriteString("- none provided\n")
	}
	for _, k := range p.Scores.Keys() {
		label := DimensionLabels[k]
		if label == "" {
			label = k
		}
		fmt.Fprintf(&b, "- %s: %d\n", label, p.Scores[k])
	}

	if notes := strings.TrimSpace(p.Notes); notes != "" {
		b.WriteString("\nNotes from the rep:\n")
		b.WriteString(notes)
		b.WriteString("\n")
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
