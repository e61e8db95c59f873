package assess

import (
	"fmt"
	"math"
	"strings"
)

// HeuristicMarker prefixes the analysis of every heuristic result.
const HeuristicMarker = "[Heuristic assessment: AI unavailable]"

const (
	strongThreshold   = 80
	workableThreshold = 60
)

// Classify maps a total score onto tier and decision.
func Classify(score int) (Tier, Decision) {
	switch {
	case score >= strongThreshold:
		return TierStrong, DecisionGo
	case score >= workableThreshold:
		return TierWorkable, DecisionHold
	default:
		return TierWeak, DecisionNoGo
	}
}

// Heuristic scores a ScoreSet without any external call: the average rating
// scaled to 0-100, classified by fixed thresholds.
func Heuristic(scores ScoreSet) Result {
	avg := scores.Average()
	total := clampScore(int(math.Round(avg * 20)))
	tier, decision := Classify(total)

	var b strings.Builder
	fmt.Fprintf(&b, "%s Average rating %.1f/5 across %d of %d dimensions.", HeuristicMarker, avg, len(scores), len(Dimensions))
	if weak := weakest(scores); len(weak) > 0 {
		fmt.Fprintf(&b, " Weakest areas: %s.", strings.Join(weak, ", "))
	}
	switch decision {
	case DecisionGo:
		b.WriteString(" Qualification is strong; keep advancing the deal.")
	case DecisionHold:
		b.WriteString(" Qualification is workable; close the gaps before committing more resources.")
	default:
		b.WriteString(" Qualification is weak; requalify before investing further.")
	}

	return Result{
		Tier:     tier,
		Decision: decision,
		Score:    total,
		Analysis: b.String(),
	}
}

// weakest lists dimensions rated 2 or lower, in display order.
func weakest(scores ScoreSet) []string {
	var out []string
	for _, k := range scores.Keys() {
		if scores[k] <= 2 {
			label := DimensionLabels[k]
			if label == "" {
				label = k
			}
			out = append(out, label)
		}
	}
	return out
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
