// Package assess turns MEDDPICC scores into a qualification verdict, either
// through an LLM provider or the deterministic heuristic scorer.
package assess

import "sort"

type Tier string

const (
	TierStrong   Tier = "Strong"
	TierWorkable Tier = "Workable"
	TierWeak     Tier = "Weak"
)

type Decision string

const (
	DecisionGo   Decision = "Go"
	DecisionHold Decision = "Hold"
	DecisionNoGo Decision = "No-go"
)

// MEDDPICC dimensions, in display order.
const (
	DimMetrics          = "metrics"
	DimEconomicBuyer    = "economic_buyer"
	DimDecisionCriteria = "decision_criteria"
	DimDecisionProcess  = "decision_process"
	DimPaperProcess     = "paper_process"
	DimIdentifyPain     = "identify_pain"
	DimChampion         = "champion"
	DimCompetition      = "competition"
)

// Dimensions lists every scored dimension.
var Dimensions = []string{
	DimMetrics, DimEconomicBuyer, DimDecisionCriteria, DimDecisionProcess,
	DimPaperProcess, DimIdentifyPain, DimChampion, DimCompetition,
}

// DimensionLabels are human readable names used in prompts and pages.
var DimensionLabels = map[string]string{
	DimMetrics:          "Metrics",
	DimEconomicBuyer:    "Economic buyer",
	DimDecisionCriteria: "Decision criteria",
	DimDecisionProcess:  "Decision process",
	DimPaperProcess:     "Paper process",
	DimIdentifyPain:     "Identified pain",
	DimChampion:         "Champion",
	DimCompetition:      "Competition",
}

const (
	MinRating = 1
	MaxRating = 5
)

// ScoreSet maps dimension names to 1-5 ratings. Any subset may be present.
type ScoreSet map[string]int

// Average is the mean rating, or 3 when the set is empty.
func (s ScoreSet) Average() float64 {
	if len(s) == 0 {
		return 3
	}
	sum := 0
	for _, v := range s {
		sum += v
	}
	return float64(sum) / float64(len(s))
}

// Keys returns the rated dimensions, known dimensions first in display order.
func (s ScoreSet) Keys() []string {
	keys := make([]string, 0, len(s))
	seen := make(map[string]bool, len(s))
	for _, d := range Dimensions {
		if _, ok := s[d]; ok {
			keys = append(keys, d)
			seen[d] = true
		}
	}
	var extra []string
	for k := range s {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// Result is a qualification verdict. Score is the total score in [0,100].
type Result struct {
	Tier     Tier     `json:"tier"`
	Decision Decision `json:"decision"`
	Score    int      `json:"score"`
	Analysis string   `json:"analysis"`
}

// DealSnapshot is the deal as it looked when it was assessed.
type DealSnapshot struct {
	Account string  `json:"account"`
	Title   string  `json:"title"`
	Value   float64 `json:"value"`
	Stage   string  `json:"stage,omitempty"`
}

// Payload is everything an assessment is computed from.
type Payload struct {
	Deal   DealSnapshot `json:"deal"`
	Scores ScoreSet     `json:"scores"`
	Notes  string       `json:"notes,omitempty"`
}

// Source records which path produced a result.
type Source string

const (
	// SourceHeuristic: no provider key configured, the LLM was never called.
	SourceHeuristic Source = "heuristic"
	SourceLLM       Source = "llm"
	// SourceFallback: the LLM path was attempted and failed.
	SourceFallback Source = "fallback"
)

// Outcome is a Result plus how it was produced.
type Outcome struct {
	Result Result `json:"result"`
	Source Source `json:"source"`
	Reason string `json:"reason,omitempty"`
}
