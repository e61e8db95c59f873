package assess

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseStatus tags how ParseOrDefault arrived at its result.
type ParseStatus string

const (
	// ParseOK: all four fields were present and valid.
	ParseOK ParseStatus = "ok"
	// ParsePartial: a JSON object was found but some fields were defaulted.
	ParsePartial ParseStatus = "partial"
	// ParseFallback: no JSON object could be read; the result is DefaultResult.
	ParseFallback ParseStatus = "fallback"
)

// DefaultResult supplies the value of every field the model failed to provide.
var DefaultResult = Result{
	Tier:     TierWorkable,
	Decision: DecisionHold,
	Score:    60,
	Analysis: "Fallback result.",
}

// StripCodeFence removes Markdown code fence wrapping such as ```json ... ```.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string (json, JSON, ...) up to the first newline.
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[") {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "json"), "JSON")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseOrDefault reads a verdict from model output. It never fails: fields
// that are missing or invalid take their DefaultResult value and the status
// says which path was taken.
func ParseOrDefault(text string) (Result, ParseStatus) {
	obj, ok := decodeObject(StripCodeFence(text))
	if !ok {
		return DefaultResult, ParseFallback
	}

	result := DefaultResult
	valid := 0

	if tier, ok := parseTier(obj["tier"]); ok {
		result.Tier = tier
		valid++
	}
	if decision, ok := parseDecision(obj["decision"]); ok {
		result.Decision = decision
		valid++
	}
	scoreField := obj["score"]
	if scoreField == nil {
		scoreField = obj["totalScore"]
	}
	if score, ok := parseScore(scoreField); ok {
		result.Score = score
		valid++
	}
	if analysis, ok := obj["analysis"].(string); ok && strings.TrimSpace(analysis) != "" {
		result.Analysis = strings.TrimSpace(analysis)
		valid++
	}

	if valid == 4 {
		return result, ParseOK
	}
	return result, ParsePartial
}

// decodeObject parses s as a JSON object, falling back to the outermost
// {...} span when the model wrapped the object in prose.
func decodeObject(s string) (map[string]any, bool) {
	if obj, ok := unmarshalObject(s); ok {
		return obj, true
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return nil, false
	}
	return unmarshalObject(s[start : end+1])
}

func unmarshalObject(s string) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func parseTier(v any) (Tier, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strong":
		return TierStrong, true
	case "workable":
		return TierWorkable, true
	case "weak":
		return TierWeak, true
	}
	return "", false
}

func parseDecision(v any) (Decision, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	norm := strings.NewReplacer("-", "", " ", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch norm {
	case "go":
		return DecisionGo, true
	case "hold":
		return DecisionHold, true
	case "nogo":
		return DecisionNoGo, true
	}
	return "", false
}

// parseScore accepts JSON numbers and numeric strings, rounding and clamping to [0,100].
func parseScore(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return clampScore(int(math.Round(f))), true
}
