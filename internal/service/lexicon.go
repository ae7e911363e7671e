package service

import "strings"

// verdictLexiconVersion identifies the phrase/weight table below. Bump when
// tuning weights so stored confidences can be traced to the rules that
// produced them.
const verdictLexiconVersion = 1

// lexicalContradictionThreshold is deliberately low: a false negative hides
// moral tension from the user, which is the worse failure mode.
const lexicalContradictionThreshold = 0.1

// verdictCue is one entry in the lexical fallback table. Each phrase
// contributes its weight at most once per verdict text. Phrases that appear
// inside a longer negating phrase (e.g. "consistent" inside "inconsistent")
// list those phrases in negatedBy so they are not double counted.
type verdictCue struct {
	phrase    string
	weight    float64
	negatedBy []string
}

var verdictCues = []verdictCue{
	// contradiction-indicating
	{phrase: "cannot be reconciled", weight: 0.30},
	{phrase: "mutually exclusive", weight: 0.30},
	{phrase: "incompatible", weight: 0.30},
	{phrase: "contradicts", weight: 0.30},
	{phrase: "inconsistent", weight: 0.25},
	{phrase: "conflicts with", weight: 0.20},
	{phrase: "opposes", weight: 0.20},
	{phrase: "tension between", weight: 0.15},

	// consistency-indicating
	{phrase: "no contradiction", weight: -0.40},
	{phrase: "can be reconciled", weight: -0.30, negatedBy: []string{"cannot be reconciled"}},
	{phrase: "consistent", weight: -0.25, negatedBy: []string{"inconsistent"}},
	{phrase: "compatible", weight: -0.20, negatedBy: []string{"incompatible"}},
	{phrase: "complementary", weight: -0.20},
	{phrase: "aligns with", weight: -0.15},
	{phrase: "align with", weight: -0.15, negatedBy: []string{"aligns with"}},
}

// lexicalVerdictScore sums the cue weights found in the verdict text.
// Matching is case-insensitive; each cue counts at most once.
func lexicalVerdictScore(text string) float64 {
	t := strings.ToLower(text)

	var score float64
	for _, cue := range verdictCues {
		n := strings.Count(t, cue.phrase)
		for _, neg := range cue.negatedBy {
			n -= strings.Count(t, neg)
		}
		if n > 0 {
			score += cue.weight
		}
	}
	return score
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
