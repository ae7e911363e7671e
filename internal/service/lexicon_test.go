package service

import (
	"math"
	"testing"
)

func scoreEq(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

func TestLexicalVerdictScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{
			name: "single contradiction phrase",
			text: "The first answer directly contradicts the second.",
			want: 0.30,
		},
		{
			name: "single consistency phrase",
			text: "These positions are compatible with each other.",
			want: -0.20,
		},
		{
			name: "mixed signals",
			text: "There is tension between the views but they can be reconciled.",
			want: 0.15 - 0.30,
		},
		{
			name: "phrase counts once despite repetition",
			text: "A contradicts B. B also contradicts A. They are in conflict because one contradicts the other.",
			want: 0.30,
		},
		{
			name: "empty text",
			text: "",
			want: 0,
		},
		{
			name: "case insensitive",
			text: "These answers are MUTUALLY EXCLUSIVE.",
			want: 0.30,
		},
		{
			name: "strongly contradictory verdict accumulates",
			text: "The views are incompatible and inconsistent; the positions cannot be reconciled.",
			want: 0.30 + 0.25 + 0.30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lexicalVerdictScore(tt.text)
			if !scoreEq(got, tt.want) {
				t.Errorf("lexicalVerdictScore(%q) = %f, want %f", tt.text, got, tt.want)
			}
		})
	}
}

// "inconsistent" contains "consistent" and "incompatible" contains
// "compatible"; the negative cue must not fire off its own negation.
func TestLexicalVerdictScore_SubstringPhrases(t *testing.T) {
	if got := lexicalVerdictScore("the answers are inconsistent"); !scoreEq(got, 0.25) {
		t.Errorf("inconsistent: got %f, want 0.25", got)
	}
	if got := lexicalVerdictScore("the answers are incompatible"); !scoreEq(got, 0.30) {
		t.Errorf("incompatible: got %f, want 0.30", got)
	}
	if got := lexicalVerdictScore("these positions cannot be reconciled"); !scoreEq(got, 0.30) {
		t.Errorf("cannot be reconciled: got %f, want 0.30", got)
	}
	// Both forms present: the negative cue fires alongside the positive.
	if got := lexicalVerdictScore("superficially inconsistent but ultimately consistent"); !scoreEq(got, 0.25-0.25) {
		t.Errorf("both forms: got %f, want 0", got)
	}
	// "aligns with" must not also trigger "align with".
	if got := lexicalVerdictScore("the first answer aligns with the second"); !scoreEq(got, -0.15) {
		t.Errorf("aligns with: got %f, want -0.15", got)
	}
}

func TestLexicalThresholdClassification(t *testing.T) {
	contradictory := "There is tension between these commitments."
	if score := lexicalVerdictScore(contradictory); score <= lexicalContradictionThreshold {
		t.Errorf("expected %q to cross the threshold, score %f", contradictory, score)
	}

	consistent := "No contradiction here; the answers are consistent and complementary."
	if score := lexicalVerdictScore(consistent); score > lexicalContradictionThreshold {
		t.Errorf("expected %q to stay under the threshold, score %f", consistent, score)
	}
}

func TestClamp01(t *testing.T) {
	if clamp01(-0.5) != 0 {
		t.Error("negative should clamp to 0")
	}
	if clamp01(1.5) != 1 {
		t.Error("values above 1 should clamp to 1")
	}
	if clamp01(0.45) != 0.45 {
		t.Error("in-range value should pass through")
	}
}
