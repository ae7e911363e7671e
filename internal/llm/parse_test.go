package llm

import (
	"strings"
	"testing"

	"github.com/ethoslabs/ethos/internal/domain"
)

func fullAlignment() map[domain.FrameworkKey]float64 {
	return map[domain.FrameworkKey]float64{
		domain.FrameworkDeontological: 30,
		domain.FrameworkUtilitarian:   30,
		domain.FrameworkVirtueEthics:  20,
		domain.FrameworkCareEthics:    10,
		domain.FrameworkContractarian: 10,
	}
}

func TestValidateAlignment(t *testing.T) {
	if err := validateAlignment(fullAlignment()); err != nil {
		t.Errorf("full distribution rejected: %v", err)
	}

	withZero := fullAlignment()
	withZero[domain.FrameworkCareEthics] = 0
	withZero[domain.FrameworkContractarian] = 20
	if err := validateAlignment(withZero); err != nil {
		t.Errorf("zero share for a framework rejected: %v", err)
	}

	rounded := fullAlignment()
	rounded[domain.FrameworkDeontological] = 30.5
	if err := validateAlignment(rounded); err != nil {
		t.Errorf("sum within rounding distance rejected: %v", err)
	}
}

func TestValidateAlignment_RequiresEveryFramework(t *testing.T) {
	partial := map[domain.FrameworkKey]float64{
		domain.FrameworkDeontological: 60,
		domain.FrameworkUtilitarian:   40,
	}
	err := validateAlignment(partial)
	if err == nil {
		t.Fatal("distribution omitting declared frameworks must be rejected")
	}
	if !strings.Contains(err.Error(), "missing framework") {
		t.Errorf("error = %v, want a missing-framework complaint", err)
	}
}

func TestValidateAlignment_Rejections(t *testing.T) {
	if err := validateAlignment(nil); err == nil {
		t.Error("empty map must be rejected")
	}

	unknown := fullAlignment()
	unknown[domain.FrameworkKey("nihilist")] = 0
	if err := validateAlignment(unknown); err == nil {
		t.Error("unknown framework key must be rejected")
	}

	negative := fullAlignment()
	negative[domain.FrameworkCareEthics] = -10
	negative[domain.FrameworkContractarian] = 30
	if err := validateAlignment(negative); err == nil {
		t.Error("negative share must be rejected")
	}

	badSum := fullAlignment()
	badSum[domain.FrameworkDeontological] = 80
	if err := validateAlignment(badSum); err == nil {
		t.Error("sum far from 100 must be rejected")
	}
}

func TestParseScore(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"85", 85, false},
		{" 100 ", 100, false},
		{"```json\n70\n```", 70, false},
		{"The score is 42.", 42, false},
		{"150", 0, true},
		{"no number here", 0, true},
	}
	for _, tc := range cases {
		got, err := parseScore(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseScore(%q) = %d, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseScore(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseScore(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseYesNo(t *testing.T) {
	if got, err := parseYesNo("Yes, the answers demonstrate it."); err != nil || !got {
		t.Errorf("got (%v, %v), want (true, nil)", got, err)
	}
	if got, err := parseYesNo("NO"); err != nil || got {
		t.Errorf("got (%v, %v), want (false, nil)", got, err)
	}
	if _, err := parseYesNo("maybe"); err == nil {
		t.Error("ambiguous response must error")
	}
}
