package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// FrameworkKey identifies a moral framework independently of display name.
type FrameworkKey string

const (
	FrameworkDeontological FrameworkKey = "deontological"
	FrameworkUtilitarian   FrameworkKey = "utilitarian"
	FrameworkVirtueEthics  FrameworkKey = "virtue_ethics"
	FrameworkCareEthics    FrameworkKey = "care_ethics"
	FrameworkContractarian FrameworkKey = "contractarian"
)

// AllFrameworkKeys lists every declared framework, in canonical order.
var AllFrameworkKeys = []FrameworkKey{
	FrameworkDeontological,
	FrameworkUtilitarian,
	FrameworkVirtueEthics,
	FrameworkCareEthics,
	FrameworkContractarian,
}

func ValidFrameworkKey(k string) bool {
	switch FrameworkKey(k) {
	case FrameworkDeontological, FrameworkUtilitarian, FrameworkVirtueEthics,
		FrameworkCareEthics, FrameworkContractarian:
		return true
	}
	return false
}

// FrameworkKeywords maps each framework to the literal keywords whose presence
// in answer text counts as alignment signal. Keyword hits are weighted 2x
// relative to tag/principle overlap.
var FrameworkKeywords = map[FrameworkKey][]string{
	FrameworkDeontological: {"duty", "obligation", "categorical"},
	FrameworkUtilitarian:   {"happiness", "utility", "consequences"},
	FrameworkVirtueEthics:  {"character", "virtue", "flourishing"},
	FrameworkCareEthics:    {"care", "empathy", "relationship"},
	FrameworkContractarian: {"agreement", "consent", "fairness"},
}

var ErrFrameworkKeyInvalid = errors.New("invalid framework key")

// Framework is a named philosophical theory against which answers are scored.
// Static reference data owned by the knowledge base.
type Framework struct {
	ID          uuid.UUID    `json:"id"`
	Key         FrameworkKey `json:"key"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Principles  []string     `json:"principles"`
	KeyThinkers []string     `json:"key_thinkers,omitempty"`
}

func (f *Framework) Validate() error {
	if !ValidFrameworkKey(string(f.Key)) {
		return ErrFrameworkKeyInvalid
	}
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("framework name is required")
	}
	if len(f.Principles) == 0 {
		return errors.New("framework requires at least one principle")
	}
	return nil
}
