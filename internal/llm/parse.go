package llm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/ethoslabs/ethos/internal/domain"
)

// stripFences removes markdown code fences the model sometimes wraps JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseScore extracts a 0-100 integer from a response that should contain
// only the score but may include stray prose.
func parseScore(s string) (int, error) {
	s = stripFences(s)

	if score, err := strconv.Atoi(s); err == nil {
		if score < 0 || score > 100 {
			return 0, fmt.Errorf("score %d out of range", score)
		}
		return score, nil
	}

	// Fall back to the first integer in the text
	start := -1
	for i, r := range s {
		if unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			score, err := strconv.Atoi(s[start:i])
			if err != nil || score < 0 || score > 100 {
				return 0, fmt.Errorf("no parseable score in %q", s)
			}
			return score, nil
		}
	}
	if start >= 0 {
		if score, err := strconv.Atoi(s[start:]); err == nil && score >= 0 && score <= 100 {
			return score, nil
		}
	}
	return 0, fmt.Errorf("no parseable score in %q", s)
}

// parseYesNo interprets a bare yes/no response.
func parseYesNo(s string) (bool, error) {
	t := strings.ToLower(strings.TrimSpace(stripFences(s)))
	switch {
	case strings.HasPrefix(t, "yes"):
		return true, nil
	case strings.HasPrefix(t, "no"):
		return false, nil
	}
	return false, fmt.Errorf("no parseable yes/no in %q", s)
}

// validateAlignment checks the oracle's distribution: every declared framework
// present, no unknown keys, values non-negative, total within rounding distance
// of 100.
func validateAlignment(a map[domain.FrameworkKey]float64) error {
	if len(a) == 0 {
		return fmt.Errorf("empty alignment map")
	}
	var total float64
	for k, v := range a {
		if !domain.ValidFrameworkKey(string(k)) {
			return fmt.Errorf("unknown framework key %q", k)
		}
		if v < 0 {
			return fmt.Errorf("negative alignment for %q", k)
		}
		total += v
	}
	for _, k := range domain.AllFrameworkKeys {
		if _, ok := a[k]; !ok {
			return fmt.Errorf("alignment missing framework %q", k)
		}
	}
	if total < 99 || total > 101 {
		return fmt.Errorf("alignment percentages sum to %.1f, want 100", total)
	}
	return nil
}
