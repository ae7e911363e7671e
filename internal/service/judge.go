package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ethoslabs/ethos/internal/domain"
	"go.uber.org/zap"
)

var ErrOracleUnavailable = errors.New("inference oracle unavailable")

// JudgeResult is the verdict for one candidate pair.
type JudgeResult struct {
	Contradiction bool    `json:"contradiction"`
	Explanation   string  `json:"explanation"`
	Confidence    float64 `json:"confidence"`
	// ExplicitConclusion reports whether the oracle emitted a parseable
	// conclusion line, as opposed to the lexical fallback deciding.
	ExplicitConclusion bool `json:"explicit_conclusion"`
}

// ContradictionJudge decides whether a candidate pair of answers expresses
// contradictory moral commitments. The oracle's free-text verdict is parsed
// deterministically: an explicit "Conclusion: YES/NO" line is trusted
// outright; otherwise the lexical cue table scores the text.
type ContradictionJudge struct {
	llm    domain.LLMClient
	logger *zap.Logger
}

func NewContradictionJudge(llm domain.LLMClient, logger *zap.Logger) *ContradictionJudge {
	return &ContradictionJudge{llm: llm, logger: logger}
}

// Judge evaluates one pair. An oracle failure is propagated so the caller
// can skip this pair and continue with the rest of the batch; there is no
// heuristic that can stand in for a missing verdict text.
func (j *ContradictionJudge) Judge(ctx context.Context, current, candidate domain.QA) (*JudgeResult, error) {
	if j.llm == nil {
		return nil, ErrOracleUnavailable
	}

	verdict, err := j.llm.JudgeContradiction(ctx, current, candidate)
	if err != nil {
		return nil, err
	}

	if conclusion, ok := parseConclusionLine(verdict); ok {
		return &JudgeResult{
			Contradiction:      conclusion,
			Explanation:        verdict,
			Confidence:         1.0,
			ExplicitConclusion: true,
		}, nil
	}

	score := lexicalVerdictScore(verdict)
	j.logger.Debug("no explicit conclusion, using lexical fallback",
		zap.Float64("score", score),
		zap.Int("lexicon_version", verdictLexiconVersion))

	return &JudgeResult{
		Contradiction: score > lexicalContradictionThreshold,
		Explanation:   verdict,
		Confidence:    clamp01(score),
	}, nil
}

// parseConclusionLine scans the verdict for a line of the form
// "Conclusion: YES ..." or "Conclusion: NO ...". Returns (verdict, found).
func parseConclusionLine(text string) (bool, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.ToLower(line))
		rest, ok := strings.CutPrefix(line, "conclusion:")
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if strings.HasPrefix(rest, "yes") {
			return true, true
		}
		if strings.HasPrefix(rest, "no") {
			return false, true
		}
	}
	return false, false
}
