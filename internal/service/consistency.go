package service

import (
	"context"
	"math"

	"github.com/ethoslabs/ethos/internal/domain"
	"go.uber.org/zap"
)

const (
	unresolvedPenalty   = 10
	resolvedCredit      = 5
	minAnswersForOracle = 3
)

// ConsistencyScorer folds a session's contradiction history into a bounded
// 0-100 score. Resolved contradictions partially restore the score because
// resolving one demonstrates reflective growth; they never fully offset the
// penalty, so unresolved tension still dominates.
type ConsistencyScorer struct {
	llm    domain.LLMClient
	logger *zap.Logger
}

func NewConsistencyScorer(llm domain.LLMClient, logger *zap.Logger) *ConsistencyScorer {
	return &ConsistencyScorer{llm: llm, logger: logger}
}

// HeuristicScore computes the deterministic base score from contradiction
// counts alone.
func HeuristicScore(unresolved, resolved int) int {
	score := 100 - unresolvedPenalty*unresolved + resolvedCredit*resolved
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Score returns the session's consistency score and whether the result is
// degraded (heuristic only). With enough answers the heuristic is blended
// with an oracle score; the oracle is a best-effort enhancement, never a hard
// dependency.
func (s *ConsistencyScorer) Score(ctx context.Context, session *domain.Session, answers []domain.QA) (int, bool) {
	heuristic := HeuristicScore(session.UnresolvedCount(), session.ResolvedCount())

	if len(answers) < minAnswersForOracle || s.llm == nil {
		return heuristic, false
	}

	oracle, err := s.llm.ScoreConsistency(ctx, answers)
	if err != nil {
		s.logger.Warn("oracle consistency score unavailable, using heuristic",
			zap.String("user_id", session.UserID),
			zap.Int("heuristic_score", heuristic),
			zap.Error(err))
		return heuristic, true
	}

	return int(math.Round(float64(heuristic+oracle) / 2)), false
}
