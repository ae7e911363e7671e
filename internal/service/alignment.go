package service

import (
	"context"
	"strings"

	"github.com/ethoslabs/ethos/internal/domain"
	"go.uber.org/zap"
)

const (
	recencyWeightSlope = 1.5
	keywordHitWeight   = 2.0
)

// FrameworkAnalyzer computes how strongly a session's answers align with each
// moral framework, as a percentage distribution. A tag/keyword heuristic is
// always computed; with enough answers the oracle's structured breakdown
// replaces it wholesale when parseable. The distribution is replaced rather
// than blended because averaging two independent percentage vectors is
// semantically murkier than averaging two scalars.
type FrameworkAnalyzer struct {
	llm    domain.LLMClient
	logger *zap.Logger
}

func NewFrameworkAnalyzer(llm domain.LLMClient, logger *zap.Logger) *FrameworkAnalyzer {
	return &FrameworkAnalyzer{llm: llm, logger: logger}
}

// Analyze returns the alignment extraction and whether the oracle path was
// attempted but degraded to the heuristic.
func (a *FrameworkAnalyzer) Analyze(ctx context.Context, answered []domain.AnsweredQuestion, frameworks []domain.Framework) (*domain.AlignmentExtraction, bool) {
	heuristic := HeuristicAlignment(answered, frameworks)

	if len(answered) < minAnswersForOracle || a.llm == nil {
		return heuristic, false
	}

	qas := make([]domain.QA, len(answered))
	for i, aq := range answered {
		qas[i] = domain.QA{Question: aq.Question.Text, Answer: aq.Answer.Text}
	}

	extraction, err := a.llm.AnalyzeAlignment(ctx, qas, frameworks)
	if err != nil {
		a.logger.Warn("oracle alignment unavailable, using heuristic", zap.Error(err))
		return heuristic, true
	}
	return extraction, false
}

// HeuristicAlignment scores each framework from the answers' question tags
// and literal keyword hits, weighted so later answers count more than earlier
// ones: views evolve, and the recent profile is the truer one.
func HeuristicAlignment(answered []domain.AnsweredQuestion, frameworks []domain.Framework) *domain.AlignmentExtraction {
	scores := make(map[domain.FrameworkKey]float64, len(frameworks))
	keys := make([]domain.FrameworkKey, 0, len(frameworks))
	for _, f := range frameworks {
		scores[f.Key] = 0
		keys = append(keys, f.Key)
	}

	total := len(answered)
	for i, aq := range answered {
		weight := 1 + recencyWeightSlope*(float64(i)/float64(total))
		answerText := strings.ToLower(aq.Answer.Text)

		for _, f := range frameworks {
			for _, tag := range aq.Question.Tags {
				if tagMatchesPrinciples(tag, f.Principles) {
					scores[f.Key] += weight
				}
			}
			for _, kw := range domain.FrameworkKeywords[f.Key] {
				scores[f.Key] += keywordHitWeight * float64(strings.Count(answerText, kw))
			}
		}
	}

	return &domain.AlignmentExtraction{Alignment: normalizeAlignment(scores, keys)}
}

// tagMatchesPrinciples reports whether the tag lexically overlaps any
// principle, substring in either direction, case-insensitively.
func tagMatchesPrinciples(tag string, principles []string) bool {
	t := strings.ToLower(tag)
	if t == "" {
		return false
	}
	for _, p := range principles {
		pl := strings.ToLower(p)
		if strings.Contains(pl, t) || strings.Contains(t, pl) {
			return true
		}
	}
	return false
}

// normalizeAlignment converts raw scores to percentages summing to 100. A
// zero total yields an equal share per framework so the distribution is
// always well formed.
func normalizeAlignment(scores map[domain.FrameworkKey]float64, keys []domain.FrameworkKey) map[domain.FrameworkKey]float64 {
	out := make(map[domain.FrameworkKey]float64, len(keys))
	if len(keys) == 0 {
		return out
	}

	var total float64
	for _, k := range keys {
		total += scores[k]
	}
	if total == 0 {
		share := 100 / float64(len(keys))
		for _, k := range keys {
			out[k] = share
		}
		return out
	}
	for _, k := range keys {
		out[k] = 100 * scores[k] / total
	}
	return out
}
