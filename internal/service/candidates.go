package service

import (
	"context"
	"math"
	"sort"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxCandidates        = 5
	maxTagCandidates     = 3
	minTagOverlap        = 2
	nearestNeighborK     = 10
	answerSimilarityMin  = 0.75
	minSubstantialAnswer = 20

	weightExplicitLink = 1.0
	weightTagOverlap   = 0.8
	weightPerOverlap   = 0.05
	weightAnswerSim    = 0.7
	weightQuestionSim  = 0.6
)

// Candidate signal names, recorded for observability.
const (
	SignalExplicitLink       = "explicit_link"
	SignalTagOverlap         = "tag_overlap"
	SignalQuestionSimilarity = "question_similarity"
	SignalAnswerSimilarity   = "answer_similarity"
)

// Candidate is a prior answered question worth testing against the current
// answer for contradiction, tagged with the signal that surfaced it.
type Candidate struct {
	domain.AnsweredQuestion
	Weight float64
	Signal string
}

// CandidateGenerator ranks a session's prior answers for contradiction
// checking against a newly submitted one. Four signals contribute, in
// decreasing order of trust: explicit question links, tag overlap, question
// embedding proximity, answer embedding proximity. The output is capped to
// bound judge calls, which are slow; explicit links survive the cap.
type CandidateGenerator struct {
	questions domain.QuestionStore
	links     domain.LinkStore
	embedder  domain.EmbeddingClient
	logger    *zap.Logger
}

func NewCandidateGenerator(questions domain.QuestionStore, links domain.LinkStore, embedder domain.EmbeddingClient, logger *zap.Logger) *CandidateGenerator {
	return &CandidateGenerator{
		questions: questions,
		links:     links,
		embedder:  embedder,
		logger:    logger,
	}
}

// Generate produces the ranked candidate list for the current answer. prior
// holds the session's other answered questions; the current question must not
// be among them. Embedding-oracle failures degrade to the structural signals
// rather than failing generation.
func (g *CandidateGenerator) Generate(ctx context.Context, current domain.AnsweredQuestion, prior []domain.AnsweredQuestion) ([]Candidate, error) {
	if len(prior) == 0 {
		return nil, nil
	}

	byQuestion := make(map[uuid.UUID]domain.AnsweredQuestion, len(prior))
	for _, aq := range prior {
		byQuestion[aq.Question.ID] = aq
	}

	seen := make(map[uuid.UUID]bool, len(prior))
	var candidates []Candidate
	add := func(id uuid.UUID, weight float64, signal string) {
		if seen[id] || id == current.Question.ID {
			return
		}
		aq, ok := byQuestion[id]
		if !ok {
			return
		}
		seen[id] = true
		candidates = append(candidates, Candidate{AnsweredQuestion: aq, Weight: weight, Signal: signal})
	}

	// Signal 1: explicit links, from the question record and the link graph.
	for _, id := range g.explicitlyLinked(ctx, current.Question) {
		add(id, weightExplicitLink, SignalExplicitLink)
	}

	// Signal 2: tag overlap, top few by overlap size.
	type overlapEntry struct {
		id      uuid.UUID
		overlap int
	}
	var overlaps []overlapEntry
	for _, aq := range prior {
		n := domain.TagOverlap(current.Question.Tags, aq.Question.Tags)
		if n >= minTagOverlap {
			overlaps = append(overlaps, overlapEntry{id: aq.Question.ID, overlap: n})
		}
	}
	sort.SliceStable(overlaps, func(i, j int) bool { return overlaps[i].overlap > overlaps[j].overlap })
	if len(overlaps) > maxTagCandidates {
		overlaps = overlaps[:maxTagCandidates]
	}
	for _, e := range overlaps {
		add(e.id, weightTagOverlap+weightPerOverlap*float64(e.overlap), SignalTagOverlap)
	}

	// Signal 3: question embedding proximity, only when the structural
	// signals left room.
	if len(candidates) < maxCandidates {
		for _, id := range g.nearestQuestions(ctx, current.Question) {
			add(id, weightQuestionSim, SignalQuestionSimilarity)
		}
	}

	// Signal 4: answer embedding proximity. Similar answers to different
	// questions can still reveal contradictory commitments.
	if len(current.Answer.Text) > minSubstantialAnswer {
		vec := g.currentAnswerEmbedding(ctx, current)
		if vec != nil {
			for _, aq := range prior {
				if len(aq.Answer.Embedding) == 0 {
					continue
				}
				if cosineSimilarity(vec, aq.Answer.Embedding) > answerSimilarityMin {
					add(aq.Question.ID, weightAnswerSim, SignalAnswerSimilarity)
				}
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Weight > candidates[j].Weight })
	return capCandidates(candidates), nil
}

// capCandidates trims the list to maxCandidates but never drops an explicit
// link: the author of the question bank asserted those pairs matter.
func capCandidates(candidates []Candidate) []Candidate {
	if len(candidates) <= maxCandidates {
		return candidates
	}
	kept := make([]Candidate, 0, maxCandidates)
	for _, c := range candidates {
		if c.Signal == SignalExplicitLink {
			kept = append(kept, c)
		}
	}
	for _, c := range candidates {
		if len(kept) >= maxCandidates {
			break
		}
		if c.Signal != SignalExplicitLink {
			kept = append(kept, c)
		}
	}
	return kept
}

func (g *CandidateGenerator) explicitlyLinked(ctx context.Context, q domain.Question) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(q.RelatedQuestionIDs))
	seen := make(map[uuid.UUID]bool)
	for _, id := range q.RelatedQuestionIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if g.links == nil {
		return ids
	}
	related, err := g.links.GetRelated(ctx, q.ID, domain.RelationRelatedTo)
	if err != nil {
		g.logger.Warn("link lookup failed, using inline links only",
			zap.String("question_id", q.ID.String()),
			zap.Error(err))
		return ids
	}
	for _, id := range related {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func (g *CandidateGenerator) nearestQuestions(ctx context.Context, q domain.Question) []uuid.UUID {
	vec := q.Embedding
	if len(vec) == 0 && g.embedder != nil {
		embedded, err := g.embedder.Embed(ctx, q.Text)
		if err != nil {
			g.logger.Warn("question embedding failed, skipping similarity signal", zap.Error(err))
			return nil
		}
		vec = embedded

		// Backfill so the question can be found as a neighbor next time.
		if err := g.questions.UpdateEmbedding(ctx, q.ID, vec); err != nil {
			g.logger.Warn("question embedding backfill failed",
				zap.String("question_id", q.ID.String()),
				zap.Error(err))
		}
	}
	if len(vec) == 0 {
		return nil
	}

	neighbors, err := g.questions.NearestByEmbedding(ctx, vec, nearestNeighborK)
	if err != nil {
		g.logger.Warn("nearest-neighbor query failed, skipping similarity signal", zap.Error(err))
		return nil
	}
	ids := make([]uuid.UUID, 0, len(neighbors))
	for _, n := range neighbors {
		ids = append(ids, n.ID)
	}
	return ids
}

func (g *CandidateGenerator) currentAnswerEmbedding(ctx context.Context, current domain.AnsweredQuestion) []float32 {
	if len(current.Answer.Embedding) > 0 {
		return current.Answer.Embedding
	}
	if g.embedder == nil {
		return nil
	}
	vec, err := g.embedder.Embed(ctx, current.Answer.Text)
	if err != nil {
		g.logger.Warn("answer embedding failed, skipping answer similarity signal", zap.Error(err))
		return nil
	}
	return vec
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
