package llm

import (
	"context"

	"github.com/ethoslabs/ethos/internal/domain"
)

// MockClient is a configurable inference client for testing.
// Set the response fields to control what each method returns.
type MockClient struct {
	JudgeContradictionResponse   string
	JudgeContradictionError      error
	ScoreConsistencyResponse     int
	ScoreConsistencyError        error
	AnalyzeAlignmentResponse     *domain.AlignmentExtraction
	AnalyzeAlignmentError        error
	AssessStageReadinessResponse bool
	AssessStageReadinessError    error
	GenerateQuestionResponse     *domain.GeneratedQuestion
	GenerateQuestionError        error
	ResolutionFeedbackResponse   string
	ResolutionFeedbackError      error

	// Call tracking for assertions
	JudgeContradictionCalls   []struct{ A, B domain.QA }
	ScoreConsistencyCalls     [][]domain.QA
	AnalyzeAlignmentCalls     [][]domain.QA
	AssessStageReadinessCalls []domain.Stage
	GenerateQuestionCalls     []domain.Stage
	ResolutionFeedbackCalls   []domain.Resolution
}

func NewMockClient() *MockClient {
	return &MockClient{
		JudgeContradictionResponse: "The answers are consistent.\nConclusion: NO - no conflict between the stated principles.",
		ScoreConsistencyResponse:   80,
		AnalyzeAlignmentResponse: &domain.AlignmentExtraction{
			Alignment: map[domain.FrameworkKey]float64{
				domain.FrameworkDeontological: 20,
				domain.FrameworkUtilitarian:   20,
				domain.FrameworkVirtueEthics:  20,
				domain.FrameworkCareEthics:    20,
				domain.FrameworkContractarian: 20,
			},
			KeyPrinciples: []string{"Mock principle"},
		},
		AssessStageReadinessResponse: true,
		GenerateQuestionResponse: &domain.GeneratedQuestion{
			Text: "Is it wrong to break a promise to protect someone?",
			Tags: []string{"promises", "protection"},
		},
		ResolutionFeedbackResponse: "Mock feedback",
	}
}

func (c *MockClient) JudgeContradiction(ctx context.Context, a, b domain.QA) (string, error) {
	c.JudgeContradictionCalls = append(c.JudgeContradictionCalls, struct{ A, B domain.QA }{a, b})
	if c.JudgeContradictionError != nil {
		return "", c.JudgeContradictionError
	}
	return c.JudgeContradictionResponse, nil
}

func (c *MockClient) ScoreConsistency(ctx context.Context, answers []domain.QA) (int, error) {
	c.ScoreConsistencyCalls = append(c.ScoreConsistencyCalls, answers)
	if c.ScoreConsistencyError != nil {
		return 0, c.ScoreConsistencyError
	}
	return c.ScoreConsistencyResponse, nil
}

func (c *MockClient) AnalyzeAlignment(ctx context.Context, answers []domain.QA, frameworks []domain.Framework) (*domain.AlignmentExtraction, error) {
	c.AnalyzeAlignmentCalls = append(c.AnalyzeAlignmentCalls, answers)
	if c.AnalyzeAlignmentError != nil {
		return nil, c.AnalyzeAlignmentError
	}
	return c.AnalyzeAlignmentResponse, nil
}

func (c *MockClient) AssessStageReadiness(ctx context.Context, stage domain.Stage, answers []domain.QA) (bool, error) {
	c.AssessStageReadinessCalls = append(c.AssessStageReadinessCalls, stage)
	if c.AssessStageReadinessError != nil {
		return false, c.AssessStageReadinessError
	}
	return c.AssessStageReadinessResponse, nil
}

func (c *MockClient) GenerateQuestion(ctx context.Context, stage domain.Stage, existing []string) (*domain.GeneratedQuestion, error) {
	c.GenerateQuestionCalls = append(c.GenerateQuestionCalls, stage)
	if c.GenerateQuestionError != nil {
		return nil, c.GenerateQuestionError
	}
	return c.GenerateQuestionResponse, nil
}

func (c *MockClient) ResolutionFeedback(ctx context.Context, a, b domain.QA, explanation string, resolution domain.Resolution) (string, error) {
	c.ResolutionFeedbackCalls = append(c.ResolutionFeedbackCalls, resolution)
	if c.ResolutionFeedbackError != nil {
		return "", c.ResolutionFeedbackError
	}
	return c.ResolutionFeedbackResponse, nil
}
