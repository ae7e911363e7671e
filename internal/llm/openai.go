package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ethoslabs/ethos/internal/domain"
)

const (
	openAIChatURL = "https://api.openai.com/v1/chat/completions"
	chatModel     = "gpt-4o-mini"
)

type OpenAIClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// chat types for OpenAI API
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string, temp float32) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       chatModel,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temp,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIChatURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal chat response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("chat API error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) JudgeContradiction(ctx context.Context, a, b domain.QA) (string, error) {
	prompt := fmt.Sprintf(judgeContradictionPrompt, a.Question, a.Answer, b.Question, b.Answer)
	result, err := c.complete(ctx, prompt, 0.2)
	if err != nil {
		return "", fmt.Errorf("judge contradiction: %w", err)
	}
	return result, nil
}

func (c *OpenAIClient) ScoreConsistency(ctx context.Context, answers []domain.QA) (int, error) {
	result, err := c.complete(ctx, fmt.Sprintf(consistencyScorePrompt, renderQAs(answers)), 0.2)
	if err != nil {
		return 0, fmt.Errorf("score consistency: %w", err)
	}

	score, err := parseScore(result)
	if err != nil {
		return 0, fmt.Errorf("parse consistency score: %w", err)
	}
	return score, nil
}

func (c *OpenAIClient) AnalyzeAlignment(ctx context.Context, answers []domain.QA, frameworks []domain.Framework) (*domain.AlignmentExtraction, error) {
	prompt := fmt.Sprintf(alignmentPrompt, renderFrameworks(frameworks), renderQAs(answers))
	result, err := c.complete(ctx, prompt, 0.3)
	if err != nil {
		return nil, fmt.Errorf("analyze alignment: %w", err)
	}

	result = stripFences(result)

	var extraction domain.AlignmentExtraction
	if err := json.Unmarshal([]byte(result), &extraction); err != nil {
		return nil, fmt.Errorf("parse alignment result: %w (raw: %s)", err, result)
	}
	if err := validateAlignment(extraction.Alignment); err != nil {
		return nil, fmt.Errorf("invalid alignment result: %w", err)
	}

	return &extraction, nil
}

func (c *OpenAIClient) AssessStageReadiness(ctx context.Context, stage domain.Stage, answers []domain.QA) (bool, error) {
	prompt := fmt.Sprintf(stageReadinessPrompt, stage.Name, stage.Description, stage.Reasoning, renderQAs(answers))
	result, err := c.complete(ctx, prompt, 0.2)
	if err != nil {
		return false, fmt.Errorf("assess stage readiness: %w", err)
	}

	ready, err := parseYesNo(result)
	if err != nil {
		return false, fmt.Errorf("parse readiness verdict: %w", err)
	}
	return ready, nil
}

func (c *OpenAIClient) GenerateQuestion(ctx context.Context, stage domain.Stage, existing []string) (*domain.GeneratedQuestion, error) {
	prompt := fmt.Sprintf(generateQuestionPrompt, stage.Name, stage.Description,
		strings.Join(stage.ExamplePrompts, "\n"), strings.Join(existing, "\n"))
	result, err := c.complete(ctx, prompt, 0.7)
	if err != nil {
		return nil, fmt.Errorf("generate question: %w", err)
	}

	result = stripFences(result)

	var generated domain.GeneratedQuestion
	if err := json.Unmarshal([]byte(result), &generated); err != nil {
		return nil, fmt.Errorf("parse generated question: %w (raw: %s)", err, result)
	}
	if strings.TrimSpace(generated.Text) == "" {
		return nil, fmt.Errorf("generated question has no text (raw: %s)", result)
	}

	return &generated, nil
}

func (c *OpenAIClient) ResolutionFeedback(ctx context.Context, a, b domain.QA, explanation string, resolution domain.Resolution) (string, error) {
	prompt := fmt.Sprintf(resolutionFeedbackPrompt,
		a.Question, a.Answer,
		b.Question, b.Answer,
		explanation,
		resolution.NewAnswerText, resolution.Explanation)
	result, err := c.complete(ctx, prompt, 0.7)
	if err != nil {
		return "", fmt.Errorf("resolution feedback: %w", err)
	}
	return result, nil
}
