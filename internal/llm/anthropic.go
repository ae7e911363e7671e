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
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicModel       = "claude-3-5-haiku-20241022"
	anthropicVersion     = "2023-06-01"
	anthropicMaxTokens   = 1024
)

type AnthropicClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *AnthropicClient) complete(ctx context.Context, prompt string, temp float32) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:       anthropicModel,
		MaxTokens:   anthropicMaxTokens,
		Temperature: temp,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicMessagesURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read anthropic response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result anthropicResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal anthropic response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("anthropic API error: %s", result.Error.Message)
	}

	if len(result.Content) == 0 {
		return "", fmt.Errorf("anthropic API returned no content")
	}

	return strings.TrimSpace(result.Content[0].Text), nil
}

func (c *AnthropicClient) JudgeContradiction(ctx context.Context, a, b domain.QA) (string, error) {
	prompt := fmt.Sprintf(judgeContradictionPrompt, a.Question, a.Answer, b.Question, b.Answer)
	result, err := c.complete(ctx, prompt, 0.2)
	if err != nil {
		return "", fmt.Errorf("judge contradiction: %w", err)
	}
	return result, nil
}

func (c *AnthropicClient) ScoreConsistency(ctx context.Context, answers []domain.QA) (int, error) {
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

func (c *AnthropicClient) AnalyzeAlignment(ctx context.Context, answers []domain.QA, frameworks []domain.Framework) (*domain.AlignmentExtraction, error) {
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

func (c *AnthropicClient) AssessStageReadiness(ctx context.Context, stage domain.Stage, answers []domain.QA) (bool, error) {
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

func (c *AnthropicClient) GenerateQuestion(ctx context.Context, stage domain.Stage, existing []string) (*domain.GeneratedQuestion, error) {
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

func (c *AnthropicClient) ResolutionFeedback(ctx context.Context, a, b domain.QA, explanation string, resolution domain.Resolution) (string, error) {
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
