package llm

import (
	"fmt"
	"strings"

	"github.com/ethoslabs/ethos/internal/domain"
)

// Provider constants
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// NewClient creates an inference client based on the provider name.
// Returns an error if the provider is unknown or the API key is empty (except for mock).
func NewClient(provider, apiKey string) (domain.LLMClient, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIClient(apiKey), nil

	case ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for Anthropic provider")
		}
		return NewAnthropicClient(apiKey), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: openai, anthropic, mock)", provider)
	}
}

// renderQAs formats question/answer pairs for prompt interpolation.
func renderQAs(answers []domain.QA) string {
	var sb strings.Builder
	for i, qa := range answers {
		sb.WriteString(fmt.Sprintf("%d. Q: %s\n   A: %s\n", i+1, qa.Question, qa.Answer))
	}
	return sb.String()
}

// renderFrameworks formats frameworks for prompt interpolation.
func renderFrameworks(frameworks []domain.Framework) string {
	var sb strings.Builder
	for _, f := range frameworks {
		sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", f.Key, f.Name, f.Description))
	}
	return sb.String()
}
