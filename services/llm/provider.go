package llm

import (
	"fmt"

	"interviewer/config"
	"interviewer/services/interview"
)

// Provider is a model backend that can serve every interview capability.
type Provider interface {
	interview.Decider
	interview.Generator
	interview.Evaluator
	interview.Explainer
}

var (
	_ Provider = (*LangChainProvider)(nil)
	_ Provider = (*ClaudeProvider)(nil)
)

// NewFromConfig picks the backend named by LLM_PROVIDER.
func NewFromConfig(cfg *config.Config) (Provider, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		provider, err := NewLangChainProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		return provider, nil
	case config.ProviderAnthropic:
		return NewClaudeProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	}
	return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
}
