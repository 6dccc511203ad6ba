package llm

import (
	"context"
	"fmt"

	"interviewer/logger"
	"interviewer/services/interview"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainProvider serves the interview capabilities through a
// langchaingo model, using forced tool calls where structured output is needed.
type LangChainProvider struct {
	llm llms.Model
}

func NewLangChainProvider(apiKey, model string) (*LangChainProvider, error) {
	llm, err := openai.New(
		openai.WithModel(model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return &LangChainProvider{llm: llm}, nil
}

// NewLangChainProviderWithModel wraps an existing model.
func NewLangChainProviderWithModel(model llms.Model) *LangChainProvider {
	return &LangChainProvider{llm: model}
}

func (p *LangChainProvider) Decide(ctx context.Context, in interview.DecisionInput) (interview.Directive, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, decisionSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, buildDecisionPrompt(in)),
	}

	logger.Debugf("Calling LLM for %s decision", in.Kind)
	toolCall, err := p.callTool(ctx, messages, decideTool, 0.2)
	if err != nil {
		return interview.Directive{}, err
	}

	return parseDecision(toolCall.Arguments)
}

func (p *LangChainProvider) Generate(ctx context.Context, in interview.GenerationInput) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, generationSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, buildGenerationPrompt(in)),
	}

	logger.Debugf("Calling LLM for %s question (%s)", in.Kind, in.Directive)
	resp, err := p.llm.GenerateContent(ctx, messages, llms.WithTemperature(0.8))
	if err != nil {
		return "", fmt.Errorf("failed to generate question: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM question response")
	}
	return resp.Choices[0].Content, nil
}

// Evaluate returns the submit_feedback arguments as raw JSON.
func (p *LangChainProvider) Evaluate(ctx context.Context, transcript string, rubric interview.Rubric) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, buildEvaluationSystemPrompt(rubric)),
		llms.TextParts(llms.ChatMessageTypeHuman, transcript),
	}

	logger.Debugf("Calling LLM for feedback on %d byte transcript", len(transcript))
	toolCall, err := p.callTool(ctx, messages, feedbackTool(rubric), 0)
	if err != nil {
		return "", err
	}
	return toolCall.Arguments, nil
}

// Explain replays the explanation so far as alternating human and AI turns.
func (p *LangChainProvider) Explain(ctx context.Context, in interview.ExplanationInput) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, buildExplanationSystemPrompt(in)),
	}
	for _, turn := range in.Turns {
		messages = append(messages,
			llms.TextParts(llms.ChatMessageTypeHuman, turn.Candidate),
			llms.TextParts(llms.ChatMessageTypeAI, turn.Interviewer))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, in.Message))

	logger.Debugf("Calling LLM for code explanation with %d earlier turns", len(in.Turns))
	resp, err := p.llm.GenerateContent(ctx, messages, llms.WithTemperature(0.5))
	if err != nil {
		return "", fmt.Errorf("failed to answer code explanation: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM explanation response")
	}
	return resp.Choices[0].Content, nil
}

func (p *LangChainProvider) callTool(ctx context.Context, messages []llms.MessageContent, tool llms.Tool, temperature float64) (*llms.FunctionCall, error) {
	name := tool.Function.Name

	resp, err := p.llm.GenerateContent(ctx, messages,
		llms.WithTools([]llms.Tool{tool}),
		llms.WithTemperature(temperature),
		llms.WithToolChoice("required"))
	if err != nil {
		logger.Errorf("Failed to call %s: %v", name, err)
		return nil, fmt.Errorf("failed to call %s: %w", name, err)
	}

	if len(resp.Choices) == 0 || len(resp.Choices[0].ToolCalls) == 0 {
		return nil, fmt.Errorf("no tool calls in LLM %s response", name)
	}

	toolCall := resp.Choices[0].ToolCalls[0]
	if toolCall.FunctionCall == nil || toolCall.FunctionCall.Name != name {
		return nil, fmt.Errorf("unexpected tool call in LLM %s response", name)
	}
	return toolCall.FunctionCall, nil
}
