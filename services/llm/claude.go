package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"interviewer/logger"
	"interviewer/services/interview"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const claudeMaxTokens = 1024

// ClaudeProvider serves the interview capabilities through the Anthropic
// Messages API, forcing a specific tool where structured output is needed.
type ClaudeProvider struct {
	client *anthropic.Client
	model  anthropic.Model
}

func NewClaudeProvider(apiKey, model string, opts ...option.RequestOption) *ClaudeProvider {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := anthropic.NewClient(opts...)

	return &ClaudeProvider{
		client: &client,
		model:  anthropic.Model(model),
	}
}

func (p *ClaudeProvider) Decide(ctx context.Context, in interview.DecisionInput) (interview.Directive, error) {
	tool := anthropic.ToolParam{
		Name:        decideToolName,
		Description: anthropic.String("Choose the strategy for the next interview question"),
		InputSchema: generateSchema[DecideNextStepParams](),
	}

	input, err := p.callTool(ctx, decisionSystemPrompt, buildDecisionPrompt(in), tool, 0.2)
	if err != nil {
		return interview.Directive{}, err
	}
	return parseDecision(input)
}

func (p *ClaudeProvider) Generate(ctx context.Context, in interview.GenerationInput) (string, error) {
	return p.complete(ctx, generationSystemPrompt, []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(buildGenerationPrompt(in))),
	}, 0.8)
}

func (p *ClaudeProvider) Explain(ctx context.Context, in interview.ExplanationInput) (string, error) {
	messages := make([]anthropic.MessageParam, 0, 2*len(in.Turns)+1)
	for _, turn := range in.Turns {
		messages = append(messages,
			anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Candidate)),
			anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Interviewer)))
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(in.Message)))

	return p.complete(ctx, buildExplanationSystemPrompt(in), messages, 0.5)
}

// complete returns the concatenated text blocks of a plain reply.
func (p *ClaudeProvider) complete(ctx context.Context, system string, messages []anthropic.MessageParam, temperature float64) (string, error) {
	response, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       p.model,
		MaxTokens:   claudeMaxTokens,
		Temperature: anthropic.Float(temperature),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    messages,
	})
	if err != nil {
		logger.Errorf("Failed to call Anthropic API: %v", err)
		return "", fmt.Errorf("failed to call Anthropic API: %w", err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(b.Text)
		}
	}
	return text.String(), nil
}

func (p *ClaudeProvider) Evaluate(ctx context.Context, transcript string, rubric interview.Rubric) (string, error) {
	tool := anthropic.ToolParam{
		Name:        feedbackToolName,
		Description: anthropic.String("Submit the scored interview feedback"),
		InputSchema: generateSchema[SubmitFeedbackParams](),
	}

	return p.callTool(ctx, buildEvaluationSystemPrompt(rubric), transcript, tool, 0)
}

// callTool forces a single tool call and returns its input as JSON.
func (p *ClaudeProvider) callTool(ctx context.Context, system, prompt string, tool anthropic.ToolParam, temperature float64) (string, error) {
	response, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       p.model,
		MaxTokens:   claudeMaxTokens,
		Temperature: anthropic.Float(temperature),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Tools:      []anthropic.ToolUnionParam{{OfTool: &tool}},
		ToolChoice: anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: tool.Name}},
	})
	if err != nil {
		logger.Errorf("Failed to call Anthropic API for %s: %v", tool.Name, err)
		return "", fmt.Errorf("failed to call Anthropic API: %w", err)
	}

	for _, block := range response.Content {
		toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok || toolUse.Name != tool.Name {
			continue
		}
		input, err := json.Marshal(toolUse.Input)
		if err != nil {
			return "", fmt.Errorf("failed to marshal %s input: %w", tool.Name, err)
		}
		return string(input), nil
	}

	logger.Warnf("Anthropic response stopped with %s and no %s call", response.StopReason, tool.Name)
	return "", fmt.Errorf("no %s tool call in Anthropic response", tool.Name)
}
