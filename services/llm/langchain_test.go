package llm

import (
	"context"
	"errors"
	"testing"

	"interviewer/services/interview"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
	options  llms.CallOptions
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	m.options = llms.CallOptions{}
	for _, opt := range options {
		opt(&m.options)
	}
	return m.resp, m.err
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func toolResponse(name, arguments string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{{
				ID:           "call_1",
				Type:         "function",
				FunctionCall: &llms.FunctionCall{Name: name, Arguments: arguments},
			}},
		}},
	}
}

func TestLangChainDecide(t *testing.T) {
	model := &fakeModel{resp: toolResponse(decideToolName, `{"action":"probe_resume","target":"payments gateway","reason":"not covered yet"}`)}
	provider := NewLangChainProviderWithModel(model)

	directive, err := provider.Decide(context.Background(), interview.DecisionInput{
		Kind:         interview.KindTechnical,
		Role:         "backend developer",
		PrevQuestion: "What did you build?",
	})
	require.NoError(t, err)
	assert.Equal(t, interview.Directive{Action: interview.ActionProbeResume, Target: "payments gateway", Reason: "not covered yet"}, directive)

	require.Len(t, model.options.Tools, 1)
	assert.Equal(t, decideToolName, model.options.Tools[0].Function.Name)
	assert.Equal(t, "required", model.options.ToolChoice)
	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
}

func TestLangChainDecideFailures(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{name: "model error", model: &fakeModel{err: errors.New("rate limited")}},
		{name: "no tool call", model: &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "deepen"}}}}},
		{name: "wrong tool", model: &fakeModel{resp: toolResponse("something_else", `{}`)}},
		{name: "bad arguments", model: &fakeModel{resp: toolResponse(decideToolName, `{"action":`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLangChainProviderWithModel(tt.model).Decide(context.Background(), interview.DecisionInput{})
			assert.Error(t, err)
		})
	}
}

func TestLangChainGenerate(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "How did you shard the database?"}}}}

	question, err := NewLangChainProviderWithModel(model).Generate(context.Background(), interview.GenerationInput{
		DecisionInput: interview.DecisionInput{Kind: interview.KindTechnical},
		Directive:     interview.Directive{Action: interview.ActionDeepen},
	})
	require.NoError(t, err)
	assert.Equal(t, "How did you shard the database?", question)
	assert.Empty(t, model.options.Tools)

	model.resp = &llms.ContentResponse{}
	_, err = NewLangChainProviderWithModel(model).Generate(context.Background(), interview.GenerationInput{})
	assert.Error(t, err)
}

func TestLangChainEvaluate(t *testing.T) {
	args := `{"relevance":80,"clarity":70,"depth":60,"examples":50,"communication":75,"overall":68,"summary":"Good."}`
	model := &fakeModel{resp: toolResponse(feedbackToolName, args)}

	raw, err := NewLangChainProviderWithModel(model).Evaluate(context.Background(), "Q1 : hi\nA1 : hello\n\n", interview.DefaultRubric)
	require.NoError(t, err)
	assert.Equal(t, args, raw)

	fb, err := interview.ParseFeedback(raw)
	require.NoError(t, err)
	assert.Equal(t, 68, fb.Overall)

	require.Len(t, model.options.Tools, 1)
	params := model.options.Tools[0].Function.Parameters.(map[string]any)
	assert.ElementsMatch(t,
		[]string{"summary", "relevance", "clarity", "depth", "examples", "communication", "overall"},
		params["required"])
}

func TestLangChainExplain(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "Nice. What is the space cost?"}}}}

	reply, err := NewLangChainProviderWithModel(model).Explain(context.Background(), interview.ExplanationInput{
		Problem: "Find the first unique character.",
		Code:    "func f(s string) int { return -1 }",
		Turns:   []interview.ExplanationTurn{{Candidate: "I count first", Interviewer: "Why count first?"}},
		Message: "Counting keeps it linear",
	})
	require.NoError(t, err)
	assert.Equal(t, "Nice. What is the space cost?", reply)

	require.Len(t, model.messages, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, model.messages[2].Role)
	assert.Equal(t, llms.TextParts(llms.ChatMessageTypeHuman, "Counting keeps it linear"), model.messages[3])
	assert.Empty(t, model.options.Tools)

	model.err = errors.New("rate limited")
	_, err = NewLangChainProviderWithModel(model).Explain(context.Background(), interview.ExplanationInput{})
	assert.Error(t, err)
}
