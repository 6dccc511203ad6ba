package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"interviewer/services/interview"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClaudeTestServer(t *testing.T, content string, requests *[]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var req map[string]any
		assert.NoError(t, json.Unmarshal(body, &req))
		*requests = append(*requests, req)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test","stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":5},"content":`+content+`}`)
	}))
}

func newTestClaude(url string) *ClaudeProvider {
	return NewClaudeProvider("test-key", "claude-test", option.WithBaseURL(url), option.WithMaxRetries(0))
}

func TestClaudeDecide(t *testing.T) {
	var requests []map[string]any
	server := newClaudeTestServer(t, `[{"type":"tool_use","id":"tu_1","name":"decide_next_step","input":{"action":"change topic","target":"observability"}}]`, &requests)
	defer server.Close()

	directive, err := newTestClaude(server.URL).Decide(context.Background(), interview.DecisionInput{Kind: interview.KindTechnical})
	require.NoError(t, err)
	assert.Equal(t, interview.Action("change topic"), directive.Action)
	assert.Equal(t, "observability", directive.Target)

	require.Len(t, requests, 1)
	choice := requests[0]["tool_choice"].(map[string]any)
	assert.Equal(t, "tool", choice["type"])
	assert.Equal(t, decideToolName, choice["name"])
}

func TestClaudeGenerate(t *testing.T) {
	var requests []map[string]any
	server := newClaudeTestServer(t, `[{"type":"text","text":"How would you scale "},{"type":"text","text":"the write path?"}]`, &requests)
	defer server.Close()

	question, err := newTestClaude(server.URL).Generate(context.Background(), interview.GenerationInput{
		Directive: interview.Directive{Action: interview.ActionDeepen},
	})
	require.NoError(t, err)
	assert.Equal(t, "How would you scale the write path?", question)
	assert.Nil(t, requests[0]["tools"])
}

func TestClaudeEvaluateWithoutToolCall(t *testing.T) {
	var requests []map[string]any
	server := newClaudeTestServer(t, `[{"type":"text","text":"I cannot score this."}]`, &requests)
	defer server.Close()

	_, err := newTestClaude(server.URL).Evaluate(context.Background(), "Q1 : hi\nA1 : hello\n\n", interview.DefaultRubric)
	assert.Error(t, err)
}

func TestClaudeEvaluate(t *testing.T) {
	var requests []map[string]any
	server := newClaudeTestServer(t, `[{"type":"tool_use","id":"tu_1","name":"submit_feedback","input":{"relevance":90,"clarity":80,"depth":70,"examples":60,"communication":85,"overall":77,"summary":"Strong."}}]`, &requests)
	defer server.Close()

	raw, err := newTestClaude(server.URL).Evaluate(context.Background(), "Q1 : hi\nA1 : hello\n\n", interview.DefaultRubric)
	require.NoError(t, err)

	fb, err := interview.ParseFeedback(raw)
	require.NoError(t, err)
	assert.Equal(t, 77, fb.Overall)
	assert.Equal(t, "Strong.", fb.Summary)
}

func TestClaudeExplain(t *testing.T) {
	var requests []map[string]any
	server := newClaudeTestServer(t, `[{"type":"text","text":"Good call on the map."}]`, &requests)
	defer server.Close()

	reply, err := newTestClaude(server.URL).Explain(context.Background(), interview.ExplanationInput{
		Problem: "Find the first unique character.",
		Code:    "func f(s string) int { return -1 }",
		Turns:   []interview.ExplanationTurn{{Candidate: "I count first", Interviewer: "Why count first?"}},
		Message: "Counting keeps it linear",
	})
	require.NoError(t, err)
	assert.Equal(t, "Good call on the map.", reply)

	require.Len(t, requests, 1)
	messages := requests[0]["messages"].([]any)
	require.Len(t, messages, 3)
	roles := make([]string, 0, len(messages))
	for _, m := range messages {
		roles = append(roles, m.(map[string]any)["role"].(string))
	}
	assert.Equal(t, []string{"user", "assistant", "user"}, roles)

	system := requests[0]["system"].([]any)[0].(map[string]any)["text"].(string)
	assert.Contains(t, system, "Code:\nfunc f(s string) int { return -1 }")
}
