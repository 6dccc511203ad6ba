package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type stubDecider struct {
	mu        sync.Mutex
	calls     int
	directive Directive
	err       error
	inputs    []DecisionInput
}

func (d *stubDecider) Decide(_ context.Context, in DecisionInput) (Directive, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	d.inputs = append(d.inputs, in)
	if d.err != nil {
		return Directive{}, d.err
	}
	if d.directive.Action == "" {
		return Directive{Action: ActionDeepen}, nil
	}
	return d.directive, nil
}

func (d *stubDecider) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// stubGenerator returns queued outputs in order, then numbered questions.
type stubGenerator struct {
	mu      sync.Mutex
	calls   int
	outputs []string
	err     error
	inputs  []GenerationInput
}

func (g *stubGenerator) Generate(_ context.Context, in GenerationInput) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	g.inputs = append(g.inputs, in)
	if g.err != nil {
		return "", g.err
	}
	if len(g.outputs) > 0 {
		out := g.outputs[0]
		g.outputs = g.outputs[1:]
		return out, nil
	}
	return fmt.Sprintf("Generated %s question %d about caching?", in.Kind, g.calls), nil
}

func (g *stubGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type stubEvaluator struct {
	calls       int
	output      string
	err         error
	transcripts []string
}

func (e *stubEvaluator) Evaluate(_ context.Context, transcript string, _ Rubric) (string, error) {
	e.calls++
	e.transcripts = append(e.transcripts, transcript)
	if e.err != nil {
		return "", e.err
	}
	return e.output, nil
}

type stubReferences struct {
	questions []string
	err       error
	topics    [][]string
}

func (r *stubReferences) RelatedQuestions(_ context.Context, _ Kind, topics []string, limit int) ([]string, error) {
	r.topics = append(r.topics, topics)
	if r.err != nil {
		return nil, r.err
	}
	if len(r.questions) > limit {
		return r.questions[:limit], nil
	}
	return r.questions, nil
}

type stubPolicy map[string]bool

func (p stubPolicy) RequiresCoding(role string) bool {
	excluded, ok := p[role]
	return !ok || !excluded
}

var errCapabilityDown = errors.New("capability down")

const validFeedbackJSON = `{"relevance": 80, "clarity": 70, "depth": 65, "examples": "N/A", "communication": 75, "overall": 72, "summary": "Solid answers with room for more depth."}`

func newStubDeps() (Deps, *stubDecider, *stubGenerator, *stubEvaluator) {
	d := &stubDecider{}
	g := &stubGenerator{}
	e := &stubEvaluator{output: validFeedbackJSON}
	return Deps{Decider: d, Generator: g, Evaluator: e}, d, g, e
}

type stubExplainer struct {
	reply  string
	err    error
	inputs []ExplanationInput
}

func (e *stubExplainer) Explain(_ context.Context, in ExplanationInput) (string, error) {
	e.inputs = append(e.inputs, in)
	if e.err != nil {
		return "", e.err
	}
	return e.reply, nil
}
