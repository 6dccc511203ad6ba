package interview

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindTechnical  Kind = "technical"
	KindCoding     Kind = "coding"
	KindBehavioral Kind = "behavioral"
	KindFull       Kind = "full"
)

// ParseKind accepts the interview_type values used by the setup endpoint.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindTechnical, "tech":
		return KindTechnical, nil
	case KindCoding, "code":
		return KindCoding, nil
	case KindBehavioral, "hr":
		return KindBehavioral, nil
	case KindFull:
		return KindFull, nil
	}
	return "", fmt.Errorf("%w: unsupported interview type %q", ErrInvalidConfiguration, s)
}

type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

// QA is one round of the transcript. Answer stays nil until the candidate replies.
type QA struct {
	Question string  `json:"question"`
	Answer   *string `json:"answer"`
}

type DecisionInput struct {
	Kind          Kind
	Role          string
	PrevQuestion  string
	PrevAnswer    string
	ResumeExcerpt string
	RecentTopics  []string
}

type GenerationInput struct {
	DecisionInput
	Directive Directive
	// PivotHint is set on the single regeneration after a repeated question.
	PivotHint  string
	References []string
}

type Decider interface {
	Decide(ctx context.Context, in DecisionInput) (Directive, error)
}

type Generator interface {
	Generate(ctx context.Context, in GenerationInput) (string, error)
}

// Evaluator returns the raw scoring output; the session parses it.
type Evaluator interface {
	Evaluate(ctx context.Context, transcript string, rubric Rubric) (string, error)
}

// ReferenceSource supplies example questions for the generator. Optional.
type ReferenceSource interface {
	RelatedQuestions(ctx context.Context, kind Kind, topics []string, limit int) ([]string, error)
}

// Deps carries the capabilities shared by every session a factory creates.
type Deps struct {
	Decider    Decider
	Generator  Generator
	Evaluator  Evaluator
	References ReferenceSource
	Explainer  Explainer
	Timeout    time.Duration
}

const defaultCapabilityTimeout = 30 * time.Second

func (d Deps) validate() error {
	if d.Decider == nil || d.Generator == nil || d.Evaluator == nil {
		return fmt.Errorf("%w: decider, generator and evaluator are required", ErrInvalidConfiguration)
	}
	return nil
}

func (d Deps) timeout() time.Duration {
	if d.Timeout <= 0 {
		return defaultCapabilityTimeout
	}
	return d.Timeout
}

type RubricDimension struct {
	Name        string
	Description string
}

type Rubric []RubricDimension

// DefaultRubric is the fixed scoring contract; field names are relied on by clients.
var DefaultRubric = Rubric{
	{Name: "relevance", Description: "Relevance to the questions"},
	{Name: "clarity", Description: "Clarity of explanation"},
	{Name: "depth", Description: "Depth of knowledge"},
	{Name: "examples", Description: "Use of real-world examples"},
	{Name: "communication", Description: "Communication and confidence"},
	{Name: "overall", Description: "Overall score"},
}

type Feedback struct {
	Relevance     int    `json:"relevance"`
	Clarity       int    `json:"clarity"`
	Depth         int    `json:"depth"`
	Examples      int    `json:"examples"`
	Communication int    `json:"communication"`
	Overall       int    `json:"overall"`
	Summary       string `json:"summary"`
	Error         string `json:"error,omitempty"`
}

func (f Feedback) OK() bool {
	return f.Error == ""
}
