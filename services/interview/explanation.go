package interview

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"interviewer/logger"
)

// ExplanationTurn is one exchange while the candidate talks through a solution.
type ExplanationTurn struct {
	Candidate   string `json:"candidate"`
	Interviewer string `json:"interviewer"`
}

type ExplanationInput struct {
	Role    string
	Problem string
	// Code is empty when nothing has been submitted yet.
	Code    string
	Turns   []ExplanationTurn
	Message string
}

// Explainer replies to a candidate explaining their code. Optional.
type Explainer interface {
	Explain(ctx context.Context, in ExplanationInput) (string, error)
}

// ExplainCode answers the candidate's explanation of their latest solution.
// The exchange is kept for the next call; no round is consumed.
func (s *Session) ExplainCode(ctx context.Context, message string) (string, error) {
	if s.deps.Explainer == nil {
		return "", fmt.Errorf("%w: no explainer configured", ErrGenerationUnavailable)
	}

	s.mu.Lock()
	in, ok := s.explanationInputLocked(message)
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s session has not asked a problem yet", ErrNoActiveQuestion, s.kind)
	}

	ctx, cancel := context.WithTimeout(ctx, s.deps.timeout())
	defer cancel()

	reply, err := s.deps.Explainer.Explain(ctx, in)
	if err != nil {
		logger.Errorf("Failed to answer code explanation for role %q: %v", s.role, err)
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("%w: empty explanation reply", ErrGenerationUnavailable)
	}

	s.mu.Lock()
	s.explanations = append(s.explanations, ExplanationTurn{Candidate: message, Interviewer: reply})
	s.mu.Unlock()

	return reply, nil
}

// explanationInputLocked pairs the message with the latest submitted
// solution, or the problem on screen if nothing was submitted.
func (s *Session) explanationInputLocked(message string) (ExplanationInput, bool) {
	asked := s.history[:s.askedLocked()]
	if len(asked) == 0 {
		return ExplanationInput{}, false
	}

	in := ExplanationInput{
		Role:    s.role,
		Problem: asked[len(asked)-1].Question,
		Turns:   slices.Clone(s.explanations),
		Message: message,
	}
	for i := len(asked) - 1; i >= 0; i-- {
		if asked[i].Answer != nil {
			in.Problem, in.Code = asked[i].Question, *asked[i].Answer
			break
		}
	}
	return in, true
}

func (s *Session) Explanations() []ExplanationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.explanations)
}
