package interview

import "errors"

var (
	// ErrSessionNotFound means the candidate has no active interview.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoActiveQuestion means an answer arrived before any question was asked.
	ErrNoActiveQuestion = errors.New("no active question")

	// ErrInvalidConfiguration covers unsupported kinds, round limits and
	// role/kind combinations the policy disallows.
	ErrInvalidConfiguration = errors.New("invalid interview configuration")

	// ErrGenerationUnavailable means the decision or generation capability
	// failed, timed out or produced output that could not be used.
	ErrGenerationUnavailable = errors.New("question generation unavailable")

	// ErrEvaluationUnavailable means feedback scoring failed or could not be parsed.
	ErrEvaluationUnavailable = errors.New("evaluation unavailable")
)
