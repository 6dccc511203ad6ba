package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"interviewer/logger"
)

var (
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	quotedNAPattern   = regexp.MustCompile(`(?i)"\s*n/a\s*"`)
	bareNAPattern     = regexp.MustCompile(`(?i)(:\s*)n/a(\s*[,}])`)
)

// Transcript renders the asked rounds for the evaluator.
func (s *Session) Transcript() string {
	var b strings.Builder
	for i, qa := range s.History() {
		answer := "(no answer)"
		if qa.Answer != nil {
			answer = *qa.Answer
		}
		fmt.Fprintf(&b, "Q%d : %s\nA%d : %s\n\n", i+1, qa.Question, i+1, answer)
	}
	return b.String()
}

// GenerateFeedback scores the transcript against DefaultRubric. Failures are
// reported in Feedback.Error so the caller can still show the transcript.
// Calling it again re-evaluates; it persists nothing.
func (s *Session) GenerateFeedback(ctx context.Context) Feedback {
	logger.Infof("Starting %s feedback generation for role %q", s.kind, s.role)

	ctx, cancel := context.WithTimeout(ctx, s.deps.timeout())
	defer cancel()

	raw, err := s.evaluator.Evaluate(ctx, s.Transcript(), DefaultRubric)
	if err != nil {
		logger.Errorf("Failed to evaluate %s interview: %v", s.kind, err)
		return Feedback{Error: fmt.Errorf("%w: %v", ErrEvaluationUnavailable, err).Error()}
	}

	feedback, err := ParseFeedback(raw)
	if err != nil {
		logger.Errorf("Failed to parse %s feedback: %v", s.kind, err)
		return Feedback{Error: fmt.Sprintf("Could not parse feedback: %v", err)}
	}

	logger.Infof("Successfully generated %s feedback with overall score %d", s.kind, feedback.Overall)
	return feedback
}

// ParseFeedback extracts the first JSON object from evaluator output and
// validates it against the rubric. Scores are clamped to 0-100.
func ParseFeedback(raw string) (Feedback, error) {
	match := jsonObjectPattern.FindString(raw)
	if match == "" {
		return Feedback{}, fmt.Errorf("%w: no JSON object in evaluator output", ErrEvaluationUnavailable)
	}
	// quoted first, so "N/A" does not become the string "null"
	match = quotedNAPattern.ReplaceAllString(match, "null")
	match = bareNAPattern.ReplaceAllString(match, "${1}null${2}")

	var fields map[string]any
	if err := json.Unmarshal([]byte(match), &fields); err != nil {
		return Feedback{}, fmt.Errorf("%w: %v", ErrEvaluationUnavailable, err)
	}

	scores := make(map[string]int, len(DefaultRubric))
	for _, dim := range DefaultRubric {
		v, ok := fields[dim.Name]
		if !ok {
			return Feedback{}, fmt.Errorf("%w: missing %q score", ErrEvaluationUnavailable, dim.Name)
		}
		score, err := toScore(v)
		if err != nil {
			return Feedback{}, fmt.Errorf("%w: %s: %v", ErrEvaluationUnavailable, dim.Name, err)
		}
		scores[dim.Name] = score
	}

	summary, _ := fields["summary"].(string)
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return Feedback{}, fmt.Errorf("%w: missing summary", ErrEvaluationUnavailable)
	}

	return Feedback{
		Relevance:     scores["relevance"],
		Clarity:       scores["clarity"],
		Depth:         scores["depth"],
		Examples:      scores["examples"],
		Communication: scores["communication"],
		Overall:       scores["overall"],
		Summary:       summary,
	}, nil
}

func toScore(v any) (int, error) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		f = n
	case string:
		trimmed := strings.TrimSpace(n)
		switch strings.ToLower(trimmed) {
		case "", "null", "n/a":
			return 0, nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}

	if math.IsNaN(f) {
		return 0, fmt.Errorf("not a number")
	}
	return int(math.Round(math.Max(0, math.Min(100, f)))), nil
}
