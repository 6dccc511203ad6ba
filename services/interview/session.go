package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"interviewer/logger"
)

const resumeExcerptLimit = 1500

// Session is one single-kind interview: a seeded opening question followed
// by model-generated rounds until the round limit is reached.
type Session struct {
	kind        Kind
	role        string
	roundsLimit int
	resume      string
	profile     profile
	memory      *Memory
	decision    *DecisionStage
	generation  *GenerationStage
	evaluator   Evaluator
	deps        Deps
	topicWindow int

	mu               sync.Mutex
	round            int
	history          []QA
	greetingSent     bool
	feedbackSaved    bool
	feedbackID       string
	confidenceScores []float64
	focusScores      []float64
	explanations     []ExplanationTurn
}

func NewSession(kind Kind, role string, rounds int, resume string, deps Deps) (*Session, error) {
	p, ok := profileFor(kind)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported session kind %q", ErrInvalidConfiguration, kind)
	}

	if rounds < 1 {
		return nil, fmt.Errorf("%w: rounds must be at least 1, got %d", ErrInvalidConfiguration, rounds)
	}

	if err := deps.validate(); err != nil {
		return nil, err
	}

	return &Session{
		kind:        kind,
		role:        role,
		roundsLimit: rounds,
		resume:      resume,
		profile:     p,
		memory:      NewMemory(),
		decision:    NewDecisionStage(deps),
		generation:  NewGenerationStage(deps),
		evaluator:   deps.Evaluator,
		deps:        deps,
		topicWindow: defaultTopicWindow,
		history:     []QA{{Question: p.opening}},
	}, nil
}

func (s *Session) handle() {}

func (s *Session) Kind() Kind         { return s.kind }
func (s *Session) Role() string       { return s.role }
func (s *Session) RoundsLimit() int   { return s.roundsLimit }
func (s *Session) Memory() *Memory    { return s.memory }
func (s *Session) Opening() string    { return s.profile.opening }
func (s *Session) PhaseIntro() string { return s.profile.intro }

func (s *Session) Round() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	switch {
	case s.round >= s.roundsLimit:
		return StateComplete
	case s.round == 0:
		return StateNotStarted
	}
	return StateInProgress
}

// AskQuestion returns the next question, or false once the round limit is
// reached. Capability failures degrade to a fallback question; they are never
// returned to the caller.
func (s *Session) AskQuestion(ctx context.Context) (string, bool) {
	s.mu.Lock()
	if s.round >= s.roundsLimit {
		s.mu.Unlock()
		return "", false
	}

	if s.round == 0 {
		s.round++
		question := s.history[0].Question
		s.mu.Unlock()
		return question, true
	}

	round := s.round
	in := s.decisionInputLocked()
	s.mu.Unlock()

	// capability calls run without the lock
	question := s.nextQuestion(ctx, in, round)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round != round {
		// another caller committed this round first; keep its question
		logger.Warnf("Dropping stale %s question for round %d, session is at round %d", s.kind, round, s.round)
		return s.history[len(s.history)-1].Question, true
	}
	if s.round >= s.roundsLimit {
		return "", false
	}

	s.history = append(s.history, QA{Question: question})
	s.round++
	return question, true
}

func (s *Session) decisionInputLocked() DecisionInput {
	last := s.history[len(s.history)-1]
	answer := ""
	if last.Answer != nil {
		answer = *last.Answer
	}

	return DecisionInput{
		Kind:          s.kind,
		Role:          s.role,
		PrevQuestion:  last.Question,
		PrevAnswer:    answer,
		ResumeExcerpt: truncateRunes(s.resume, resumeExcerptLimit),
		RecentTopics:  RecentTopics(s.history, s.topicWindow),
	}
}

func (s *Session) nextQuestion(ctx context.Context, in DecisionInput, round int) string {
	directive, err := s.decision.Decide(ctx, in)
	if err == nil {
		var question string
		question, err = s.generation.Generate(ctx, GenerationInput{DecisionInput: in, Directive: directive})
		if err == nil {
			return question
		}
	}

	if !errors.Is(err, ErrGenerationUnavailable) {
		err = fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	logger.Warnf("Using fallback %s question for round %d: %v", s.kind, round+1, err)
	return s.profile.fallbackFor(round, in.PrevQuestion)
}

// ProvideAnswer attaches answer to the most recently asked question. Repeated
// calls overwrite that answer.
func (s *Session) ProvideAnswer(answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round == 0 {
		return fmt.Errorf("%w: %s session has not asked a question yet", ErrNoActiveQuestion, s.kind)
	}

	last := &s.history[len(s.history)-1]
	a := answer
	last.Answer = &a
	s.memory.AddQA(last.Question, answer)
	return nil
}

// History returns a copy of the asked questions and their answers.
func (s *Session) History() []QA {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneHistory(s.history[:s.askedLocked()])
}

// askedLocked is the number of history entries the candidate has seen; the
// seeded entry exists before it is asked.
func (s *Session) askedLocked() int {
	if s.round == 0 {
		return 0
	}
	return len(s.history)
}

func (s *Session) RecordMetrics(confidence, focus float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.confidenceScores = append(s.confidenceScores, confidence)
	s.focusScores = append(s.focusScores, focus)
}

func (s *Session) ConfidenceScores() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.confidenceScores...)
}

func (s *Session) FocusScores() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.focusScores...)
}

// MarkGreetingSent reports true only for the call that set the flag.
func (s *Session) MarkGreetingSent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.greetingSent {
		return false
	}
	s.greetingSent = true
	return true
}

func (s *Session) FeedbackSaved() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedbackID, s.feedbackSaved
}

// MarkFeedbackSaved records the persisted id. Only the first call has effect.
func (s *Session) MarkFeedbackSaved(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.feedbackSaved {
		return false
	}
	s.feedbackSaved = true
	s.feedbackID = id
	return true
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
