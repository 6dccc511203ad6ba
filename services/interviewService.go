package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"interviewer/config"
	"interviewer/db"
	"interviewer/logger"
	"interviewer/models"
	"interviewer/services/interview"
	"interviewer/services/speech"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	// MinAudioBytes is the smallest upload treated as a spoken answer; anything
	// shorter is a greeting ping from the client.
	MinAudioBytes = 1000

	CompletionMessage     = "The interview is complete. Thank you!"
	CodingCompleteMessage = "Coding round complete. Moving to HR."

	DefaultFocusScore = 1.0
)

var (
	ErrEmptyAnswer      = errors.New("answer is required")
	ErrNotInCodingRound = errors.New("no coding round in progress")

	// ErrTurnInProgress means the previous answer is still waiting for its
	// follow-up question.
	ErrTurnInProgress = errors.New("previous answer is still being processed")
)

type InterviewService struct {
	store       *interview.Store
	users       db.UserRepository
	records     db.InterviewRepository
	transcriber speech.Transcriber
	scorer      speech.ConfidenceScorer
	policy      *config.Policy
	deps        interview.Deps
}

func NewInterviewService(
	store *interview.Store,
	users db.UserRepository,
	records db.InterviewRepository,
	transcriber speech.Transcriber,
	scorer speech.ConfidenceScorer,
	policy *config.Policy,
	deps interview.Deps,
) *InterviewService {
	if policy == nil {
		policy = config.DefaultPolicy()
	}
	return &InterviewService{
		store:       store,
		users:       users,
		records:     records,
		transcriber: transcriber,
		scorer:      scorer,
		policy:      policy,
		deps:        deps,
	}
}

// Setup starts a new interview for the candidate, replacing any live one.
func (s *InterviewService) Setup(ctx context.Context, candidateID string, req *models.SetupRequest) (*models.SetupResponse, error) {
	logger.Infof("Starting interview setup for candidate %s", candidateID)

	if err := s.validateSetupRequest(req); err != nil {
		logger.Errorf("Interview setup validation failed: %v", err)
		return nil, err
	}

	kind, err := interview.ParseKind(req.InterviewType)
	if err != nil {
		return nil, err
	}

	rounds, err := s.policy.RoundsForDuration(req.Duration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interview.ErrInvalidConfiguration, err)
	}

	role := strings.TrimSpace(req.Role)
	if kind == interview.KindCoding && !s.policy.RequiresCoding(role) {
		return nil, fmt.Errorf("%w: %s roles do not have coding rounds", interview.ErrInvalidConfiguration, role)
	}

	user, err := s.users.GetUserByClerkID(ctx, candidateID)
	if err != nil {
		logger.Errorf("Failed to load profile for candidate %s: %v", candidateID, err)
		return nil, err
	}
	resume := ResumeText(user)

	var handle interview.Handle
	if kind == interview.KindFull {
		handle, err = interview.NewComposite(role, rounds, resume, s.policy, s.deps)
	} else {
		handle, err = interview.NewSession(kind, role, rounds, resume, s.deps)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}

	sessionID := uuid.NewString()
	s.store.Put(candidateID, sessionID, handle)

	logger.Infof("Successfully created %s interview %s for role %q with %d rounds", kind, sessionID, role, rounds)
	return &models.SetupResponse{SessionID: sessionID, Mode: string(kind), Rounds: rounds}, nil
}

func (s *InterviewService) validateSetupRequest(req *models.SetupRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is required", interview.ErrInvalidConfiguration)
	}
	if strings.TrimSpace(req.Role) == "" {
		return fmt.Errorf("%w: role is required", interview.ErrInvalidConfiguration)
	}
	if strings.TrimSpace(req.InterviewType) == "" {
		return fmt.Errorf("%w: interview_type is required", interview.ErrInvalidConfiguration)
	}
	if req.Duration <= 0 {
		return fmt.Errorf("%w: duration is required", interview.ErrInvalidConfiguration)
	}
	return nil
}

// ResumeText renders the candidate profile as the resume context sessions see.
func ResumeText(user *models.UserProfile) string {
	if user == nil {
		return ""
	}

	lines := []string{
		"Name: " + user.Name,
		"Skills: " + strings.Join(user.Skills, ", "),
		"Projects: " + strings.Join(user.Projects, ", "),
		"Experience: " + strings.Join(user.Experience, ", "),
		"Education: " + strings.Join(user.Education, ", "),
		"Target Companies: " + strings.Join(user.TargetCompanies, ", "),
	}
	return strings.Join(lines, "\n")
}

// SubmitAudio transcribes a spoken answer, scores its confidence and returns
// the next question. Uploads under MinAudioBytes only fetch the current
// question.
func (s *InterviewService) SubmitAudio(ctx context.Context, candidateID string, audio []byte, filename string, focus float64) (*models.TurnResponse, error) {
	if len(audio) < MinAudioBytes {
		logger.Debugf("Received %d bytes of audio from candidate %s, returning current question", len(audio), candidateID)
		entry, unlock, err := s.store.Lock(candidateID)
		if err != nil {
			return nil, err
		}
		defer unlock()
		return &models.TurnResponse{Text: s.currentQuestion(ctx, entry.Handle)}, nil
	}

	if _, err := s.store.Get(candidateID); err != nil {
		return nil, err
	}

	answer, err := s.transcribe(ctx, candidateID, audio, filename)
	if err != nil {
		return nil, err
	}

	confidence := s.scorer.Score(audio)
	logger.Infof("Transcribed %d characters for candidate %s with confidence %.2f", len(answer), candidateID, confidence)

	text, err := s.turn(ctx, candidateID, answer, func(active *interview.Session) {
		active.RecordMetrics(confidence, focus)
	})
	if err != nil {
		return nil, err
	}

	return &models.TurnResponse{Text: text, Answer: answer, Confidence: confidence}, nil
}

func (s *InterviewService) transcribe(ctx context.Context, candidateID string, audio []byte, filename string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	text, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		logger.Errorf("Failed to transcribe audio for candidate %s: %v", candidateID, err)
		return "", fmt.Errorf("failed to transcribe answer: %w", err)
	}
	return text, nil
}

// SubmitAnswer is the typed-answer variant of SubmitAudio. It records no
// vocal metrics.
func (s *InterviewService) SubmitAnswer(ctx context.Context, candidateID, answer string) (*models.TurnResponse, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, ErrEmptyAnswer
	}

	text, err := s.turn(ctx, candidateID, answer, nil)
	if err != nil {
		return nil, err
	}
	return &models.TurnResponse{Text: text, Answer: answer}, nil
}

// turn answers the current question and asks the next one. Before anything
// has been asked it only sends the opening question.
func (s *InterviewService) turn(ctx context.Context, candidateID, answer string, record func(*interview.Session)) (string, error) {
	entry, unlock, err := s.store.Lock(candidateID)
	if err != nil {
		return "", err
	}
	h := entry.Handle

	history := h.History()
	if len(history) == 0 {
		defer unlock()
		return s.greet(ctx, h), nil
	}
	if finished(h, history) {
		unlock()
		return CompletionMessage, nil
	}
	if history[len(history)-1].Answer != nil {
		unlock()
		return "", ErrTurnInProgress
	}

	if record != nil {
		record(interview.ActiveSession(h))
	}
	err = h.ProvideAnswer(answer)
	unlock()
	if err != nil {
		return "", fmt.Errorf("failed to record answer: %w", err)
	}

	// generated outside the turn lock; the session re-validates the round
	question, ok := h.AskQuestion(ctx)
	if !ok {
		logger.Infof("Interview for role %q is complete", h.Role())
		return CompletionMessage, nil
	}
	return question, nil
}

func (s *InterviewService) greet(ctx context.Context, h interview.Handle) string {
	if interview.ActiveSession(h).MarkGreetingSent() {
		logger.Infof("Sending opening question for role %q", h.Role())
	}

	question, ok := h.AskQuestion(ctx)
	if !ok {
		return CompletionMessage
	}
	return question
}

// currentQuestion repeats the question awaiting an answer without consuming
// a round.
func (s *InterviewService) currentQuestion(ctx context.Context, h interview.Handle) string {
	history := h.History()
	if len(history) == 0 {
		return s.greet(ctx, h)
	}
	if finished(h, history) {
		return CompletionMessage
	}
	return history[len(history)-1].Question
}

// finished reports whether the last question has been asked and answered.
func finished(h interview.Handle, history []interview.QA) bool {
	return h.State() == interview.StateComplete && history[len(history)-1].Answer != nil
}

// SubmitCode records a coding solution as the answer to the current problem.
func (s *InterviewService) SubmitCode(ctx context.Context, candidateID, code string) (*models.CodeSubmissionResponse, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrEmptyAnswer
	}

	entry, unlock, err := s.store.Lock(candidateID)
	if err != nil {
		return nil, err
	}
	h := entry.Handle

	if interview.ActiveSession(h).Kind() != interview.KindCoding {
		unlock()
		return nil, ErrNotInCodingRound
	}

	history := h.History()
	if len(history) > 0 && finished(h, history) {
		unlock()
		return &models.CodeSubmissionResponse{Next: false, Message: CompletionMessage}, nil
	}
	if len(history) > 0 && history[len(history)-1].Answer != nil {
		unlock()
		return nil, ErrTurnInProgress
	}

	err = h.ProvideAnswer(code)
	unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to record solution: %w", err)
	}
	logger.Infof("Recorded %d byte solution for candidate %s", len(code), candidateID)

	question, ok := h.AskQuestion(ctx)
	if !ok {
		return &models.CodeSubmissionResponse{Next: false, Message: CompletionMessage}, nil
	}
	if interview.ActiveSession(h).Kind() == interview.KindCoding {
		return &models.CodeSubmissionResponse{Next: true, Problem: question}, nil
	}
	return &models.CodeSubmissionResponse{Next: false, Message: CodingCompleteMessage, Text: question}, nil
}

// CodingProblem returns the coding problem awaiting a solution, asking the
// opening problem if the round has not started.
func (s *InterviewService) CodingProblem(ctx context.Context, candidateID string) (*models.CodingProblemResponse, error) {
	entry, unlock, err := s.store.Lock(candidateID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if interview.ActiveSession(entry.Handle).Kind() != interview.KindCoding {
		return nil, ErrNotInCodingRound
	}
	return &models.CodingProblemResponse{Problem: s.currentQuestion(ctx, entry.Handle)}, nil
}

// ExplainCode transcribes the candidate talking through their code and
// returns the interviewer's spoken reply. It works during and after the
// coding round and never consumes a round.
func (s *InterviewService) ExplainCode(ctx context.Context, candidateID string, audio []byte, filename string) (*models.CodeExplanationResponse, error) {
	entry, err := s.store.Get(candidateID)
	if err != nil {
		return nil, err
	}

	coding, ok := lo.Find(interview.PhaseSessions(entry.Handle), func(sess *interview.Session) bool {
		return sess.Kind() == interview.KindCoding
	})
	if !ok {
		return nil, ErrNotInCodingRound
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAnswer
	}

	text, err := s.transcribe(ctx, candidateID, audio, filename)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyAnswer
	}

	reply, err := coding.ExplainCode(ctx, text)
	if err != nil {
		return nil, err
	}

	logger.Infof("Answered %d character code explanation for candidate %s", len(text), candidateID)
	return &models.CodeExplanationResponse{UserText: text, Response: reply}, nil
}

func (s *InterviewService) History(candidateID string) (*models.HistoryResponse, error) {
	entry, err := s.store.Get(candidateID)
	if err != nil {
		return nil, err
	}
	h := entry.Handle

	return &models.HistoryResponse{
		SessionID: entry.SessionID,
		Phase:     string(interview.ActiveSession(h).Kind()),
		State:     h.State().String(),
		History:   toHistoryEntries(h.History()),
	}, nil
}

// Feedback evaluates every phase that asked questions, persists the result
// once and ends the live interview. A repeated call for a persisted interview
// returns the stored record. Evaluation runs without the turn lock; the save
// re-checks the persisted flag under it.
func (s *InterviewService) Feedback(ctx context.Context, candidateID string) (*models.FeedbackResponse, error) {
	logger.Infof("Starting feedback for candidate %s", candidateID)

	entry, unlock, err := s.store.Lock(candidateID)
	if err != nil {
		return nil, err
	}
	h := entry.Handle

	sessions := lo.Filter(interview.PhaseSessions(h), func(sess *interview.Session, _ int) bool {
		return len(sess.History()) > 0
	})
	// the first phase carries the persisted-once flag for the whole interview
	guard := interview.PhaseSessions(h)[0]
	id, saved := guard.FeedbackSaved()
	unlock()

	if len(sessions) == 0 {
		return nil, fmt.Errorf("%w: nothing has been asked yet", interview.ErrNoActiveQuestion)
	}
	if saved {
		logger.Infof("Feedback for session %s already saved as %s", entry.SessionID, id)
		return s.savedFeedback(ctx, candidateID, id)
	}

	mode := string(interview.ActiveSession(h).Kind())
	feedback := make(map[string]interview.Feedback, len(sessions))
	for _, sess := range sessions {
		feedback[string(sess.Kind())] = sess.GenerateFeedback(ctx)
	}

	var payload any = feedback
	if _, ok := h.(*interview.Composite); ok {
		mode = string(interview.KindFull)
	} else {
		payload = feedback[mode]
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feedback: %w", err)
	}

	all := interview.PhaseSessions(h)
	confidence := average(lo.FlatMap(all, func(sess *interview.Session, _ int) []float64 { return sess.ConfidenceScores() }))
	focus := average(lo.FlatMap(all, func(sess *interview.Session, _ int) []float64 { return sess.FocusScores() }))

	response := &models.FeedbackResponse{
		Feedback:          raw,
		AverageConfidence: confidence,
		AverageFocus:      focus,
		Transcript:        RenderTranscript(lo.FlatMap(sessions, func(sess *interview.Session, _ int) []interview.QA { return sess.History() })),
	}

	if !lo.SomeBy(lo.Values(feedback), func(f interview.Feedback) bool { return f.OK() }) {
		logger.Warnf("No phase of session %s could be evaluated; feedback not saved", entry.SessionID)
		return response, nil
	}

	return s.persistFeedback(ctx, candidateID, entry, guard, mode, response)
}

// persistFeedback saves the evaluated interview unless a concurrent call
// already did, in which case the stored record wins.
func (s *InterviewService) persistFeedback(ctx context.Context, candidateID string, entry interview.Entry, guard *interview.Session, mode string, response *models.FeedbackResponse) (*models.FeedbackResponse, error) {
	locked, unlock, err := s.store.Lock(candidateID)
	if err != nil {
		if id, saved := guard.FeedbackSaved(); saved {
			return s.savedFeedback(ctx, candidateID, id)
		}
		return nil, err
	}
	defer unlock()

	if id, saved := guard.FeedbackSaved(); saved {
		logger.Infof("Feedback for session %s was saved as %s while evaluating", entry.SessionID, id)
		return s.savedFeedback(ctx, candidateID, id)
	}
	if locked.SessionID != entry.SessionID {
		logger.Warnf("Session %s was replaced while evaluating; feedback not saved", entry.SessionID)
		return response, nil
	}

	record := &models.InterviewRecord{
		ID:                uuid.NewString(),
		UserID:            candidateID,
		Role:              entry.Handle.Role(),
		Mode:              mode,
		Transcript:        response.Transcript,
		Feedback:          response.Feedback,
		AverageConfidence: response.AverageConfidence,
		AverageFocus:      response.AverageFocus,
	}
	if err := s.records.SaveInterview(ctx, record); err != nil {
		logger.Errorf("Failed to save interview for candidate %s: %v", candidateID, err)
		return nil, fmt.Errorf("failed to save interview: %w", err)
	}
	guard.MarkFeedbackSaved(record.ID)
	s.store.Delete(candidateID, entry.SessionID)

	response.ID = record.ID
	logger.Infof("Successfully saved %s interview %s for candidate %s", mode, record.ID, candidateID)
	return response, nil
}

func (s *InterviewService) savedFeedback(ctx context.Context, candidateID, id string) (*models.FeedbackResponse, error) {
	record, err := s.records.GetInterviewByID(ctx, candidateID, id)
	if err != nil {
		return nil, err
	}
	return &models.FeedbackResponse{
		ID:                record.ID,
		Feedback:          record.Feedback,
		AverageConfidence: record.AverageConfidence,
		AverageFocus:      record.AverageFocus,
		Transcript:        record.Transcript,
	}, nil
}

func (s *InterviewService) timeout() time.Duration {
	if s.deps.Timeout <= 0 {
		return 30 * time.Second
	}
	return s.deps.Timeout
}

// RenderTranscript renders rounds as "Q: ...\nA: ..." blocks joined by newlines.
func RenderTranscript(history []interview.QA) string {
	return strings.Join(lo.Map(history, func(qa interview.QA, _ int) string {
		answer := ""
		if qa.Answer != nil {
			answer = *qa.Answer
		}
		return fmt.Sprintf("Q: %s\nA: %s", qa.Question, answer)
	}), "\n")
}

func toHistoryEntries(history []interview.QA) []models.HistoryEntry {
	return lo.Map(history, func(qa interview.QA, _ int) models.HistoryEntry {
		return models.HistoryEntry{Question: qa.Question, Answer: qa.Answer}
	})
}

// average is 0 for no samples and rounded to two decimals otherwise.
func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return math.Round(lo.Mean(values)*100) / 100
}
