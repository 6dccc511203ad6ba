package models

import (
	"encoding/json"
	"time"
)

// InterviewRecord is a persisted, finished interview.
type InterviewRecord struct {
	ID                string          `json:"id" db:"id"`
	UserID            string          `json:"user_id" db:"user_id"`
	Role              string          `json:"role" db:"role"`
	Mode              string          `json:"mode" db:"mode"`
	Transcript        string          `json:"transcript" db:"transcript"`
	Feedback          json.RawMessage `json:"feedback" db:"feedback"`
	AverageConfidence float64         `json:"average_confidence" db:"average_confidence"`
	AverageFocus      float64         `json:"average_focus" db:"average_focus"`
	CreatedAt         time.Time       `json:"date" db:"created_at"`
}

// InterviewSummary is the list view of a record.
type InterviewSummary struct {
	ID                string    `json:"id"`
	Role              string    `json:"role"`
	Mode              string    `json:"mode"`
	AverageConfidence float64   `json:"average_confidence"`
	AverageFocus      float64   `json:"average_focus"`
	CreatedAt         time.Time `json:"date"`
}

type SetupRequest struct {
	Role          string `json:"role"`
	InterviewType string `json:"interview_type"`
	Duration      int    `json:"duration"`
}

type SetupResponse struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	Rounds    int    `json:"rounds"`
}

type AnswerRequest struct {
	Answer string `json:"answer"`
}

// TurnResponse is returned for every answered or greeting turn.
type TurnResponse struct {
	Text       string  `json:"text"`
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

type CodeSubmission struct {
	Code string `json:"code"`
}

type CodeSubmissionResponse struct {
	Next    bool   `json:"next"`
	Problem string `json:"problem,omitempty"`
	Message string `json:"message,omitempty"`
	Text    string `json:"text,omitempty"`
}

type CodingProblemResponse struct {
	Problem string `json:"problem"`
}

// CodeExplanationResponse pairs the transcribed explanation with the
// interviewer's reply.
type CodeExplanationResponse struct {
	UserText string `json:"user_text"`
	Response string `json:"response"`
}

type HistoryEntry struct {
	Question string  `json:"question"`
	Answer   *string `json:"answer"`
}

type HistoryResponse struct {
	SessionID string         `json:"session_id"`
	Phase     string         `json:"phase"`
	State     string         `json:"state"`
	History   []HistoryEntry `json:"history"`
}

type FeedbackResponse struct {
	ID                string          `json:"id"`
	Feedback          json.RawMessage `json:"feedback"`
	AverageConfidence float64         `json:"average_confidence"`
	AverageFocus      float64         `json:"average_focus"`
	Transcript        string          `json:"transcript"`
}
