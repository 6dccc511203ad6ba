package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"interviewer/logger"
	"interviewer/models"
	"interviewer/services"

	"github.com/gorilla/mux"
)

const maxAudioBytes = 25 << 20

type InterviewService interface {
	Setup(ctx context.Context, candidateID string, req *models.SetupRequest) (*models.SetupResponse, error)
	SubmitAudio(ctx context.Context, candidateID string, audio []byte, filename string, focus float64) (*models.TurnResponse, error)
	SubmitAnswer(ctx context.Context, candidateID, answer string) (*models.TurnResponse, error)
	SubmitCode(ctx context.Context, candidateID, code string) (*models.CodeSubmissionResponse, error)
	CodingProblem(ctx context.Context, candidateID string) (*models.CodingProblemResponse, error)
	ExplainCode(ctx context.Context, candidateID string, audio []byte, filename string) (*models.CodeExplanationResponse, error)
	History(candidateID string) (*models.HistoryResponse, error)
	Feedback(ctx context.Context, candidateID string) (*models.FeedbackResponse, error)
}

type InterviewHandler struct {
	service InterviewService
}

func NewInterviewHandler(service InterviewService) *InterviewHandler {
	return &InterviewHandler{service: service}
}

func (h *InterviewHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/setup", h.Setup).Methods("POST")
	router.HandleFunc("/audio", h.SubmitAudio).Methods("POST")
	router.HandleFunc("/answer", h.SubmitAnswer).Methods("POST")
	router.HandleFunc("/submit-code", h.SubmitCode).Methods("POST")
	router.HandleFunc("/coding-problem", h.CodingProblem).Methods("GET")
	router.HandleFunc("/code-explanation", h.ExplainCode).Methods("POST")
	router.HandleFunc("/history", h.History).Methods("GET")
	router.HandleFunc("/feedback", h.Feedback).Methods("GET")
}

func (h *InterviewHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req models.SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	resp, err := h.service.Setup(r.Context(), userIDFromContext(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *InterviewHandler) SubmitAudio(w http.ResponseWriter, r *http.Request) {
	audio, filename, ok := readAudioUpload(w, r)
	if !ok {
		return
	}

	focus := services.DefaultFocusScore
	if v := r.FormValue("focus_score"); v != "" {
		var err error
		focus, err = strconv.ParseFloat(v, 64)
		if err != nil || focus < 0 || focus > 1 {
			writeErrorResponse(w, http.StatusBadRequest, "focus_score must be a number between 0 and 1")
			return
		}
	}

	resp, err := h.service.SubmitAudio(r.Context(), userIDFromContext(r.Context()), audio, filename, focus)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *InterviewHandler) ExplainCode(w http.ResponseWriter, r *http.Request) {
	audio, filename, ok := readAudioUpload(w, r)
	if !ok {
		return
	}

	resp, err := h.service.ExplainCode(r.Context(), userIDFromContext(r.Context()), audio, filename)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// readAudioUpload reads the "audio" multipart file, writing a 400 on failure.
func readAudioUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		logger.Errorf("Failed to parse audio upload: %v", err)
		writeErrorResponse(w, http.StatusBadRequest, "Invalid multipart payload")
		return nil, "", false
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "audio file is required")
		return nil, "", false
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Failed to read audio file")
		return nil, "", false
	}
	return audio, header.Filename, true
}

func (h *InterviewHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	resp, err := h.service.SubmitAnswer(r.Context(), userIDFromContext(r.Context()), req.Answer)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *InterviewHandler) SubmitCode(w http.ResponseWriter, r *http.Request) {
	var req models.CodeSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	resp, err := h.service.SubmitCode(r.Context(), userIDFromContext(r.Context()), req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *InterviewHandler) CodingProblem(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.CodingProblem(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *InterviewHandler) History(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.History(userIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *InterviewHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Feedback(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, resp)
}
