package handlers

import (
	"context"
	"net/http"

	"interviewer/models"

	"github.com/gorilla/mux"
)

type InterviewRecordService interface {
	GetInterviews(ctx context.Context, userID string) ([]*models.InterviewSummary, error)
	GetInterview(ctx context.Context, userID, id string) (*models.InterviewRecord, error)
}

type InterviewRecordHandler struct {
	service InterviewRecordService
}

func NewInterviewRecordHandler(service InterviewRecordService) *InterviewRecordHandler {
	return &InterviewRecordHandler{service: service}
}

func (h *InterviewRecordHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/interviews", h.GetInterviews).Methods("GET")
	router.HandleFunc("/interviews/{id}", h.GetInterview).Methods("GET")
}

func (h *InterviewRecordHandler) GetInterviews(w http.ResponseWriter, r *http.Request) {
	interviews, err := h.service.GetInterviews(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, interviews)
}

func (h *InterviewRecordHandler) GetInterview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := h.service.GetInterview(r.Context(), userIDFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, record)
}
