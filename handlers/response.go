package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"interviewer/db"
	"interviewer/logger"
	"interviewer/services"
	"interviewer/services/interview"
	"interviewer/services/speech"
)

// UserIDHeader carries the authenticated candidate id set by the auth proxy.
const UserIDHeader = "X-User-Id"

type contextKey string

const userIDKey contextKey = "userID"

// RequireUser rejects requests without a candidate id and stores it in the
// request context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			writeErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps service errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interview.ErrSessionNotFound),
		errors.Is(err, db.ErrUserNotFound),
		errors.Is(err, db.ErrInterviewNotFound):
		writeErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, interview.ErrInvalidConfiguration),
		errors.Is(err, interview.ErrNoActiveQuestion),
		errors.Is(err, services.ErrEmptyAnswer):
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotInCodingRound),
		errors.Is(err, services.ErrTurnInProgress):
		writeErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, interview.ErrGenerationUnavailable),
		errors.Is(err, interview.ErrEvaluationUnavailable),
		errors.Is(err, speech.ErrTranscriptionUnavailable):
		writeErrorResponse(w, http.StatusServiceUnavailable, err.Error())
	default:
		logger.Errorf("Unhandled service error: %v", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Internal server error")
	}
}
