package services

import (
	"context"
	"fmt"
	"strings"

	"interviewer/db"
	"interviewer/logger"
	"interviewer/models"

	"github.com/google/uuid"
)

// InterviewRecordService reads the candidate's finished interviews.
type InterviewRecordService struct {
	repo db.InterviewRepository
}

func NewInterviewRecordService(repo db.InterviewRepository) *InterviewRecordService {
	return &InterviewRecordService{repo: repo}
}

func (s *InterviewRecordService) GetInterviews(ctx context.Context, userID string) ([]*models.InterviewSummary, error) {
	logger.Infof("Starting get interviews for candidate %s", userID)

	summaries, err := s.repo.GetInterviewsByUser(ctx, userID)
	if err != nil {
		logger.Errorf("Failed to get interviews for candidate %s: %v", userID, err)
		return nil, err
	}

	if summaries == nil {
		summaries = []*models.InterviewSummary{}
	}

	logger.Infof("Successfully retrieved %d interviews", len(summaries))
	return summaries, nil
}

func (s *InterviewRecordService) GetInterview(ctx context.Context, userID, id string) (*models.InterviewRecord, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", db.ErrInterviewNotFound, id)
	}

	record, err := s.repo.GetInterviewByID(ctx, userID, id)
	if err != nil {
		logger.Errorf("Failed to get interview %s: %v", id, err)
		return nil, err
	}
	return record, nil
}
