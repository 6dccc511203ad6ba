package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"interviewer/models"

	_ "github.com/lib/pq"
)

// ErrInterviewNotFound is returned when no record matches the id and owner.
var ErrInterviewNotFound = errors.New("interview not found")

type InterviewRepository interface {
	SaveInterview(ctx context.Context, record *models.InterviewRecord) error
	GetInterviewByID(ctx context.Context, userID, id string) (*models.InterviewRecord, error)
	GetInterviewsByUser(ctx context.Context, userID string) ([]*models.InterviewSummary, error)
}

type PostgresInterviewRepository struct {
	db *sql.DB
}

func NewPostgresInterviewRepository(databaseURL string) (*PostgresInterviewRepository, error) {
	db, err := openPostgres(databaseURL)
	if err != nil {
		return nil, err
	}
	return &PostgresInterviewRepository{db: db}, nil
}

func openPostgres(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// SaveInterview inserts record and fills in its created_at. The id is chosen
// by the caller.
func (r *PostgresInterviewRepository) SaveInterview(ctx context.Context, record *models.InterviewRecord) error {
	query := `
		INSERT INTO interviewer.interviews
			(id, user_id, role, mode, transcript, feedback, average_confidence, average_focus)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	feedback := []byte(record.Feedback)
	if len(feedback) == 0 {
		feedback = []byte("{}")
	}

	row := r.db.QueryRowContext(ctx, query,
		record.ID, record.UserID, record.Role, record.Mode, record.Transcript,
		feedback, record.AverageConfidence, record.AverageFocus)

	if err := row.Scan(&record.CreatedAt); err != nil {
		return fmt.Errorf("failed to save interview: %w", err)
	}

	return nil
}

func (r *PostgresInterviewRepository) GetInterviewByID(ctx context.Context, userID, id string) (*models.InterviewRecord, error) {
	query := `
		SELECT id, user_id, role, mode, transcript, feedback, average_confidence, average_focus, created_at
		FROM interviewer.interviews
		WHERE id = $1 AND user_id = $2`

	record := &models.InterviewRecord{}
	var feedback []byte
	row := r.db.QueryRowContext(ctx, query, id, userID)

	err := row.Scan(&record.ID, &record.UserID, &record.Role, &record.Mode, &record.Transcript,
		&feedback, &record.AverageConfidence, &record.AverageFocus, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrInterviewNotFound, id)
		}
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	record.Feedback = feedback

	return record, nil
}

func (r *PostgresInterviewRepository) GetInterviewsByUser(ctx context.Context, userID string) ([]*models.InterviewSummary, error) {
	query := `
		SELECT id, role, mode, average_confidence, average_focus, created_at
		FROM interviewer.interviews
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query interviews: %w", err)
	}
	defer rows.Close()

	var summaries []*models.InterviewSummary
	for rows.Next() {
		s := &models.InterviewSummary{}
		if err := rows.Scan(&s.ID, &s.Role, &s.Mode, &s.AverageConfidence, &s.AverageFocus, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interviews: %w", err)
	}

	return summaries, nil
}

func (r *PostgresInterviewRepository) Close() error {
	return r.db.Close()
}
