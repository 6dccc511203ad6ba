package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"interviewer/models"

	"github.com/lib/pq"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	GetUserByClerkID(ctx context.Context, clerkID string) (*models.UserProfile, error)
}

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(databaseURL string) (*PostgresUserRepository, error) {
	db, err := openPostgres(databaseURL)
	if err != nil {
		return nil, err
	}
	return &PostgresUserRepository{db: db}, nil
}

func (r *PostgresUserRepository) GetUserByClerkID(ctx context.Context, clerkID string) (*models.UserProfile, error) {
	query := `
		SELECT clerk_id, COALESCE(name, ''), skills, projects, experience, education, target_companies
		FROM interviewer.users
		WHERE clerk_id = $1`

	user := &models.UserProfile{}
	row := r.db.QueryRowContext(ctx, query, clerkID)

	err := row.Scan(&user.ClerkID, &user.Name,
		pq.Array(&user.Skills), pq.Array(&user.Projects), pq.Array(&user.Experience),
		pq.Array(&user.Education), pq.Array(&user.TargetCompanies))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, clerkID)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (r *PostgresUserRepository) Close() error {
	return r.db.Close()
}
