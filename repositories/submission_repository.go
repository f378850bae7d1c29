package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/contesthub/server/models"
	"github.com/lib/pq"
)

var (
	ErrSubmissionNotFound       = errors.New("submission not found")
	ErrSubmissionInvalidContest = errors.New("invalid contest reference")
	ErrSubmissionInvalidUser    = errors.New("invalid user reference")
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	ListByContest(ctx context.Context, contestID int) ([]models.Submission, error)
	Count(ctx context.Context) (int, error)
}

type postgresSubmissionRepository struct {
	db *sql.DB
}

func NewPostgresSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &postgresSubmissionRepository{db: db}
}

func (r *postgresSubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	query := `
		INSERT INTO submissions (contest_id, user_id, task_url)
		VALUES ($1, $2, $3)
		RETURNING id, submitted_at`

	err := r.db.QueryRowContext(ctx, query, s.ContestID, s.UserID, s.TaskURL).
		Scan(&s.ID, &s.SubmittedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "submissions_contest_id_fkey" {
				return ErrSubmissionInvalidContest
			}
			return ErrSubmissionInvalidUser
		}
		return err
	}
	return nil
}

func (r *postgresSubmissionRepository) ListByContest(ctx context.Context, contestID int) ([]models.Submission, error) {
	query := `
		SELECT
			s.id, s.contest_id, s.user_id, s.task_url, s.submitted_at,
			u.name, u.email, u.photo,
			c.name
		FROM submissions s
		JOIN users u ON u.id = s.user_id
		JOIN contests c ON c.id = s.contest_id
		WHERE s.contest_id = $1
		ORDER BY s.submitted_at ASC`

	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := make([]models.Submission, 0)
	for rows.Next() {
		var s models.Submission
		if scanErr := rows.Scan(
			&s.ID, &s.ContestID, &s.UserID, &s.TaskURL, &s.SubmittedAt,
			&s.UserName, &s.UserEmail, &s.UserPhoto,
			&s.ContestName,
		); scanErr != nil {
			return nil, scanErr
		}
		submissions = append(submissions, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *postgresSubmissionRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&count)
	return count, err
}
