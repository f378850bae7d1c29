package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/contesthub/server/models"
	"github.com/lib/pq"
)

var (
	ErrContestNotFound       = errors.New("contest not found")
	ErrContestInvalidCreator = errors.New("invalid creator reference")
	ErrContestInvalidWinner  = errors.New("invalid winner reference")
	ErrContestInUse          = errors.New("contest is in use (payments/submissions exist)")
)

type ListContestsFilter struct {
	Status       *models.ContestStatus
	Type         string
	Search       string // case-insensitive substring on name or type
	CreatorID    *int
	ByPopularity bool
	Limit        int
}

type ContestRepository interface {
	Create(ctx context.Context, contest *models.Contest) error
	GetByID(ctx context.Context, id int) (*models.Contest, error)
	List(ctx context.Context, filter ListContestsFilter) ([]models.Contest, error)
	Update(ctx context.Context, contest *models.Contest) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ContestStatus) error
	SetWinner(ctx context.Context, exec SQLExecutor, id int, winnerID int) error
	UpdateImageKey(ctx context.Context, id int, imageKey *string) error
	IncrementParticipants(ctx context.Context, exec SQLExecutor, id int) error
	Delete(ctx context.Context, id int) error
	CountByStatus(ctx context.Context, status *models.ContestStatus) (int, error)
	WinnersLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

type postgresContestRepository struct {
	db *sql.DB
}

func NewPostgresContestRepository(db *sql.DB) ContestRepository {
	return &postgresContestRepository{db: db}
}

func (r *postgresContestRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresContestRepository) Create(ctx context.Context, c *models.Contest) error {
	query := `
		INSERT INTO contests (
			name, description, instruction, price, prize, type, deadline,
			creator_id, status, participants_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		c.Name, c.Description, c.Instruction, c.Price, c.Prize, c.Type, c.Deadline,
		c.CreatorID, c.Status,
	).Scan(&c.ID, &c.CreatedAt)

	return r.handleContestError(err)
}

const contestSelect = `
	SELECT
		c.id, c.name, c.description, c.instruction, c.price, c.prize, c.type,
		c.deadline, c.creator_id, c.status, c.participants_count, c.winner_id,
		c.image_key, c.created_at,
		cr.name, cr.email, cr.photo,
		w.name, w.email, w.photo
	FROM contests c
	JOIN users cr ON cr.id = c.creator_id
	LEFT JOIN users w ON w.id = c.winner_id`

func (r *postgresContestRepository) GetByID(ctx context.Context, id int) (*models.Contest, error) {
	query := contestSelect + ` WHERE c.id = $1`

	c, err := scanContest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresContestRepository) List(ctx context.Context, filter ListContestsFilter) ([]models.Contest, error) {
	query := contestSelect + ` WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND c.status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Type != "" {
		query += fmt.Sprintf(" AND c.type = $%d", argID)
		args = append(args, filter.Type)
		argID++
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (c.name ILIKE $%d OR c.type ILIKE $%d)", argID, argID)
		args = append(args, "%"+filter.Search+"%")
		argID++
	}
	if filter.CreatorID != nil {
		query += fmt.Sprintf(" AND c.creator_id = $%d", argID)
		args = append(args, *filter.CreatorID)
		argID++
	}

	if filter.ByPopularity {
		query += " ORDER BY c.participants_count DESC, c.created_at DESC"
	} else {
		query += " ORDER BY c.created_at DESC"
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contests := make([]models.Contest, 0)
	for rows.Next() {
		c, scanErr := scanContest(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		contests = append(contests, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return contests, nil
}

func (r *postgresContestRepository) Update(ctx context.Context, c *models.Contest) error {
	query := `
		UPDATE contests SET
			name = $1,
			description = $2,
			instruction = $3,
			price = $4,
			prize = $5,
			type = $6,
			deadline = $7
		WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		c.Name, c.Description, c.Instruction, c.Price, c.Prize, c.Type, c.Deadline,
		c.ID,
	)
	if err != nil {
		return r.handleContestError(err)
	}
	return checkAffectedRows(result, ErrContestNotFound)
}

func (r *postgresContestRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ContestStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE contests SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleContestError(err)
	}
	return checkAffectedRows(result, ErrContestNotFound)
}

// SetWinner records the winner and moves the contest to ended in one
// statement. Re-declaring simply overwrites the previous winner.
func (r *postgresContestRepository) SetWinner(ctx context.Context, exec SQLExecutor, id int, winnerID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE contests SET winner_id = $1, status = 'ended' WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, winnerID, id)
	if err != nil {
		return r.handleContestError(err)
	}
	return checkAffectedRows(result, ErrContestNotFound)
}

func (r *postgresContestRepository) UpdateImageKey(ctx context.Context, id int, imageKey *string) error {
	query := `UPDATE contests SET image_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, imageKey, id)
	if err != nil {
		return fmt.Errorf("failed to update contest image key: %w", err)
	}
	return checkAffectedRows(result, ErrContestNotFound)
}

// IncrementParticipants bumps the counter atomically in a single
// statement, so concurrent payments can never lose an increment.
func (r *postgresContestRepository) IncrementParticipants(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE contests SET participants_count = participants_count + 1 WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrContestNotFound)
}

func (r *postgresContestRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM contests WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleContestError(err)
	}
	return checkAffectedRows(result, ErrContestNotFound)
}

func (r *postgresContestRepository) CountByStatus(ctx context.Context, status *models.ContestStatus) (int, error) {
	var count int
	var err error
	if status != nil {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contests WHERE status = $1`, *status).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contests`).Scan(&count)
	}
	return count, err
}

func (r *postgresContestRepository) WinnersLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT u.id, u.name, u.email, u.photo, u.address, u.role, u.created_at, COUNT(*) AS wins
		FROM contests c
		JOIN users u ON u.id = c.winner_id
		WHERE c.status = 'ended' AND c.winner_id IS NOT NULL
		GROUP BY u.id
		ORDER BY wins DESC, u.name ASC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0)
	for rows.Next() {
		var u models.User
		var wins int
		if scanErr := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Address, &u.Role, &u.CreatedAt, &wins); scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, models.LeaderboardEntry{User: &u, Wins: wins})
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContest(row rowScanner) (*models.Contest, error) {
	c := &models.Contest{}
	creator := models.User{}
	var winnerName, winnerEmail sql.NullString
	var winnerPhoto *string

	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Instruction, &c.Price, &c.Prize, &c.Type,
		&c.Deadline, &c.CreatorID, &c.Status, &c.ParticipantsCount, &c.WinnerID,
		&c.ImageKey, &c.CreatedAt,
		&creator.Name, &creator.Email, &creator.Photo,
		&winnerName, &winnerEmail, &winnerPhoto,
	)
	if err != nil {
		return nil, err
	}

	creator.ID = c.CreatorID
	creator.Role = models.RoleCreator
	c.Creator = &creator

	if c.WinnerID != nil {
		c.Winner = &models.User{
			ID:    *c.WinnerID,
			Name:  winnerName.String,
			Email: winnerEmail.String,
			Photo: winnerPhoto,
		}
	}
	return c, nil
}

func (r *postgresContestRepository) handleContestError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
		switch pqErr.Constraint {
		case "contests_creator_id_fkey":
			return ErrContestInvalidCreator
		case "contests_winner_id_fkey":
			return ErrContestInvalidWinner
		default:
			return ErrContestInUse
		}
	}
	return err
}
