package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/contesthub/server/models"
	"github.com/lib/pq"
)

var (
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrPaymentDuplicate      = errors.New("payment already recorded for this user and contest")
	ErrPaymentInvalidContest = errors.New("invalid contest reference")
	ErrPaymentInvalidUser    = errors.New("invalid user reference")
)

type PaymentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, payment *models.Payment) error
	ListByUser(ctx context.Context, userID int) ([]models.Payment, error)
	Exists(ctx context.Context, userID, contestID int) (bool, error)
	Count(ctx context.Context) (int, error)
	Revenue(ctx context.Context) (float64, error)
}

type postgresPaymentRepository struct {
	db *sql.DB
}

func NewPostgresPaymentRepository(db *sql.DB) PaymentRepository {
	return &postgresPaymentRepository{db: db}
}

func (r *postgresPaymentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPaymentRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Payment) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO payments (user_id, contest_id, price, transaction_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		p.UserID, p.ContestID, p.Price, p.TransactionID, p.Status,
	).Scan(&p.ID, &p.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrPaymentDuplicate
			case "23503":
				if pqErr.Constraint == "payments_contest_id_fkey" {
					return ErrPaymentInvalidContest
				}
				return ErrPaymentInvalidUser
			}
		}
		return err
	}
	return nil
}

// ListByUser joins each payment with its contest so callers can show
// contest name, deadline and current status. Rows are ordered by the
// contest deadline, soonest first.
func (r *postgresPaymentRepository) ListByUser(ctx context.Context, userID int) ([]models.Payment, error) {
	query := `
		SELECT
			p.id, p.user_id, p.contest_id, p.price, p.transaction_id, p.status, p.created_at,
			u.name, u.email,
			c.name, c.deadline, c.status
		FROM payments p
		JOIN users u ON u.id = p.user_id
		JOIN contests c ON c.id = p.contest_id
		WHERE p.user_id = $1
		ORDER BY c.deadline ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		var p models.Payment
		var deadline sql.NullTime
		var status models.ContestStatus
		if scanErr := rows.Scan(
			&p.ID, &p.UserID, &p.ContestID, &p.Price, &p.TransactionID, &p.Status, &p.CreatedAt,
			&p.UserName, &p.UserEmail,
			&p.ContestName, &deadline, &status,
		); scanErr != nil {
			return nil, scanErr
		}
		if deadline.Valid {
			t := deadline.Time
			p.ContestDeadline = &t
		}
		p.ContestStatus = &status
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *postgresPaymentRepository) Exists(ctx context.Context, userID, contestID int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM payments WHERE user_id = $1 AND contest_id = $2)`
	err := r.db.QueryRowContext(ctx, query, userID, contestID).Scan(&exists)
	return exists, err
}

func (r *postgresPaymentRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`).Scan(&count)
	return count, err
}

func (r *postgresPaymentRepository) Revenue(ctx context.Context) (float64, error) {
	var revenue float64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(price), 0) FROM payments`).Scan(&revenue)
	return revenue, err
}
