package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/contesthub/server/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
)

type UserRepository interface {
	// CreateIfAbsent inserts the user unless a row with the same email
	// already exists. It reports whether a row was inserted; when it
	// returns false the existing row is loaded into user.
	CreateIfAbsent(ctx context.Context, user *models.User) (bool, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id int, role models.UserRole) error
	UpdateProfile(ctx context.Context, user *models.User) error
	Count(ctx context.Context) (int, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, name, email, photo, address, role, created_at`

// Emails are stored lower-cased; lookups lower-case their argument so
// the unique constraint is effectively case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *postgresUserRepository) CreateIfAbsent(ctx context.Context, user *models.User) (bool, error) {
	query := `
		INSERT INTO users (name, email, photo, address, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT users_email_key DO NOTHING
		RETURNING id, created_at`

	email := normalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	err := r.db.QueryRowContext(ctx, query,
		user.Name, email, user.Photo, user.Address, user.Role,
	).Scan(&user.ID, &user.CreatedAt)

	if err == nil {
		user.Email = email
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	// Conflict path: the insert matched an existing email.
	existing, getErr := r.GetByEmail(ctx, email)
	if getErr != nil {
		return false, getErr
	}
	*user = *existing
	return false, nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(ctx, query, normalizeEmail(email))
}

func (r *postgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if scanErr := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Address, &u.Role, &u.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *postgresUserRepository) UpdateRole(ctx context.Context, id int, role models.UserRole) error {
	query := `UPDATE users SET role = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, role, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET name = $1, photo = $2, address = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, user.Name, user.Photo, user.Address, user.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrUserEmailConflict
		}
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func (r *postgresUserRepository) scanUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.Address,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
