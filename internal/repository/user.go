package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/adi-0903/FacePass/internal/domain"
)

type UserRepository struct {
	pool PgxPool
}

func NewUserRepository(pool PgxPool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, employee_id, name, email, department, face_encoding, is_active, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, true, NOW())
		RETURNING registered_at
	`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.EmployeeID,
		user.Name,
		user.Email,
		user.Department,
		user.FaceEncoding,
	).Scan(&user.RegisteredAt)

	if err != nil {
		if uniqueViolationOn(err, "email") {
			return domain.ErrEmailExists
		}
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	user.IsActive = true
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, employee_id, name, email, department, face_encoding, is_active, registered_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id), "get user by id")
}

func (r *UserRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error) {
	query := `
		SELECT id, employee_id, name, email, department, face_encoding, is_active, registered_at
		FROM users
		WHERE employee_id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, employeeID), "get user by employee_id")
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, employee_id, name, email, department, face_encoding, is_active, registered_at
		FROM users
		WHERE email = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, email), "get user by email")
}

// ListActive returns every active user including the stored face
// encoding, in enrollment order; this feeds the gallery reload.
func (r *UserRepository) ListActive(ctx context.Context) ([]domain.User, error) {
	query := `
		SELECT id, employee_id, name, email, department, face_encoding, is_active, registered_at
		FROM users
		WHERE is_active = true
		ORDER BY registered_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.EmployeeID,
			&user.Name,
			&user.Email,
			&user.Department,
			&user.FaceEncoding,
			&user.IsActive,
			&user.RegisteredAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return users, nil
}

// Deactivate soft-deletes the user and returns the deactivated row.
func (r *UserRepository) Deactivate(ctx context.Context, employeeID string) (*domain.User, error) {
	query := `
		UPDATE users
		SET is_active = false
		WHERE employee_id = $1 AND is_active = true
		RETURNING id, employee_id, name, email, department, face_encoding, is_active, registered_at
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, employeeID), "deactivate user")
}

func (r *UserRepository) scanOne(row pgx.Row, op string) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.EmployeeID,
		&user.Name,
		&user.Email,
		&user.Department,
		&user.FaceEncoding,
		&user.IsActive,
		&user.RegisteredAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}
