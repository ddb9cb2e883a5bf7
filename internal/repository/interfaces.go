package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/adi-0903/FacePass/internal/domain"
)

// PgxPool is the subset of pgxpool.Pool the repositories use. It is
// satisfied by *pgxpool.Pool and by pgxmock in tests.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

// UserRepositoryInterface defines operations for user data access
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListActive(ctx context.Context) ([]domain.User, error)
	Deactivate(ctx context.Context, employeeID string) (*domain.User, error)
}

// AttendanceRepositoryInterface defines operations for attendance data access
type AttendanceRepositoryInterface interface {
	CreatePunchIn(ctx context.Context, record *domain.AttendanceRecord) error
	PunchOut(ctx context.Context, recordID int64, at time.Time) error
	GetOpenForDate(ctx context.Context, userID uuid.UUID, date time.Time) (*domain.AttendanceRecord, error)
	GetLatestForDate(ctx context.Context, userID uuid.UUID, date time.Time) (*domain.AttendanceRecord, error)
	ListForDate(ctx context.Context, date time.Time) ([]domain.TodayAttendance, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AttendanceRecord, error)
}

// AuditRepositoryInterface defines operations for audit logging
type AuditRepositoryInterface interface {
	Log(ctx context.Context, event *domain.AuditEvent) error
}
