package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/adi-0903/FacePass/internal/domain"
)

type AttendanceRepository struct {
	pool PgxPool
}

func NewAttendanceRepository(pool PgxPool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

func (r *AttendanceRepository) CreatePunchIn(ctx context.Context, record *domain.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records (user_id, date, punch_in_time, confidence_score, spoof_check_passed, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		record.UserID,
		record.Date,
		record.PunchInTime,
		record.ConfidenceScore,
		record.SpoofCheckPassed,
		record.Notes,
	).Scan(&record.ID)

	if err != nil {
		return fmt.Errorf("create punch-in: %w", err)
	}
	return nil
}

func (r *AttendanceRepository) PunchOut(ctx context.Context, recordID int64, at time.Time) error {
	query := `
		UPDATE attendance_records
		SET punch_out_time = $2
		WHERE id = $1 AND punch_out_time IS NULL
	`

	result, err := r.pool.Exec(ctx, query, recordID, at)
	if err != nil {
		return fmt.Errorf("punch out: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetOpenForDate returns the user's punched-in-but-not-out record for
// the date, or nil when there is none.
func (r *AttendanceRepository) GetOpenForDate(ctx context.Context, userID uuid.UUID, date time.Time) (*domain.AttendanceRecord, error) {
	query := `
		SELECT id, user_id, date, punch_in_time, punch_out_time, confidence_score, spoof_check_passed, notes
		FROM attendance_records
		WHERE user_id = $1 AND date = $2 AND punch_out_time IS NULL
		ORDER BY punch_in_time DESC
		LIMIT 1
	`
	return r.scanOptional(r.pool.QueryRow(ctx, query, userID, date), "get open attendance")
}

// GetLatestForDate returns the user's most recent record for the date
// regardless of punch-out state, or nil when there is none.
func (r *AttendanceRepository) GetLatestForDate(ctx context.Context, userID uuid.UUID, date time.Time) (*domain.AttendanceRecord, error) {
	query := `
		SELECT id, user_id, date, punch_in_time, punch_out_time, confidence_score, spoof_check_passed, notes
		FROM attendance_records
		WHERE user_id = $1 AND date = $2
		ORDER BY punch_in_time DESC
		LIMIT 1
	`
	return r.scanOptional(r.pool.QueryRow(ctx, query, userID, date), "get latest attendance")
}

// ListForDate returns all records for the date joined with user names,
// most recent punch-in first.
func (r *AttendanceRepository) ListForDate(ctx context.Context, date time.Time) ([]domain.TodayAttendance, error) {
	query := `
		SELECT a.id, a.user_id, u.name, u.employee_id, a.punch_in_time, a.punch_out_time, a.confidence_score
		FROM attendance_records a
		INNER JOIN users u ON u.id = a.user_id
		WHERE a.date = $1
		ORDER BY a.punch_in_time DESC
	`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("list attendance for date: %w", err)
	}
	defer rows.Close()

	var records []domain.TodayAttendance
	for rows.Next() {
		var rec domain.TodayAttendance
		if err := rows.Scan(
			&rec.RecordID,
			&rec.UserID,
			&rec.UserName,
			&rec.EmployeeID,
			&rec.PunchIn,
			&rec.PunchOut,
			&rec.Confidence,
		); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attendance for date: %w", err)
	}
	return records, nil
}

func (r *AttendanceRepository) History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AttendanceRecord, error) {
	query := `
		SELECT id, user_id, date, punch_in_time, punch_out_time, confidence_score, spoof_check_passed, notes
		FROM attendance_records
		WHERE user_id = $1
		ORDER BY date DESC, punch_in_time DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("attendance history: %w", err)
	}
	defer rows.Close()

	var records []domain.AttendanceRecord
	for rows.Next() {
		var rec domain.AttendanceRecord
		if err := scanRecord(rows, &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("attendance history: %w", err)
	}
	return records, nil
}

func (r *AttendanceRepository) scanOptional(row pgx.Row, op string) (*domain.AttendanceRecord, error) {
	var rec domain.AttendanceRecord
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Date,
		&rec.PunchInTime,
		&rec.PunchOutTime,
		&rec.ConfidenceScore,
		&rec.SpoofCheckPassed,
		&rec.Notes,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &rec, nil
}

func scanRecord(rows pgx.Rows, rec *domain.AttendanceRecord) error {
	if err := rows.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Date,
		&rec.PunchInTime,
		&rec.PunchOutTime,
		&rec.ConfidenceScore,
		&rec.SpoofCheckPassed,
		&rec.Notes,
	); err != nil {
		return fmt.Errorf("scan attendance record: %w", err)
	}
	return nil
}
