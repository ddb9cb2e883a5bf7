package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered employee.
type User struct {
	ID           uuid.UUID `json:"id"`
	EmployeeID   string    `json:"employee_id"`
	Name         string    `json:"name"`
	Email        *string   `json:"email,omitempty"`
	Department   *string   `json:"department,omitempty"`
	FaceEncoding []byte    `json:"-"`
	RegisteredAt time.Time `json:"registered_at"`
	IsActive     bool      `json:"is_active"`
}

// AttendanceRecord is one punch-in (and optional punch-out) for a day.
type AttendanceRecord struct {
	ID               int64      `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	Date             time.Time  `json:"date"`
	PunchInTime      *time.Time `json:"punch_in,omitempty"`
	PunchOutTime     *time.Time `json:"punch_out,omitempty"`
	ConfidenceScore  float64    `json:"confidence"`
	SpoofCheckPassed bool       `json:"spoof_check_passed"`
	Notes            *string    `json:"notes,omitempty"`
}

// TodayAttendance is an attendance record joined with its user, as shown
// on the kiosk dashboard.
type TodayAttendance struct {
	RecordID   int64      `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	UserName   string     `json:"user_name"`
	EmployeeID string     `json:"employee_id"`
	PunchIn    *time.Time `json:"punch_in,omitempty"`
	PunchOut   *time.Time `json:"punch_out,omitempty"`
	Confidence float64    `json:"confidence"`
}

// Audit event types.
const (
	EventRegistration = "registration"
	EventPunchIn      = "punch_in"
	EventPunchOut     = "punch_out"
	EventFailedSpoof  = "failed_spoof"
	EventUnrecognized = "unrecognized"
	EventDeactivation = "deactivation"
)

// AuditEvent is a system event written to the audit log.
type AuditEvent struct {
	ID        int64      `json:"id"`
	EventType string     `json:"event_type"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Details   string     `json:"details"`
	IPAddress string     `json:"ip_address,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
