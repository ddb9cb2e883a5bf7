package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/adi-0903/FacePass/internal/config"
	"github.com/adi-0903/FacePass/internal/domain"
	"github.com/adi-0903/FacePass/internal/gallery"
	"github.com/adi-0903/FacePass/internal/provider"
)

// livenessMargin widens the face crop fed to spoof analysis so eye
// regions and surrounding skin are included.
const livenessMargin = 0.1

// historyLimit caps the records returned for one employee.
const historyLimit = 30

type UserRepositoryInterface interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListActive(ctx context.Context) ([]domain.User, error)
	Deactivate(ctx context.Context, employeeID string) (*domain.User, error)
}

type AttendanceRepositoryInterface interface {
	CreatePunchIn(ctx context.Context, record *domain.AttendanceRecord) error
	PunchOut(ctx context.Context, recordID int64, at time.Time) error
	GetLatestForDate(ctx context.Context, userID uuid.UUID, date time.Time) (*domain.AttendanceRecord, error)
	ListForDate(ctx context.Context, date time.Time) ([]domain.TodayAttendance, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AttendanceRecord, error)
}

type AuditRepositoryInterface interface {
	Log(ctx context.Context, event *domain.AuditEvent) error
}

// GalleryInterface is the in-memory matcher as the service sees it.
type GalleryInterface interface {
	Load(stored []gallery.StoredEncoding) int
	Size() int
	Identify(probe domain.FeatureVector) (*domain.MatchResult, error)
	CheckDuplicate(probe domain.FeatureVector) (*domain.MatchResult, error)
}

// LivenessAnalyzer is one session's spoof analyzer.
type LivenessAnalyzer interface {
	Check(crop image.Image, landmarks map[string][]domain.Point) domain.LivenessResult
	Reset()
	BlinkCount() int
}

// Dependencies carries everything the attendance service needs.
type Dependencies struct {
	Users      UserRepositoryInterface
	Attendance AttendanceRepositoryInterface
	Audit      AuditRepositoryInterface
	Gallery    GalleryInterface
	Encoder    provider.FaceEncoder
	Detector   provider.FaceDetector

	// Landmarks is optional; nil degrades liveness to blur fusion.
	Landmarks provider.LandmarkProvider

	// NewAnalyzer builds a fresh liveness analyzer per session.
	NewAnalyzer func() LivenessAnalyzer
}

// AttendanceService implements enrollment and camera punch-in/out.
type AttendanceService struct {
	deps     Dependencies
	cfg      *config.Config
	logger   *slog.Logger
	sessions *SessionStore
	now      func() time.Time
}

func NewAttendanceService(deps Dependencies, cfg *config.Config, logger *slog.Logger) *AttendanceService {
	return &AttendanceService{
		deps:     deps,
		cfg:      cfg,
		logger:   logger,
		sessions: NewSessionStore(deps.NewAnalyzer),
		now:      time.Now,
	}
}

// RegisterInput is one enrollment request.
type RegisterInput struct {
	EmployeeID string
	Name       string
	Email      *string
	Department *string
	Image      []byte

	// SessionID names the liveness session whose accumulated blinks
	// gate the enrollment; empty skips the blink requirement.
	SessionID string
	IPAddress string
}

// Register enrolls a new employee: identity checks first (cheap),
// then the vision pipeline, then the duplicate-face guard, and only
// then the insert and gallery reload.
func (s *AttendanceService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if input.EmployeeID == "" || input.Name == "" {
		return nil, domain.ErrValidationFailed
	}

	if _, err := s.deps.Users.GetByEmployeeID(ctx, input.EmployeeID); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	if input.Email != nil && *input.Email != "" {
		if _, err := s.deps.Users.GetByEmail(ctx, *input.Email); err == nil {
			return nil, domain.ErrEmailExists
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
	}

	img, region, err := s.detectSingleFace(input.Image)
	if err != nil {
		return nil, err
	}

	if s.cfg.SpoofDetectionEnabled {
		result := s.checkLiveness(ctx, img, region, s.deps.NewAnalyzer())
		if !result.IsLive {
			s.audit(ctx, domain.EventFailedSpoof, nil, fmt.Sprintf("registration rejected, liveness %.2f", result.Confidence), input.IPAddress)
			return nil, domain.ErrLivenessFailed
		}
		if input.SessionID != "" && s.cfg.MinBlinksForLiveness > 0 {
			if s.sessions.BlinkCount(input.SessionID) < s.cfg.MinBlinksForLiveness {
				return nil, domain.ErrInsufficientBlinks
			}
		}
	}

	vec, err := s.deps.Encoder.Encode(ctx, img, region)
	if err != nil {
		return nil, err
	}

	dup, err := s.deps.Gallery.CheckDuplicate(vec)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if dup != nil {
		s.logger.Warn("duplicate face rejected",
			slog.String("employee_id", input.EmployeeID),
			slog.String("conflicts_with", dup.UserID.String()),
			slog.Float64("confidence", dup.Confidence))
		return nil, domain.ErrDuplicateIdentity
	}

	user := &domain.User{
		EmployeeID:   input.EmployeeID,
		Name:         input.Name,
		Email:        input.Email,
		Department:   input.Department,
		FaceEncoding: s.deps.Encoder.EncodeBytes(vec),
	}
	if err := s.deps.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.ReloadGallery(ctx); err != nil {
		s.logger.Error("gallery reload after registration failed", slog.Any("error", err))
	}
	s.sessions.End(input.SessionID)
	s.audit(ctx, domain.EventRegistration, &user.ID, fmt.Sprintf("registered %s", user.EmployeeID), input.IPAddress)

	s.logger.Info("user registered",
		slog.String("employee_id", user.EmployeeID),
		slog.String("user_id", user.ID.String()))
	return user, nil
}

// PunchResult is the outcome of a recognized punch.
type PunchResult struct {
	Action     string                   `json:"action"` // "punch_in" or "punch_out"
	User       *domain.User             `json:"user"`
	Record     *domain.AttendanceRecord `json:"record"`
	Confidence float64                  `json:"confidence"`
	Message    string                   `json:"message"`
}

// Punch identifies the face in the frame and advances the day's
// attendance state machine: first sighting punches in, a later one
// punches out (after the cooldown), and one after a completed pair
// opens a fresh punch-in.
func (s *AttendanceService) Punch(ctx context.Context, imageBytes []byte, ip string) (*PunchResult, error) {
	img, err := decodeImage(imageBytes)
	if err != nil {
		return nil, err
	}

	regions, err := s.deps.Detector.DetectFaces(img)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	if len(regions) == 0 {
		return nil, domain.ErrNoFaceDetected
	}
	region := regions[0]

	if s.cfg.SpoofDetectionEnabled {
		result := s.checkLiveness(ctx, img, region, s.deps.NewAnalyzer())
		if !result.IsLive {
			s.audit(ctx, domain.EventFailedSpoof, nil, fmt.Sprintf("punch rejected, liveness %.2f", result.Confidence), ip)
			return nil, domain.ErrLivenessFailed
		}
	}

	vec, err := s.deps.Encoder.Encode(ctx, img, region)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientRegion) {
			s.audit(ctx, domain.EventUnrecognized, nil, "face region too small to encode", ip)
			return nil, domain.ErrFaceNotRecognized
		}
		return nil, err
	}

	match, err := s.deps.Gallery.Identify(vec)
	if err != nil {
		return nil, fmt.Errorf("identify: %w", err)
	}
	if match == nil {
		s.audit(ctx, domain.EventUnrecognized, nil, "no gallery match", ip)
		return nil, domain.ErrFaceNotRecognized
	}

	user, err := s.deps.Users.GetByID(ctx, match.UserID)
	if err != nil {
		return nil, err
	}

	return s.advancePunchState(ctx, user, match.Confidence, ip)
}

func (s *AttendanceService) advancePunchState(ctx context.Context, user *domain.User, confidence float64, ip string) (*PunchResult, error) {
	now := s.now()
	today := dateOf(now)

	latest, err := s.deps.Attendance.GetLatestForDate(ctx, user.ID, today)
	if err != nil {
		return nil, err
	}

	if latest != nil && latest.PunchOutTime == nil {
		// Open record: punch out, unless within the cooldown window.
		if latest.PunchInTime != nil && now.Sub(*latest.PunchInTime) < s.cfg.PunchCooldown() {
			return nil, domain.ErrPunchCooldown
		}
		if err := s.deps.Attendance.PunchOut(ctx, latest.ID, now); err != nil {
			return nil, err
		}
		latest.PunchOutTime = &now

		worked := now.Sub(*latest.PunchInTime).Round(time.Minute)
		s.audit(ctx, domain.EventPunchOut, &user.ID, fmt.Sprintf("worked %s", worked), ip)
		return &PunchResult{
			Action:     "punch_out",
			User:       user,
			Record:     latest,
			Confidence: confidence,
			Message:    fmt.Sprintf("Goodbye %s! Punched out successfully. Worked: %s.", user.Name, worked),
		}, nil
	}

	// No record yet today, or the last pair is complete: punch in.
	record := &domain.AttendanceRecord{
		UserID:           user.ID,
		Date:             today,
		PunchInTime:      &now,
		ConfidenceScore:  confidence,
		SpoofCheckPassed: s.cfg.SpoofDetectionEnabled,
		Notes:            s.workdayNote(now),
	}
	if err := s.deps.Attendance.CreatePunchIn(ctx, record); err != nil {
		return nil, err
	}

	s.audit(ctx, domain.EventPunchIn, &user.ID, fmt.Sprintf("confidence %.2f", confidence), ip)
	return &PunchResult{
		Action:     "punch_in",
		User:       user,
		Record:     record,
		Confidence: confidence,
		Message:    fmt.Sprintf("Welcome %s! Punched in successfully.", user.Name),
	}, nil
}

// ReloadGallery republishes the gallery from the active users' stored
// encodings.
func (s *AttendanceService) ReloadGallery(ctx context.Context) error {
	users, err := s.deps.Users.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("reload gallery: %w", err)
	}

	stored := make([]gallery.StoredEncoding, 0, len(users))
	for _, u := range users {
		stored = append(stored, gallery.StoredEncoding{UserID: u.ID, Raw: u.FaceEncoding})
	}

	loaded := s.deps.Gallery.Load(stored)
	s.logger.Info("gallery reloaded",
		slog.Int("users", len(users)),
		slog.Int("loaded", loaded))
	return nil
}

// Deactivate soft-deletes an employee and removes them from the
// gallery.
func (s *AttendanceService) Deactivate(ctx context.Context, employeeID, ip string) (*domain.User, error) {
	user, err := s.deps.Users.Deactivate(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	if err := s.ReloadGallery(ctx); err != nil {
		s.logger.Error("gallery reload after deactivation failed", slog.Any("error", err))
	}
	s.audit(ctx, domain.EventDeactivation, &user.ID, fmt.Sprintf("deactivated %s", employeeID), ip)
	return user, nil
}

func (s *AttendanceService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.deps.Users.ListActive(ctx)
}

func (s *AttendanceService) TodayAttendance(ctx context.Context) ([]domain.TodayAttendance, error) {
	return s.deps.Attendance.ListForDate(ctx, dateOf(s.now()))
}

func (s *AttendanceService) History(ctx context.Context, employeeID string) ([]domain.AttendanceRecord, error) {
	user, err := s.deps.Users.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.deps.Attendance.History(ctx, user.ID, historyLimit)
}

// detectSingleFace decodes the image and requires exactly one face.
func (s *AttendanceService) detectSingleFace(imageBytes []byte) (image.Image, domain.FaceRegion, error) {
	img, err := decodeImage(imageBytes)
	if err != nil {
		return nil, domain.FaceRegion{}, err
	}

	regions, err := s.deps.Detector.DetectFaces(img)
	if err != nil {
		return nil, domain.FaceRegion{}, fmt.Errorf("detect faces: %w", err)
	}
	if len(regions) == 0 {
		return nil, domain.FaceRegion{}, domain.ErrNoFaceDetected
	}
	if len(regions) > 1 {
		return nil, domain.FaceRegion{}, domain.ErrMultipleFaces
	}
	return img, regions[0], nil
}

// checkLiveness crops the face with margin, resolves landmarks when a
// provider is available, and runs the analyzer.
func (s *AttendanceService) checkLiveness(ctx context.Context, img image.Image, region domain.FaceRegion, analyzer LivenessAnalyzer) domain.LivenessResult {
	widened := region.WithMargin(livenessMargin, img.Bounds())
	crop := imaging.Crop(img, widened.Rect())

	var landmarks map[string][]domain.Point
	if s.deps.Landmarks != nil {
		lm, err := s.deps.Landmarks.Landmarks(ctx, img, region)
		if err != nil {
			s.logger.Warn("landmark lookup failed, blink detection disabled", slog.Any("error", err))
		} else {
			landmarks = lm
		}
	}

	return analyzer.Check(crop, landmarks)
}

func (s *AttendanceService) workdayNote(now time.Time) *string {
	hour := now.Hour()
	if hour >= s.cfg.WorkdayStartHour && hour < s.cfg.WorkdayEndHour {
		return nil
	}
	note := "outside workday hours"
	return &note
}

func (s *AttendanceService) audit(ctx context.Context, eventType string, userID *uuid.UUID, details, ip string) {
	event := &domain.AuditEvent{
		EventType: eventType,
		UserID:    userID,
		Details:   details,
		IPAddress: ip,
	}
	// Audit failures are logged, never surfaced to the caller.
	if err := s.deps.Audit.Log(ctx, event); err != nil {
		s.logger.Error("audit log write failed",
			slog.String("event_type", eventType),
			slog.Any("error", err))
	}
}

func decodeImage(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, domain.ErrInvalidImage
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, domain.ErrInvalidImage
	}
	return img, nil
}

// dateOf truncates to the local calendar day.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
