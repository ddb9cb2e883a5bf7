package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/adi-0903/FacePass/internal/domain"
	"github.com/adi-0903/FacePass/internal/service"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// AttendanceService interface for the service
type AttendanceService interface {
	Punch(ctx context.Context, imageBytes []byte, ip string) (*service.PunchResult, error)
	AnalyzeFrame(ctx context.Context, sessionID string, imageBytes []byte) (*domain.LivenessResult, error)
	ResetSession(sessionID string) error
	EndSession(sessionID string)
	TodayAttendance(ctx context.Context) ([]domain.TodayAttendance, error)
	History(ctx context.Context, employeeID string) ([]domain.AttendanceRecord, error)
}

// AttendanceHandler handles punch and attendance queries
type AttendanceHandler struct {
	service AttendanceService
	logger  *slog.Logger
}

func NewAttendanceHandler(service AttendanceService, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		logger:  logger,
	}
}

// Identify POST /api/identify - recognize the face and punch in/out
func (h *AttendanceHandler) Identify(c *fiber.Ctx) error {
	imageBytes, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("identify: %w", err)
	}

	result, err := h.service.Punch(c.Context(), imageBytes, c.IP())
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// AnalyzeFrame POST /api/liveness/:session - analyze one liveness frame
func (h *AttendanceHandler) AnalyzeFrame(c *fiber.Ctx) error {
	sessionID := strings.TrimSpace(c.Params("session"))
	if sessionID == "" {
		return domain.ErrValidationFailed.WithMessage("session id is required")
	}

	imageBytes, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("analyze frame: %w", err)
	}

	result, err := h.service.AnalyzeFrame(c.Context(), sessionID, imageBytes)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// ResetSession POST /api/liveness/:session/reset - clear blink state
func (h *AttendanceHandler) ResetSession(c *fiber.Ctx) error {
	sessionID := strings.TrimSpace(c.Params("session"))
	if sessionID == "" {
		return domain.ErrValidationFailed.WithMessage("session id is required")
	}

	if err := h.service.ResetSession(sessionID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// EndSession DELETE /api/liveness/:session - discard a liveness session
func (h *AttendanceHandler) EndSession(c *fiber.Ctx) error {
	sessionID := strings.TrimSpace(c.Params("session"))
	if sessionID == "" {
		return domain.ErrValidationFailed.WithMessage("session id is required")
	}

	h.service.EndSession(sessionID)
	return c.SendStatus(fiber.StatusNoContent)
}

// Today GET /api/attendance/today - today's attendance board
func (h *AttendanceHandler) Today(c *fiber.Ctx) error {
	records, err := h.service.TodayAttendance(c.Context())
	if err != nil {
		return err
	}
	if records == nil {
		records = []domain.TodayAttendance{}
	}
	return c.JSON(fiber.Map{"records": records, "count": len(records)})
}

// History GET /api/attendance/history/:employee_id - one employee's records
func (h *AttendanceHandler) History(c *fiber.Ctx) error {
	employeeID := strings.TrimSpace(c.Params("employee_id"))
	if employeeID == "" {
		return domain.ErrValidationFailed.WithMessage("employee_id is required")
	}

	records, err := h.service.History(c.Context(), employeeID)
	if err != nil {
		return err
	}
	if records == nil {
		records = []domain.AttendanceRecord{}
	}
	return c.JSON(fiber.Map{"records": records, "count": len(records)})
}

// extractAndValidateImage extracts and validates the image from the form
func extractAndValidateImage(c *fiber.Ctx) ([]byte, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}

	if file.Size == 0 || file.Size > maxImageSize {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	contentType := file.Header.Get("Content-Type")
	if !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imageBytes, nil
}
