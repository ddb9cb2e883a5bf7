package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/adi-0903/FacePass/internal/domain"
	"github.com/adi-0903/FacePass/internal/service"
)

// UserService interface for the service
type UserService interface {
	Register(ctx context.Context, input service.RegisterInput) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	Deactivate(ctx context.Context, employeeID, ip string) (*domain.User, error)
}

// UserHandler handles enrollment and user management
type UserHandler struct {
	service UserService
	logger  *slog.Logger
}

func NewUserHandler(service UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterResponse response for register endpoint
type RegisterResponse struct {
	UserID       string `json:"user_id"`
	EmployeeID   string `json:"employee_id"`
	Name         string `json:"name"`
	RegisteredAt string `json:"registered_at"`
}

// Register POST /api/register - enroll a new employee
func (h *UserHandler) Register(c *fiber.Ctx) error {
	employeeID := strings.TrimSpace(c.FormValue("employee_id"))
	name := strings.TrimSpace(c.FormValue("name"))
	if employeeID == "" || name == "" {
		return domain.ErrValidationFailed.WithMessage("employee_id and name are required")
	}

	imageBytes, err := extractAndValidateImage(c)
	if err != nil {
		return err
	}

	input := service.RegisterInput{
		EmployeeID: employeeID,
		Name:       name,
		Image:      imageBytes,
		SessionID:  strings.TrimSpace(c.FormValue("session_id")),
		IPAddress:  c.IP(),
	}
	if email := strings.TrimSpace(c.FormValue("email")); email != "" {
		input.Email = &email
	}
	if department := strings.TrimSpace(c.FormValue("department")); department != "" {
		input.Department = &department
	}

	user, err := h.service.Register(c.Context(), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(RegisterResponse{
		UserID:       user.ID.String(),
		EmployeeID:   user.EmployeeID,
		Name:         user.Name,
		RegisteredAt: user.RegisteredAt.Format("2006-01-02T15:04:05Z"),
	})
}

// List GET /api/users - all active users
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.Context())
	if err != nil {
		return err
	}
	if users == nil {
		users = []domain.User{}
	}
	return c.JSON(fiber.Map{"users": users, "count": len(users)})
}

// Deactivate DELETE /api/users/:employee_id - soft-delete an employee
func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	employeeID := strings.TrimSpace(c.Params("employee_id"))
	if employeeID == "" {
		return domain.ErrValidationFailed.WithMessage("employee_id is required")
	}

	if _, err := h.service.Deactivate(c.Context(), employeeID, c.IP()); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
