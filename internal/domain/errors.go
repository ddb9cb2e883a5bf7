package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// WithMessage replaces the user-facing message, keeping code and status.
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    msg,
		StatusCode: e.StatusCode,
		Err:        e.Err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in image. Please ensure your face is clearly visible.",
		StatusCode: 422,
	}

	ErrMultipleFaces = &AppError{
		Code:       "MULTIPLE_FACES",
		Message:    "Multiple faces detected. Please provide image with single face",
		StatusCode: 422,
	}

	ErrInsufficientRegion = &AppError{
		Code:       "INSUFFICIENT_REGION",
		Message:    "Face region too small to extract features",
		StatusCode: 422,
	}

	ErrEncodingFailed = &AppError{
		Code:       "ENCODING_FAILED",
		Message:    "Could not generate face encoding. Please try again with a clearer image.",
		StatusCode: 422,
	}

	ErrLivenessFailed = &AppError{
		Code:       "LIVENESS_FAILED",
		Message:    "Spoof detection failed. Please use your real face with good lighting.",
		StatusCode: 422,
	}

	ErrInsufficientBlinks = &AppError{
		Code:       "INSUFFICIENT_BLINKS",
		Message:    "Not enough blinks observed during the enrollment session",
		StatusCode: 422,
	}

	ErrDuplicateIdentity = &AppError{
		Code:       "DUPLICATE_IDENTITY",
		Message:    "This face is already registered. Each person can only register once.",
		StatusCode: 409,
	}

	ErrUserExists = &AppError{
		Code:       "USER_ALREADY_EXISTS",
		Message:    "Employee ID already registered. Please use a different ID.",
		StatusCode: 409,
	}

	ErrEmailExists = &AppError{
		Code:       "EMAIL_ALREADY_EXISTS",
		Message:    "Email already registered. Please use a different email.",
		StatusCode: 409,
	}

	ErrUserNotFound = &AppError{
		Code:       "USER_NOT_FOUND",
		Message:    "User not found",
		StatusCode: 404,
	}

	ErrFaceNotRecognized = &AppError{
		Code:       "FACE_NOT_RECOGNIZED",
		Message:    "Face not recognized. Please register first.",
		StatusCode: 404,
	}

	ErrPunchCooldown = &AppError{
		Code:       "PUNCH_COOLDOWN",
		Message:    "Please wait before punching out",
		StatusCode: 429,
	}

	ErrSessionNotFound = &AppError{
		Code:       "SESSION_NOT_FOUND",
		Message:    "Liveness session not found",
		StatusCode: 404,
	}
)
