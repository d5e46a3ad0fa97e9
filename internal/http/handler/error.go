package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"docportal/internal/http/middleware"
	"docportal/internal/model"
	"docportal/internal/service"
	"docportal/internal/validate"
)

// writeError writes the failure envelope without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(model.ApiResponse[any]{
		Success:   false,
		Message:   message,
		ErrorCode: code,
		RequestID: middleware.GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// writeValidation reports field violations with a field -> message map in data.
func writeValidation(c *fiber.Ctx, verr *validate.Error) error {
	return c.Status(fiber.StatusBadRequest).JSON(model.ApiResponse[map[string]string]{
		Success:   false,
		Data:      verr.Fields,
		Message:   "validation failed",
		ErrorCode: "VALIDATION_FAILED",
		RequestID: middleware.GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

func writeOK[T any](c *fiber.Ctx, status int, data T, message string) error {
	res := model.OK(data, message)
	res.RequestID = middleware.GetRequestID(c)
	return c.Status(status).JSON(res)
}

// validateBody parses the JSON body into dst and validates it.
// A non-nil response error means the failure was already written.
func validateBody(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			return false, writeValidation(c, verr)
		}
		return false, writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}
	return true, nil
}

// serviceError translates service sentinels into HTTP responses.
func serviceError(c *fiber.Ctx, err error) error {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		return writeValidation(c, verr)
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, service.ErrVersionNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "version not found")
	case errors.Is(err, service.ErrUserNotFound):
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "unknown user")
	case errors.Is(err, service.ErrReaderNil), errors.Is(err, service.ErrFileRequired):
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	case errors.Is(err, service.ErrInvalidStatus):
		return writeError(c, fiber.StatusBadRequest, "INVALID_STATUS", "status must be one of DRAFT, PUBLISHED, ARCHIVED")
	case errors.Is(err, service.ErrInvalidQuery):
		return writeError(c, fiber.StatusBadRequest, "INVALID_QUERY", err.Error())
	case errors.Is(err, service.ErrVersionConflict):
		return writeError(c, fiber.StatusConflict, "VERSION_CONFLICT", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return writeError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")
	case errors.Is(err, service.ErrPasswordMismatch):
		return writeError(c, fiber.StatusBadRequest, "PASSWORD_MISMATCH", "passwords do not match")
	case errors.Is(err, service.ErrUsernameTaken):
		return writeError(c, fiber.StatusConflict, "USERNAME_EXISTS", "username already exists")
	case errors.Is(err, service.ErrEmailTaken):
		return writeError(c, fiber.StatusConflict, "EMAIL_EXISTS", "email already exists")
	default:
		log.Error().Err(err).
			Str("request_id", middleware.GetRequestID(c)).
			Str("path", c.Path()).
			Msg("request_failed")
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that writes the failure envelope.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := ""
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			message = fe.Message
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", message)
		case fiber.StatusForbidden:
			return writeError(c, status, "FORBIDDEN", message)
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		case fiber.StatusTooManyRequests:
			return writeError(c, status, "RATE_LIMITED", message)
		default:
			log.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("unhandled_error")
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
