package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ragsearch/internal/auth"
	"ragsearch/internal/http/middleware"
	"ragsearch/internal/logger"
	"ragsearch/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// apiError is a domain error translated for the wire.
type apiError struct {
	status int
	body   errorEnvelope
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_BODY", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return writeEnvelope(c, status, errorEnvelope{Code: code, Message: message})
}

func writeEnvelope(c *fiber.Ctx, status int, env errorEnvelope) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     env,
	})
}

// respondError maps a service or auth error onto the error envelope.
// Unmapped errors are returned as is so ErrorHandler logs them.
func respondError(c *fiber.Ctx, err error) error {
	ae := mapError(err)
	if ae.status == fiber.StatusInternalServerError {
		return err
	}
	return writeEnvelope(c, ae.status, ae.body)
}

func mapError(err error) apiError {
	var (
		quota   *service.QuotaExceededError
		tooBig  *service.FileTooLargeError
		partial *service.PartialNotFoundError
		remote  *service.RemoteError
	)

	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		return apiError{fiber.StatusUnauthorized, errorEnvelope{Code: "UNAUTHORIZED", Message: "invalid or missing bearer token"}}
	case errors.Is(err, auth.ErrUnavailable):
		return apiError{fiber.StatusServiceUnavailable, errorEnvelope{
			Code: "AUTH_UNAVAILABLE", Message: "authentication service unavailable", Retryable: true,
		}}
	case errors.As(err, &quota):
		return apiError{fiber.StatusRequestEntityTooLarge, errorEnvelope{
			Code:    "QUOTA_EXCEEDED",
			Message: quota.Error(),
			Details: map[string]any{
				"current_kb":   quota.CurrentKB,
				"requested_kb": quota.RequestedKB,
				"limit_kb":     quota.LimitKB,
			},
		}}
	case errors.As(err, &tooBig):
		return apiError{fiber.StatusBadRequest, errorEnvelope{
			Code:    "FILE_TOO_LARGE",
			Message: tooBig.Error(),
			Details: map[string]any{"size_kb": tooBig.SizeKB, "limit_kb": tooBig.LimitKB},
		}}
	case errors.As(err, &partial):
		return apiError{fiber.StatusNotFound, errorEnvelope{
			Code:    "FILES_NOT_FOUND",
			Message: "some requested files do not exist",
			Details: map[string]any{"ids": partial.IDs},
		}}
	case errors.Is(err, service.ErrNoFilesIndexed):
		return apiError{fiber.StatusNotFound, errorEnvelope{Code: "NO_FILES_INDEXED", Message: err.Error()}}
	case errors.As(err, &remote):
		return apiError{fiber.StatusServiceUnavailable, errorEnvelope{
			Code: "QUERY_FAILED", Message: "search service failed to answer", Retryable: remote.Retryable,
		}}
	case errors.Is(err, service.ErrUnsupportedFileType):
		return apiError{fiber.StatusBadRequest, errorEnvelope{Code: "UNSUPPORTED_FILE_TYPE", Message: err.Error()}}
	case errors.Is(err, service.ErrInvalidEncoding):
		return apiError{fiber.StatusBadRequest, errorEnvelope{Code: "INVALID_ENCODING", Message: err.Error()}}
	case errors.Is(err, service.ErrEmptyPrompt):
		return apiError{fiber.StatusBadRequest, errorEnvelope{Code: "PROMPT_REQUIRED", Message: err.Error()}}
	case errors.Is(err, service.ErrFileNotFound):
		return apiError{fiber.StatusNotFound, errorEnvelope{Code: "NOT_FOUND", Message: "file not found"}}
	default:
		return apiError{fiber.StatusInternalServerError, errorEnvelope{Code: "INTERNAL_ERROR", Message: "internal server error"}}
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// Framework errors keep their status; anything else goes through the domain mapping.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			switch fe.Code {
			case fiber.StatusBadRequest:
				return writeError(c, fe.Code, "BAD_REQUEST", "bad request")
			case fiber.StatusNotFound:
				return writeError(c, fe.Code, "NOT_FOUND", "resource not found")
			case fiber.StatusMethodNotAllowed:
				return writeError(c, fe.Code, "METHOD_NOT_ALLOWED", "method not allowed")
			case fiber.StatusRequestEntityTooLarge:
				return writeError(c, fe.Code, "PAYLOAD_TOO_LARGE", "request body too large")
			default:
				log.Error("unhandled_fiber_error", "request_id", requestIDFromCtx(c), "status", fe.Code, "error", fe.Message)
				return writeError(c, fe.Code, "INTERNAL_ERROR", "internal server error")
			}
		}

		ae := mapError(err)
		if ae.status == fiber.StatusInternalServerError {
			log.Error("request_failed", "request_id", requestIDFromCtx(c), "path", c.Path(), "error", err.Error())
		}
		return writeEnvelope(c, ae.status, ae.body)
	}
}
