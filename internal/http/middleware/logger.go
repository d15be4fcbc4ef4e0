package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"

	"ragsearch/internal/logger"
)

// Logger logs one structured line per HTTP request with
// request_id, method, path, status and latency (milliseconds, float),
// plus trace_id when the request is traced.
// Chain errors go through the app's ErrorHandler here. Server errors are
// logged at error level, everything else at info.
func Logger(log *logger.Logger) fiber.Handler {
	log = log.With("component", "http")

	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Resolve chain errors here so the logged status is the one written.
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		kv := []any{
			"request_id", rid,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", float64(time.Since(start).Microseconds()) / 1000.0,
		}
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
			kv = append(kv, "trace_id", sc.TraceID().String())
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("http_request", kv...)
		} else {
			log.Info("http_request", kv...)
		}

		return nil
	}
}
