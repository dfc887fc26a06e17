package httputil

import (
	"errors"
	"time"

	apperrors "docbase/internal/shared/errors"
	"docbase/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorHandler maps application errors to HTTP responses. Only the AppError
// message reaches the client; causes and unknown errors are logged and
// reported as a generic failure.
func ErrorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			if appErr.Cause != nil {
				log.WithFields(map[string]interface{}{
					"path":  c.Path(),
					"type":  string(appErr.Type),
					"cause": appErr.Cause.Error(),
				}).Warn(appErr.Message)
			}
			body := fiber.Map{"error": appErr.Type, "message": appErr.Message}
			if appErr.Details != nil {
				body["details"] = appErr.Details
			}
			return c.Status(appErr.HTTPCode).JSON(body)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error":   "HTTP_ERROR",
				"message": fiberErr.Message,
			})
		}

		log.WithFields(map[string]interface{}{"path": c.Path()}).Errorf("unhandled error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "INTERNAL_ERROR",
			"message": "internal server error",
		})
	}
}

// RequestID tags every request with a UUID, honoring one supplied by the
// caller.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Generator: uuid.NewString,
	})
}

// AccessLog writes one structured line per request.
func AccessLog(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		rid, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
		status := c.Response().StatusCode()
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				status = appErr.HTTPCode
			}
		}

		log.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", rid),
			zap.String("ip", c.IP()),
		)
		return err
	}
}
