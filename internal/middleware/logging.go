package middleware

import (
	"errors"
	"time"

	"storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// RequestLogger attaches a logger carrying the request id to the user
// context and logs every completed request. It must run after requestid.New.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
		l := logger.Logger.With().Str("request_id", requestID).Logger()
		c.SetUserContext(l.WithContext(c.UserContext()))

		err := c.Next()

		status := statusOf(c, err)
		duration := time.Since(start)

		event := l.Info()
		if status >= fiber.StatusInternalServerError {
			event = l.Error().Err(err)
		} else if status >= fiber.StatusBadRequest {
			event = l.Warn()
		}
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", duration).
			Str("ip", c.IP()).
			Msg("request completed")

		return err
	}
}

// statusOf predicts the response status of a request whose handler returned
// err, before the app error handler has run.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
