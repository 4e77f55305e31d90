package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/itsib/0x-swap-api/internal/apierrors"
	"github.com/itsib/0x-swap-api/internal/metrics"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

// RequestLogger tags each request with an id (the caller's X-Request-Id
// when present) and logs it once served.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		id := c.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(requestIDKey, id)
		c.Set(requestIDHeader, id)

		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status, _ = statusOf(err)
		}
		logger.Info("http.request",
			zap.String("request_id", id),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		)
		return err
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// Instrument records latency and outcome of an endpoint.
func Instrument(endpoint string, next fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := next(c)
		status := c.Response().StatusCode()
		if err != nil {
			status, _ = statusOf(err)
		}
		metrics.QuoteLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		metrics.Quotes.WithLabelValues(endpoint, outcome(status)).Inc()
		return err
	}
}

func outcome(status int) string {
	switch {
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	default:
		return "ok"
	}
}

func statusOf(err error) (int, apierrors.Body) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, apierrors.Body{Reason: fe.Message}
	}
	return apierrors.ToBody(err)
}

// ErrorHandler renders returned errors as the API error body. Errors
// outside the API taxonomy are logged and reported as a generic 500.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := statusOf(err)
		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("request_id", requestID(c)),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Error(err),
			)
		}
		c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
		return c.Status(status).JSON(body)
	}
}
