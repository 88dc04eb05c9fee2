package middleware

import (
	"time"

	"GranoFino/pkg/log"
	"GranoFino/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type loggingMiddleware struct {
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

func newLoggingMiddleware(logger *logrus.Logger, m *metrics.Metrics) *loggingMiddleware {
	return &loggingMiddleware{
		logger:  logger,
		metrics: m,
	}
}

// NewLoggingMiddleware logs one line per request and records request
// metrics. Upload bodies are never logged, only their size.
func (m *middleware) NewLoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			}
		}

		route := c.Route().Path
		m.loggingMiddleware.metrics.ObserveRequest(c.Method(), route, status, latency)

		logFields := log.Fields{
			"request_id":    m.GetRequestID(c),
			"method":        c.Method(),
			"path":          c.Path(),
			"status":        status,
			"latency_ms":    latency.Milliseconds(),
			"ip":            c.IP(),
			"user_agent":    c.Get(fiber.HeaderUserAgent),
			"request_size":  len(c.Request().Body()),
			"response_size": len(c.Response().Body()),
		}

		entry := m.loggingMiddleware.logger.WithFields(logFields)
		if status >= 500 {
			entry.Error("Server error")
		} else if status >= 400 {
			entry.Warn("Client error")
		} else {
			entry.Info("Success")
		}

		return err
	}
}
