package middleware

import (
	"GranoFino/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Middleware interface {
	NewRateLimiter(ctx *fiber.Ctx) error
	NewRequestIDMiddleware() fiber.Handler
	NewLoggingMiddleware() fiber.Handler
	GetRequestID(ctx *fiber.Ctx) string
}

type Options struct {
	RateLimit rate.Limit
	Burst     int
	Metrics   *metrics.Metrics
}

type middleware struct {
	rateLimitter        *rateLimiter
	loggingMiddleware   *loggingMiddleware
	requestIDMiddleware fiber.Handler
	log                 *logrus.Logger
}

func New(logger *logrus.Logger, opts Options) Middleware {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.Burst <= 0 {
		opts.Burst = 20
	}

	return &middleware{
		rateLimitter:        newRateLimiter(opts.RateLimit, opts.Burst),
		loggingMiddleware:   newLoggingMiddleware(logger, opts.Metrics),
		requestIDMiddleware: NewRequestIDMiddleware(),
		log:                 logger,
	}
}

func (m *middleware) GetRequestID(ctx *fiber.Ctx) string {
	requestID, ok := ctx.Locals(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

func (m *middleware) NewRequestIDMiddleware() fiber.Handler {
	return m.requestIDMiddleware
}
