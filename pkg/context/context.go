package context

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type ctxKey string

const (
	// RequestIDHeader is the header and fiber local carrying the request id.
	RequestIDHeader = "X-Request-ID"

	requestIDKey ctxKey = "request_id"
	unknownID           = "unknown"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return unknownID
	}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		return requestID
	}
	return unknownID
}

// FromFiberCtx returns the fiber user context tagged with the request id
// stored by the request id middleware.
func FromFiberCtx(c *fiber.Ctx) context.Context {
	requestID, _ := c.Locals(RequestIDHeader).(string)
	if requestID == "" {
		requestID = unknownID
	}
	return WithRequestID(c.UserContext(), requestID)
}
