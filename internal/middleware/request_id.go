package middleware

import (
	"time"

	contextPkg "GranoFino/pkg/context"
	"GranoFino/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	RequestIDKey = contextPkg.RequestIDHeader

	maxRequestIDLength = 64
)

// NewRequestIDMiddleware echoes a well formed client X-Request-ID and mints
// a ULID otherwise. Client ids end up in every log line, so anything long or
// outside printable ASCII is replaced.
func NewRequestIDMiddleware() fiber.Handler {
	ids := utils.New()

	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDKey)
		if !validRequestID(requestID) {
			requestID, _ = ids.NewULIDFromTimestamp(time.Now())
		}

		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)

		return c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
