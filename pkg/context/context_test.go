package context

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRequestID(t *testing.T) {
	assert.Equal(t, "unknown", GetRequestID(context.Background()))
	assert.Equal(t, "abc", GetRequestID(WithRequestID(context.Background(), "abc")))
	assert.Equal(t, "unknown", GetRequestID(context.WithValue(context.Background(), "request_id", "plain-string-key")))
}

func TestFromFiberCtx(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		c.Locals(RequestIDHeader, "01JTESTREQUEST")
		return c.SendString(GetRequestID(FromFiberCtx(c)))
	})
	app.Get("/none", func(c *fiber.Ctx) error {
		return c.SendString(GetRequestID(FromFiberCtx(c)))
	})

	for path, want := range map[string]string{"/": "01JTESTREQUEST", "/none": "unknown"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, want, string(body))
	}
}
