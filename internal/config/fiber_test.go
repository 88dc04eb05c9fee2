package config

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"GranoFino/internal/api/prediction"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFiber_SortsSummaryKeys(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	app := NewFiber(logger, "test", 1024)
	app.Get("/summary", func(c *fiber.Ctx) error {
		return c.JSON(map[string]prediction.ClassSummary{
			"GSF":                   {Count: 3, Percentage: "50.0%"},
			"GBF":                   {Count: 1, Percentage: "16.67%"},
			prediction.UnknownClass: {Count: 1, Percentage: "16.67%"},
			"GIF":                   {Count: 1, Percentage: "16.67%"},
		})
	})

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/summary", nil), -1)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t,
			`{"Desconocido":{"count":1,"percentage":"16.67%"},"GBF":{"count":1,"percentage":"16.67%"},"GIF":{"count":1,"percentage":"16.67%"},"GSF":{"count":3,"percentage":"50.0%"}}`,
			string(body),
		)
	}
}
