package config

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// map keys are marshalled sorted so summary output is stable
var json = jsoniter.ConfigCompatibleWithStandardLibrary

func NewFiber(logger *logrus.Logger, appName string, bodyLimit int) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:               appName,
			BodyLimit:             bodyLimit,
			DisableKeepalive:      false,
			StrictRouting:         true,
			CaseSensitive:         true,
			DisableStartupMessage: true,
			JSONEncoder:           json.Marshal,
			JSONDecoder:           json.Unmarshal,
		})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "*",
	}))

	logger.Debugf("Fiber app %q configured with %d byte body limit", appName, bodyLimit)

	return app
}
