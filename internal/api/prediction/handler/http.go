package predictionHandler

import (
	"time"

	predictionService "GranoFino/internal/api/prediction/service"
	"GranoFino/internal/middleware"
	"GranoFino/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type PredictionHandler struct {
	log               *logrus.Logger
	middleware        middleware.Middleware
	predictionService predictionService.IPredictionService
	utils             utils.IUtils
	timeout           time.Duration
}

func New(
	log *logrus.Logger,
	middleware middleware.Middleware,
	ps predictionService.IPredictionService,
	utils utils.IUtils,
	timeout time.Duration,
) *PredictionHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PredictionHandler{
		predictionService: ps,
		log:               log,
		middleware:        middleware,
		utils:             utils,
		timeout:           timeout,
	}
}

func (h *PredictionHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	srv.Get("/ready", h.Ready)

	predict := srv.Group("/predict", h.middleware.NewRateLimiter)
	predict.Post("/image", h.PredictImage)
	predict.Post("/json", h.PredictJSON)

	predict.Use("/ws", wsMiddleware)
	predict.Get("/ws", websocket.New(h.handleStream))
}
