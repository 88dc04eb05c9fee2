package config

import (
	"context"
	"fmt"
	"time"

	"GranoFino/internal/api/prediction"
	predictionHandler "GranoFino/internal/api/prediction/handler"
	predictionService "GranoFino/internal/api/prediction/service"
	"GranoFino/internal/middleware"
	"GranoFino/pkg/inference"
	"GranoFino/pkg/metrics"
	"GranoFino/pkg/redis"
	"GranoFino/pkg/render"
	"GranoFino/pkg/s3"
	"GranoFino/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type ServerOption func(*Server) error

type Server struct {
	engine     *fiber.App
	cfg        *AppConfig
	log        *logrus.Logger
	middleware middleware.Middleware
	validator  *validator.Validate
	utils      utils.IUtils
	handlers   []handler
	detector   inference.IDetector
	renderer   render.IRenderer
	cache      redis.IRedis
	archive    s3.ItfS3
	metrics    *metrics.Metrics
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if server.detector == nil {
		return nil, fmt.Errorf("detector is required")
	}
	if server.middleware == nil {
		return nil, fmt.Errorf("middleware is required")
	}
	if server.utils == nil {
		server.utils = utils.NewWithMaxFileSize(server.cfg.MaxUploadBytes())
	}
	if server.renderer == nil {
		server.renderer = NewRenderer()
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithConfig(cfg *AppConfig) ServerOption {
	return func(s *Server) error {
		s.cfg = cfg
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		if s.cfg != nil {
			return s.cfg.Validate(validator)
		}
		return nil
	}
}

func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) error {
		s.metrics = m
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		if s.cfg == nil {
			return fmt.Errorf("configuration must be loaded before middleware")
		}
		s.middleware = middleware.New(s.log, middleware.Options{
			RateLimit: rate.Limit(s.cfg.RateLimitRPS),
			Burst:     s.cfg.RateLimitBurst,
			Metrics:   s.metrics,
		})
		return nil
	}
}

// WithDetector uses the given detector, or builds one from the
// configuration when detector is nil.
func WithDetector(detector inference.IDetector) ServerOption {
	return func(s *Server) error {
		if detector != nil {
			s.detector = detector
			return nil
		}
		if s.cfg == nil {
			return fmt.Errorf("configuration must be loaded before detector")
		}

		built, err := inference.New(inference.Config{
			Transport: s.cfg.InferenceTransport,
			URL:       s.cfg.InferenceURL,
			Timeout:   s.cfg.InferenceTimeout,
		})
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to create detector: %v", err)
			}
			return fmt.Errorf("failed to create detector: %w", err)
		}
		s.detector = built

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := built.Health(ctx); err != nil && s.log != nil {
			s.log.Warnf("Inference backend not available yet: %v", err)
		}
		return nil
	}
}

func WithRenderer(renderer render.IRenderer) ServerOption {
	return func(s *Server) error {
		s.renderer = renderer
		return nil
	}
}

// WithRedisCache is a no-op when no Redis address is configured.
func WithRedisCache() ServerOption {
	return func(s *Server) error {
		if s.cfg == nil || !s.cfg.CacheEnabled() {
			return nil
		}
		s.cache = redis.New(redis.Options{
			Address:  s.cfg.RedisAddress,
			Password: s.cfg.RedisPassword,
			DB:       s.cfg.RedisDB,
			TTL:      s.cfg.CacheTTL,
		}, s.log)
		return nil
	}
}

// WithS3Archive is a no-op when no bucket is configured.
func WithS3Archive() ServerOption {
	return func(s *Server) error {
		if s.cfg == nil || !s.cfg.ArchiveEnabled() {
			return nil
		}
		client, err := s3.New(s3.Options{
			Region:          s.cfg.AWSRegion,
			BucketName:      s.cfg.AWSBucketName,
			AccessKeyID:     s.cfg.AWSAccessKeyID,
			SecretAccessKey: s.cfg.AWSSecretAccessKey,
		})
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.archive = client
		return nil
	}
}

func WithUtils(u utils.IUtils) ServerOption {
	return func(s *Server) error {
		s.utils = u
		return nil
	}
}

func NewRenderer() render.IRenderer {
	return render.New(prediction.ClassName, render.Options{
		ShowLabels:     true,
		ShowConfidence: true,
	})
}

func (s *Server) RegisterHandler() {
	predictionServices := predictionService.NewPredictionService(
		s.log,
		s.detector,
		s.renderer,
		s.utils,
		s.cache,
		s.archive,
		s.metrics,
		s.cfg.InferenceParams(),
	)
	predictionHandlers := predictionHandler.New(s.log, s.middleware, predictionServices, s.utils, s.cfg.RequestTimeout)

	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	s.setupHealthCheck()
	s.setupMetrics()
	s.handlers = append(s.handlers, predictionHandlers)

	for _, h := range s.handlers {
		h.Start(s.engine)
	}
}

func (s *Server) App() *fiber.App {
	return s.engine
}

func (s *Server) Run() error {
	return s.engine.Listen(fmt.Sprintf(":%s", s.cfg.Port))
}

func (s *Server) Shutdown(timeout time.Duration) error {
	err := s.engine.ShutdownWithTimeout(timeout)

	if closeErr := s.detector.Close(); closeErr != nil {
		s.log.Warnf("Error closing detector: %v", closeErr)
	}
	if s.cache != nil {
		if closeErr := s.cache.Close(); closeErr != nil {
			s.log.Warnf("Error closing Redis client: %v", closeErr)
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(prediction.StatusResponse{
			Status:  "ok",
			Message: "GranoFino API funcionando",
		})
	})

	s.engine.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(prediction.StatusResponse{
			Status: "healthy",
		})
	})
}

func (s *Server) setupMetrics() {
	if s.metrics == nil {
		return
	}
	s.engine.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
}
