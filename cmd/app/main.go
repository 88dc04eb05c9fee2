package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"GranoFino/internal/config"
	"GranoFino/pkg/log"
	"GranoFino/pkg/metrics"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn(log.Fields{"error": err.Error()}, "Error loading .env file")
	}
	logger := log.NewLogger()

	appConfig, err := config.LoadAppConfig()
	if err != nil {
		logger.Fatalf("Error loading configuration: %v", err)
	}

	fiberApp := config.NewFiber(logger, appConfig.DisplayName(), int(appConfig.MaxUploadBytes())+1024*1024)
	validator := config.NewValidator()

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithConfig(appConfig),
		config.WithValidator(validator),
		config.WithMetrics(metrics.New()),
		config.WithMiddleware(),
		config.WithDetector(nil),
		config.WithRenderer(config.NewRenderer()),
		config.WithRedisCache(),
		config.WithS3Archive(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.WithFields(log.Fields{
		"app":       appConfig.DisplayName(),
		"port":      appConfig.Port,
		"transport": appConfig.InferenceTransport,
		"inference": appConfig.InferenceURL,
		"model":     appConfig.ModelPath,
	}).Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")

	if err := server.Shutdown(10 * time.Second); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
