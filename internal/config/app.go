package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"GranoFino/internal/api/prediction"
	"GranoFino/internal/entity"

	"github.com/go-playground/validator/v10"
)

type AppConfig struct {
	Env     string `validate:"required"`
	Port    string `validate:"required,numeric"`
	AppName string `validate:"required"`

	ConfThreshold float64 `validate:"gt=0,lt=1"`
	ImageSize     int     `validate:"gt=0,max=4096"`
	ModelPath     string  `validate:"required"`

	InferenceTransport string        `validate:"oneof=http ws"`
	InferenceURL       string        `validate:"required,url"`
	InferenceTimeout   time.Duration `validate:"gt=0"`
	RequestTimeout     time.Duration `validate:"gt=0"`

	MaxUploadMB    int     `validate:"gt=0,max=512"`
	RateLimitRPS   float64 `validate:"gt=0"`
	RateLimitBurst int     `validate:"gt=0"`

	RedisAddress  string
	RedisPassword string
	RedisDB       int           `validate:"gte=0"`
	CacheTTL      time.Duration `validate:"gte=0"`

	AWSRegion          string `validate:"required_with=AWSBucketName"`
	AWSBucketName      string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

// LoadAppConfig reads the environment. Unset variables fall back to the
// defaults the model was published with.
func LoadAppConfig() (*AppConfig, error) {
	var err error
	cfg := &AppConfig{
		Env:                getEnv("APP_ENV", "development"),
		Port:               getEnv("APP_PORT", "8000"),
		AppName:            getEnv("APP_NAME", prediction.AppName),
		ModelPath:          getEnv("MODEL_PATH", "best12.pt"),
		InferenceTransport: getEnv("INFERENCE_TRANSPORT", "http"),
		InferenceURL:       getEnv("INFERENCE_URL", "http://localhost:5000/predict"),
		RedisAddress:       os.Getenv("REDIS_ADDRESS"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		AWSRegion:          os.Getenv("AWS_REGION"),
		AWSBucketName:      os.Getenv("AWS_BUCKET_NAME"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}

	if cfg.ConfThreshold, err = getFloat("CONF_THRESHOLD", prediction.ConfThreshold); err != nil {
		return nil, err
	}
	if cfg.ImageSize, err = getInt("IMAGE_SIZE", prediction.ImageSize); err != nil {
		return nil, err
	}
	if cfg.InferenceTimeout, err = getDuration("INFERENCE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxUploadMB, err = getInt("MAX_UPLOAD_MB", 20); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *AppConfig) Validate(v *validator.Validate) error {
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := v.Struct(c.InferenceParams()); err != nil {
		return fmt.Errorf("invalid inference parameters: %w", err)
	}
	return nil
}

// DisplayName is the fiber app name, e.g. "GranoFino API v1.0.0".
func (c *AppConfig) DisplayName() string {
	return fmt.Sprintf("%s v%s", c.AppName, prediction.AppVersion)
}

func (c *AppConfig) InferenceParams() entity.InferenceParams {
	return entity.InferenceParams{
		Confidence: c.ConfThreshold,
		ImageSize:  c.ImageSize,
		Model:      c.ModelPath,
	}
}

func (c *AppConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

func (c *AppConfig) CacheEnabled() bool {
	return c.RedisAddress != ""
}

func (c *AppConfig) ArchiveEnabled() bool {
	return c.AWSBucketName != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}
