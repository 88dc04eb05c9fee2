package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"GranoFino/internal/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "prediction"

// IRedis caches detector output per image digest and inference params.
type IRedis interface {
	GetDetections(ctx context.Context, digest string, params entity.InferenceParams) ([]entity.Detection, bool, error)
	SetDetections(ctx context.Context, digest string, params entity.InferenceParams, detections []entity.Detection) error
	Close() error
}

type Options struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

type redisClient struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

func New(opts Options, logger *logrus.Logger) IRedis {
	logger.Info(fmt.Sprintf("Connecting to Redis at %s...", opts.Address))

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logger.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logger.Info("Successfully connected to Redis")
	}

	return NewFromClient(client, opts.TTL, logger)
}

func NewFromClient(client *redis.Client, ttl time.Duration, logger *logrus.Logger) IRedis {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &redisClient{client: client, ttl: ttl, log: logger}
}

func Key(digest string, params entity.InferenceParams) string {
	return fmt.Sprintf("%s:%s:%g:%d", keyPrefix, digest, params.Confidence, params.ImageSize)
}

func (r *redisClient) GetDetections(ctx context.Context, digest string, params entity.InferenceParams) ([]entity.Detection, bool, error) {
	key := Key(digest, params)
	r.log.Debug(fmt.Sprintf("Getting detections for key %s", key))

	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		r.log.Error(fmt.Sprintf("Error getting detections for key %s: %v", key, err))
		return nil, false, err
	}

	var detections []entity.Detection
	if err := jsoniter.Unmarshal(val, &detections); err != nil {
		return nil, false, fmt.Errorf("decode cached detections: %w", err)
	}

	return detections, true, nil
}

func (r *redisClient) SetDetections(ctx context.Context, digest string, params entity.InferenceParams, detections []entity.Detection) error {
	key := Key(digest, params)
	if detections == nil {
		detections = []entity.Detection{}
	}

	payload, err := jsoniter.Marshal(detections)
	if err != nil {
		return fmt.Errorf("encode detections: %w", err)
	}

	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		r.log.Error(fmt.Sprintf("Error setting detections for key %s: %v", key, err))
		return err
	}

	r.log.Debug(fmt.Sprintf("Cached %d detections under %s for %v", len(detections), key, r.ttl))
	return nil
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
