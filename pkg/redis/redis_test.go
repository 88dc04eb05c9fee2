package redis

import (
	"context"
	"io"
	"testing"
	"time"

	"GranoFino/internal/entity"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	params := entity.InferenceParams{Confidence: 0.4, ImageSize: 416, Model: "best12.pt"}

	assert.Equal(t, "prediction:abc:0.4:416", Key("abc", params))
	assert.NotEqual(t, Key("abc", params), Key("abc", entity.InferenceParams{Confidence: 0.5, ImageSize: 416}))
}

func TestGetDetections_Unreachable(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	cache := NewFromClient(client, 0, logger)
	defer cache.Close()

	_, ok, err := cache.GetDetections(context.Background(), "abc", entity.InferenceParams{Confidence: 0.4, ImageSize: 416})
	assert.Error(t, err)
	assert.False(t, ok)
}
