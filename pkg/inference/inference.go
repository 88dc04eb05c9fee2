package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"GranoFino/internal/entity"

	jsoniter "github.com/json-iterator/go"
)

const (
	TransportHTTP      = "http"
	TransportWebSocket = "ws"
)

var (
	ErrBackendUnavailable = errors.New("inference backend unavailable")
	ErrBackendRejected    = errors.New("inference backend rejected the request")

	json = jsoniter.ConfigCompatibleWithStandardLibrary
)

// IDetector runs the detection model held by the inference backend.
type IDetector interface {
	Detect(ctx context.Context, image []byte, contentType string, params entity.InferenceParams) ([]entity.Detection, error)
	Health(ctx context.Context) error
	Close() error
}

type Config struct {
	Transport string
	URL       string
	Timeout   time.Duration
}

func New(cfg Config) (IDetector, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("inference URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	switch strings.ToLower(cfg.Transport) {
	case "", TransportHTTP:
		return NewHTTPDetector(cfg.URL, cfg.Timeout), nil
	case TransportWebSocket:
		return NewWebSocketDetector(cfg.URL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown inference transport %q", cfg.Transport)
	}
}

type detectResponse struct {
	Detections []entity.Detection `json:"detections"`
	Error      string             `json:"error,omitempty"`
}

type detectRequest struct {
	Image       string  `json:"image"`
	ContentType string  `json:"content_type,omitempty"`
	Confidence  float64 `json:"conf"`
	ImageSize   int     `json:"imgsz"`
	Model       string  `json:"model,omitempty"`
}

// filterDetections drops boxes under the threshold and malformed boxes.
func filterDetections(detections []entity.Detection, threshold float64) []entity.Detection {
	filtered := make([]entity.Detection, 0, len(detections))
	for _, det := range detections {
		if det.Confidence < threshold {
			continue
		}
		if len(det.BBox) != 4 {
			continue
		}
		filtered = append(filtered, det)
	}
	return filtered
}
