package inference

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"GranoFino/internal/entity"
	"GranoFino/pkg/log"

	"github.com/gorilla/websocket"
)

type webSocketDetector struct {
	url          string
	conn         *websocket.Conn
	mu           sync.Mutex
	stop         chan struct{}
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewWebSocketDetector(url string, timeout time.Duration) IDetector {
	return &webSocketDetector{
		url:          url,
		stop:         make(chan struct{}),
		pingInterval: 30 * time.Second,
		readTimeout:  timeout,
		writeTimeout: 5 * time.Second,
	}
}

func (d *webSocketDetector) reconnectLocked() error {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}

	log.Info(log.Fields{"url": d.url}, "Connecting to inference backend")

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(d.url, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to connect to %s: %v", ErrBackendUnavailable, d.url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(d.writeTimeout))
		if err != nil {
			log.Warn(log.Fields{"error": err.Error()}, "Error sending pong")
		}
		return nil
	})

	d.conn = conn
	go d.keepAlive(conn)

	return nil
}

func (d *webSocketDetector) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(d.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
		}

		d.mu.Lock()
		if d.conn != conn {
			d.mu.Unlock()
			return
		}

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(d.writeTimeout))
		if err != nil {
			log.Warn(log.Fields{"error": err.Error()}, "Ping failed, marking inference connection as dead")
			d.conn = nil
			conn.Close()
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
	}
}

// Detect holds the connection lock for the whole round trip; the backend
// answers frames in order and replies must not interleave.
func (d *webSocketDetector) Detect(ctx context.Context, image []byte, contentType string, params entity.InferenceParams) ([]entity.Detection, error) {
	payload, err := json.Marshal(detectRequest{
		Image:       base64.StdEncoding.EncodeToString(image),
		ContentType: contentType,
		Confidence:  params.Confidence,
		ImageSize:   params.ImageSize,
		Model:       params.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		if err := d.reconnectLocked(); err != nil {
			return nil, err
		}
	}
	conn := d.conn

	writeDeadline := deadline(ctx, d.writeTimeout)
	conn.SetWriteDeadline(writeDeadline)
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		d.dropLocked(conn)
		return nil, fmt.Errorf("%w: error sending frame: %v", ErrBackendUnavailable, err)
	}

	conn.SetReadDeadline(deadline(ctx, d.readTimeout))
	_, message, err := conn.ReadMessage()
	if err != nil {
		d.dropLocked(conn)
		return nil, fmt.Errorf("%w: error reading reply: %v", ErrBackendUnavailable, err)
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	var result detectResponse
	if err := json.Unmarshal(message, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrBackendRejected, result.Error)
	}

	return filterDetections(result.Detections, params.Confidence), nil
}

func (d *webSocketDetector) dropLocked(conn *websocket.Conn) {
	if d.conn == conn {
		d.conn = nil
	}
	conn.Close()
}

func (d *webSocketDetector) Health(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil {
		return nil
	}
	return d.reconnectLocked()
}

func (d *webSocketDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	select {
	case <-d.stop:
	default:
		close(d.stop)
	}

	if d.conn != nil {
		err := d.conn.Close()
		d.conn = nil
		return err
	}
	return nil
}

func deadline(ctx context.Context, timeout time.Duration) time.Time {
	limit := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(limit) {
		return ctxDeadline
	}
	return limit
}
