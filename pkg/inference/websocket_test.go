package inference

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, reply func(req detectRequest) string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req detectRequest
			if err := json.Unmarshal(message, &req); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(reply(req))); err != nil {
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebSocketDetector_Detect(t *testing.T) {
	requests := make(chan detectRequest, 4)
	server := newBackend(t, func(req detectRequest) string {
		requests <- req
		return `{"detections":[{"class_id":1,"confidence":0.77,"bbox":[10,20,30,40]},{"class_id":0,"confidence":0.1,"bbox":[0,0,1,1]}]}`
	})
	defer server.Close()

	detector := NewWebSocketDetector(wsURL(server), 5*time.Second)
	defer detector.Close()

	detections, err := detector.Detect(context.Background(), []byte("frame"), "image/png", testParams)
	require.NoError(t, err)

	require.Len(t, detections, 1)
	assert.Equal(t, 1, detections[0].ClassID)
	assert.Equal(t, []float64{10, 20, 30, 40}, detections[0].BBox)

	got := <-requests
	decoded, err := base64.StdEncoding.DecodeString(got.Image)
	require.NoError(t, err)
	assert.Equal(t, "frame", string(decoded))
	assert.Equal(t, 0.4, got.Confidence)
	assert.Equal(t, 416, got.ImageSize)

	// the connection is reused for the next frame
	_, err = detector.Detect(context.Background(), []byte("frame-2"), "image/png", testParams)
	require.NoError(t, err)
	assert.NoError(t, detector.Health(context.Background()))
}

func TestWebSocketDetector_BackendError(t *testing.T) {
	server := newBackend(t, func(detectRequest) string {
		return `{"error":"bad frame"}`
	})
	defer server.Close()

	detector := NewWebSocketDetector(wsURL(server), 5*time.Second)
	defer detector.Close()

	_, err := detector.Detect(context.Background(), []byte("frame"), "image/png", testParams)
	assert.ErrorIs(t, err, ErrBackendRejected)
}

func TestWebSocketDetector_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(server)
	server.Close()

	detector := NewWebSocketDetector(url, time.Second)
	defer detector.Close()

	_, err := detector.Detect(context.Background(), []byte("frame"), "image/png", testParams)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.ErrorIs(t, detector.Health(context.Background()), ErrBackendUnavailable)
}
