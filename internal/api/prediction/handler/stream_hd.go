package predictionHandler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"GranoFino/internal/api/prediction"
	"GranoFino/internal/middleware"
	contextPkg "GranoFino/pkg/context"
	"GranoFino/pkg/response"

	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
)

// handleStream answers every binary frame with the JSON prediction for it.
func (h *PredictionHandler) handleStream(c *websocket.Conn) {
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)
	logger := h.log.WithField("request_id", requestID)

	logger.Info("Prediction stream client connected")
	defer logger.Info("Prediction stream client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			logger.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	// frames are capped like HTTP uploads; an oversized frame closes the
	// connection with 1009
	c.SetReadLimit(h.utils.MaxFileSize())

	maxReadTimeout := 60 * time.Second
	frame := 0

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			logger.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Errorf("Prediction stream error: %v", err)
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			logger.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		frame++
		upload := prediction.ImageUpload{
			Filename:    fmt.Sprintf("frame-%d", frame),
			ContentType: http.DetectContentType(message),
			Data:        message,
		}

		ctx, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), requestID), h.timeout)
		result, err := h.predictionService.PredictJSON(ctx, upload)
		cancel()

		var reply interface{} = result
		if err != nil {
			logger.Warnf("Error processing frame %d: %v", frame, err)
			reply = streamError(err)
		}

		if err := c.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
			logger.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(reply); err != nil {
			logger.Errorf("Error writing JSON response: %v", err)
			break
		}
	}
}

func streamError(err error) prediction.StreamError {
	var respErr *response.Error
	if errors.As(err, &respErr) {
		return prediction.StreamError{Error: respErr.Error()}
	}
	return prediction.StreamError{Error: "An unexpected error occurred"}
}
