package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strconv"
	"time"

	"GranoFino/internal/entity"
)

type httpDetector struct {
	predictURL string
	healthURL  string
	client     *http.Client
}

func NewHTTPDetector(predictURL string, timeout time.Duration) IDetector {
	return &httpDetector{
		predictURL: predictURL,
		healthURL:  healthURLFor(predictURL),
		client:     &http.Client{Timeout: timeout},
	}
}

func (d *httpDetector) Detect(ctx context.Context, image []byte, contentType string, params entity.InferenceParams) ([]entity.Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="image"`)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}

	fields := map[string]string{
		"conf":  strconv.FormatFloat(params.Confidence, 'f', -1, 64),
		"imgsz": strconv.Itoa(params.ImageSize),
	}
	if params.Model != "" {
		fields["model"] = params.Model
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.predictURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrBackendRejected, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var result detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrBackendRejected, result.Error)
	}

	return filterDetections(result.Detections, params.Confidence), nil
}

func (d *httpDetector) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.healthURL, nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %d", ErrBackendUnavailable, resp.StatusCode)
	}

	return nil
}

func (d *httpDetector) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

// healthURLFor maps http://host/x/predict to http://host/x/health.
func healthURLFor(predictURL string) string {
	u, err := url.Parse(predictURL)
	if err != nil {
		return predictURL + "/health"
	}
	dir := path.Dir(u.Path)
	if dir == "." {
		dir = "/"
	}
	u.Path = path.Join(dir, "health")
	u.RawQuery = ""
	return u.String()
}
