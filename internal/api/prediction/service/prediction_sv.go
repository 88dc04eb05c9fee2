package predictionService

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"GranoFino/internal/api/prediction"
	"GranoFino/internal/entity"
	"GranoFino/pkg/log"
	"GranoFino/pkg/response"
	"GranoFino/pkg/utils"
)

func (s *predictionService) PredictJSON(ctx context.Context, upload prediction.ImageUpload) (*prediction.PredictionResponse, error) {
	img, detections, err := s.run(ctx, upload)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	result := prediction.Summarize(upload.Filename, bounds.Dx(), bounds.Dy(), detections)

	log.WithRequestID(ctx).WithFields(log.Fields{
		"filename": upload.Filename,
		"total":    result.Total,
	}).Info(fmt.Sprintf("Processed: %s | Found: %d beans", upload.Filename, result.Total))

	return result, nil
}

func (s *predictionService) PredictImage(ctx context.Context, upload prediction.ImageUpload) ([]byte, error) {
	img, detections, err := s.run(ctx, upload)
	if err != nil {
		return nil, err
	}

	annotated := s.renderer.Annotate(img, detections)

	var buf bytes.Buffer
	if err := s.renderer.EncodePNG(&buf, annotated); err != nil {
		return nil, fmt.Errorf("encode annotated image: %w", err)
	}

	log.WithRequestID(ctx).WithFields(log.Fields{
		"filename": upload.Filename,
		"total":    len(detections),
		"bytes":    buf.Len(),
	}).Debug("Annotated image rendered")

	return buf.Bytes(), nil
}

func (s *predictionService) Ready(ctx context.Context) error {
	if err := s.detector.Health(ctx); err != nil {
		log.WithRequestID(ctx).WithField("error", err.Error()).Warn("Inference backend not ready")
		return response.Wrap(prediction.ErrModelUnavailable, err)
	}
	return nil
}

// run validates, decodes and detects. Decode and detector failures are
// returned unwrapped and surface as generic server errors.
func (s *predictionService) run(ctx context.Context, upload prediction.ImageUpload) (*image.RGBA, []entity.Detection, error) {
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return nil, nil, prediction.ErrInvalidImage
	}

	img, format, err := s.utils.DecodeImage(upload.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode image %q: %w", upload.Filename, err)
	}

	log.WithRequestID(ctx).WithFields(log.Fields{
		"filename": upload.Filename,
		"format":   format,
		"width":    img.Bounds().Dx(),
		"height":   img.Bounds().Dy(),
	}).Debug("Image decoded")

	detections, err := s.detect(ctx, upload)
	if err != nil {
		return nil, nil, err
	}

	for _, det := range detections {
		s.metrics.CountDetection(prediction.ClassName(det.ClassID))
	}

	s.archiveUpload(ctx, upload)

	return img, detections, nil
}

func (s *predictionService) detect(ctx context.Context, upload prediction.ImageUpload) ([]entity.Detection, error) {
	var digest string
	if s.cache != nil {
		digest = utils.SHA256Hex(upload.Data)
		cached, ok, err := s.cache.GetDetections(ctx, digest, s.params)
		if err != nil {
			log.WithRequestID(ctx).WithField("error", err.Error()).Warn("Detection cache lookup failed")
		}
		s.metrics.CacheLookup(ok)
		if ok {
			return cached, nil
		}
	}

	start := time.Now()
	detections, err := s.detector.Detect(ctx, upload.Data, upload.ContentType, s.params)
	s.metrics.ObserveInference(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("run inference: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetDetections(ctx, digest, s.params, detections); err != nil {
			log.WithRequestID(ctx).WithField("error", err.Error()).Warn("Detection cache store failed")
		}
	}

	return detections, nil
}

func (s *predictionService) archiveUpload(ctx context.Context, upload prediction.ImageUpload) {
	if s.archive == nil {
		return
	}

	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		log.WithRequestID(ctx).WithField("error", err.Error()).Warn("Failed to generate archive key")
		return
	}

	location, err := s.archive.UploadObject(ctx, id, upload.Filename, upload.ContentType, upload.Data)
	if err != nil {
		log.WithRequestID(ctx).WithFields(log.Fields{
			"filename": upload.Filename,
			"error":    err.Error(),
		}).Warn("Failed to archive upload")
		return
	}

	log.WithRequestID(ctx).WithField("location", location).Debug("Upload archived")
}
