package predictionHandler

import (
	"errors"
	"time"

	"GranoFino/internal/api/prediction"
	contextPkg "GranoFino/pkg/context"
	"GranoFino/pkg/handlerUtil"
	"GranoFino/pkg/log"
	"GranoFino/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *PredictionHandler) PredictImage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing annotated image prediction request")

	upload, err := h.readUpload(ctx, requestID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_upload")
	}

	annotated, err := h.predictionService.PredictImage(c, upload)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "predict_image")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleBinary(ctx, fiber.StatusOK, "image/png", annotated)
	}
}

func (h *PredictionHandler) PredictJSON(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing JSON prediction request")

	upload, err := h.readUpload(ctx, requestID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_upload")
	}

	result, err := h.predictionService.PredictJSON(c, upload)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "predict_json")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *PredictionHandler) Ready(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	if err := h.predictionService.Ready(c); err != nil {
		return handlerUtil.New(h.log).Handle(ctx, requestID, err, ctx.Path(), "ready")
	}

	return ctx.JSON(prediction.StatusResponse{Status: "ready"})
}

// readUpload pulls the "file" field and checks it is an image upload.
func (h *PredictionHandler) readUpload(ctx *fiber.Ctx, requestID string) (prediction.ImageUpload, error) {
	file, err := ctx.FormFile("file")
	if err != nil {
		return prediction.ImageUpload{}, prediction.ErrMissingFile
	}

	h.log.WithFields(log.Fields{
		"request_id":   requestID,
		"file_name":    file.Filename,
		"file_size":    file.Size,
		"content_type": file.Header.Get(fiber.HeaderContentType),
	}).Debug("Processing file upload")

	if err := h.utils.ValidateImageFile(file); err != nil {
		switch {
		case errors.Is(err, utils.ErrNotAnImage):
			return prediction.ImageUpload{}, prediction.ErrInvalidImage
		case errors.Is(err, utils.ErrFileTooLarge):
			return prediction.ImageUpload{}, prediction.ErrFileTooLarge
		default:
			return prediction.ImageUpload{}, prediction.ErrMissingFile
		}
	}

	data, err := h.utils.ReadFile(file)
	if err != nil {
		return prediction.ImageUpload{}, err
	}

	return prediction.ImageUpload{
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}
