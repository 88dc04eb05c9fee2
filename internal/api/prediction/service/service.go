package predictionService

import (
	"context"

	"GranoFino/internal/api/prediction"
	"GranoFino/internal/entity"
	"GranoFino/pkg/inference"
	"GranoFino/pkg/metrics"
	"GranoFino/pkg/redis"
	"GranoFino/pkg/render"
	"GranoFino/pkg/s3"
	"GranoFino/pkg/utils"

	"github.com/sirupsen/logrus"
)

type IPredictionService interface {
	PredictJSON(ctx context.Context, upload prediction.ImageUpload) (*prediction.PredictionResponse, error)
	PredictImage(ctx context.Context, upload prediction.ImageUpload) ([]byte, error)
	Ready(ctx context.Context) error
}

type predictionService struct {
	log      *logrus.Logger
	detector inference.IDetector
	renderer render.IRenderer
	utils    utils.IUtils
	cache    redis.IRedis
	archive  s3.ItfS3
	metrics  *metrics.Metrics
	params   entity.InferenceParams
}

// NewPredictionService wires the detector and renderer. cache, archive and
// metrics are optional and may be nil.
func NewPredictionService(
	log *logrus.Logger,
	detector inference.IDetector,
	renderer render.IRenderer,
	utils utils.IUtils,
	cache redis.IRedis,
	archive s3.ItfS3,
	metrics *metrics.Metrics,
	params entity.InferenceParams,
) IPredictionService {
	return &predictionService{
		log:      log,
		detector: detector,
		renderer: renderer,
		utils:    utils,
		cache:    cache,
		archive:  archive,
		metrics:  metrics,
		params:   params,
	}
}
