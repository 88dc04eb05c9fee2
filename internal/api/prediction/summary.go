package prediction

import (
	"GranoFino/internal/entity"
	"GranoFino/pkg/utils"
)

// Summarize formats detector output for the JSON endpoint: one item per
// detection in detector order, a per-class count/percentage summary and
// the average confidence over all detections.
func Summarize(filename string, width, height int, detections []entity.Detection) *PredictionResponse {
	items := make([]DetectionItem, 0, len(detections))
	counts := make(map[string]int)
	var confidenceSum float64

	for _, det := range detections {
		item := DetectionItem{
			ClassID:    det.ClassID,
			ClassName:  ClassName(det.ClassID),
			Confidence: utils.Round(det.Confidence, 4),
			BBox:       roundBox(det.BBox),
		}
		items = append(items, item)
		counts[item.ClassName]++
		confidenceSum += item.Confidence
	}

	total := len(items)
	summary := make(map[string]ClassSummary, len(counts))
	averageConfidence := "0%"

	if total > 0 {
		for className, count := range counts {
			percentage := utils.Round(float64(count)/float64(total)*100, 2)
			summary[className] = ClassSummary{
				Count:      count,
				Percentage: utils.FormatDecimal(percentage) + "%",
			}
		}
		average := confidenceSum / float64(total)
		averageConfidence = utils.FormatDecimal(utils.Round(average*100, 2)) + "%"
	}

	return &PredictionResponse{
		Info: PredictionInfo{
			Filename: filename,
			ImageSize: ImageSizeInfo{
				Width:  width,
				Height: height,
			},
			Model:             ModelName,
			AverageConfidence: averageConfidence,
		},
		Summary:    summary,
		Total:      total,
		Detections: items,
	}
}

func roundBox(bbox []float64) []float64 {
	rounded := make([]float64, len(bbox))
	for i, v := range bbox {
		rounded[i] = utils.Round(v, 2)
	}
	return rounded
}
