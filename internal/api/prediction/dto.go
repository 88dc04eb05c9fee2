package prediction

const (
	AppName    = "GranoFino API"
	AppVersion = "1.0.0"
	ModelName  = "YOLO11l-GranoFino"

	ConfThreshold = 0.4
	ImageSize     = 416

	UnknownClass = "Desconocido"
)

// ClassNames is the label map the checkpoint was trained with.
var ClassNames = map[int]string{
	0: "GBF",
	1: "GIF",
	2: "GSF",
}

func ClassName(classID int) string {
	if name, ok := ClassNames[classID]; ok {
		return name
	}
	return UnknownClass
}

type ImageSizeInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type PredictionInfo struct {
	Filename          string        `json:"filename"`
	ImageSize         ImageSizeInfo `json:"image_size"`
	Model             string        `json:"model"`
	AverageConfidence string        `json:"average_confidence"`
}

type ClassSummary struct {
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

type DetectionItem struct {
	ClassID    int       `json:"class_id"`
	ClassName  string    `json:"class_name"`
	Confidence float64   `json:"confidence"`
	BBox       []float64 `json:"bbox"`
}

type PredictionResponse struct {
	Info       PredictionInfo          `json:"info"`
	Summary    map[string]ClassSummary `json:"summary"`
	Total      int                     `json:"total"`
	Detections []DetectionItem         `json:"detections"`
}

// ImageUpload is one uploaded image as received by a handler.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type StreamError struct {
	Error string `json:"error"`
}
