package entity

// BoxPosition is a bounding box in source image pixels, left/top/right/bottom.
type BoxPosition struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Detection is one object instance returned by the inference backend.
type Detection struct {
	ClassID    int       `json:"class_id"`
	Confidence float64   `json:"confidence"`
	BBox       []float64 `json:"bbox"`
}

// Position returns the box as a BoxPosition. Boxes with fewer than four
// coordinates yield a zero box.
func (d Detection) Position() BoxPosition {
	if len(d.BBox) < 4 {
		return BoxPosition{}
	}
	return BoxPosition{
		X1: d.BBox[0],
		Y1: d.BBox[1],
		X2: d.BBox[2],
		Y2: d.BBox[3],
	}
}

// InferenceParams are forwarded to the backend with every image.
type InferenceParams struct {
	Confidence float64 `json:"conf" validate:"gt=0,lt=1"`
	ImageSize  int     `json:"imgsz" validate:"gt=0,max=4096"`
	Model      string  `json:"model,omitempty"`
}
