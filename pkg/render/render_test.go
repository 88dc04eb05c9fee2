package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"GranoFino/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grayImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	return img
}

func TestAnnotate_DrawsBoxEdges(t *testing.T) {
	r := New(nil, Options{LineWidth: 2})
	src := grayImage(100, 80)

	out := r.Annotate(src, []entity.Detection{
		{ClassID: 1, Confidence: 0.9, BBox: []float64{10, 20, 60, 70}},
	})

	require.Equal(t, src.Bounds(), out.Bounds())
	col := ColorFor(1)
	assert.Equal(t, col, out.RGBAAt(10, 20), "top-left corner")
	assert.Equal(t, col, out.RGBAAt(35, 21), "top edge")
	assert.Equal(t, col, out.RGBAAt(59, 45), "right edge")
	assert.Equal(t, color.RGBA{R: 128, G: 128, B: 128, A: 255}, out.RGBAAt(35, 45), "box interior untouched")

	// source is not modified
	assert.Equal(t, color.RGBA{R: 128, G: 128, B: 128, A: 255}, src.RGBAAt(10, 20))
}

func TestAnnotate_LabelAboveBox(t *testing.T) {
	r := New(func(int) string { return "GBF" }, Options{ShowLabels: true, ShowConfidence: true, LineWidth: 2})
	src := grayImage(200, 200)

	out := r.Annotate(src, []entity.Detection{
		{ClassID: 0, Confidence: 0.87, BBox: []float64{50, 100, 150, 180}},
	})

	// the label tab sits directly above the top-left corner
	assert.Equal(t, ColorFor(0), out.RGBAAt(50, 99))
	assert.Equal(t, color.RGBA{R: 128, G: 128, B: 128, A: 255}, out.RGBAAt(50, 60))
}

func TestAnnotate_LabelInsideWhenNoRoom(t *testing.T) {
	r := New(func(int) string { return "GSF" }, Options{ShowLabels: true, LineWidth: 2})
	src := grayImage(120, 120)

	out := r.Annotate(src, []entity.Detection{
		{ClassID: 2, Confidence: 0.5, BBox: []float64{10, 0, 110, 100}},
	})

	assert.Equal(t, ColorFor(2), out.RGBAAt(10, 5))
	assert.Equal(t, color.RGBA{R: 128, G: 128, B: 128, A: 255}, out.RGBAAt(60, 60))
}

func TestAnnotate_SkipsBoxesOutsideImage(t *testing.T) {
	r := New(nil, Options{ShowLabels: true})
	src := grayImage(30, 30)

	out := r.Annotate(src, []entity.Detection{
		{ClassID: 0, Confidence: 0.9, BBox: []float64{40, 40, 60, 60}},
		{ClassID: 0, Confidence: 0.9, BBox: []float64{1, 2}},
	})

	assert.Equal(t, src.Pix, out.Pix)
}

func TestEncodePNG_RoundTrip(t *testing.T) {
	r := New(nil, Options{})
	out := r.Annotate(grayImage(33, 17), nil)

	var buf bytes.Buffer
	require.NoError(t, r.EncodePNG(&buf, out))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 33, 17), decoded.Bounds())
}

func TestLineWidth(t *testing.T) {
	assert.Equal(t, 2, LineWidth(image.Rect(0, 0, 100, 100)))
	assert.Equal(t, 4, LineWidth(image.Rect(0, 0, 1280, 1280)))
}

func TestColorFor_WrapsPalette(t *testing.T) {
	assert.Equal(t, ColorFor(0), ColorFor(len(palette)))
	assert.Equal(t, ColorFor(3), ColorFor(-3))
}
