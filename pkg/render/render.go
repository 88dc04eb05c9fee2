package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"GranoFino/internal/entity"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// palette follows the usual YOLO plotting colors so annotated images look
// the same as the ones produced during training.
var palette = []color.RGBA{
	hex(0xFF3838), hex(0xFF9D97), hex(0xFF701F), hex(0xFFB21D), hex(0xCFD231),
	hex(0x48F90A), hex(0x92CC17), hex(0x3DDB86), hex(0x1A9334), hex(0x00D4BB),
	hex(0x2C99A8), hex(0x00C2FF), hex(0x344593), hex(0x6473FF), hex(0x0018EC),
	hex(0x8438FF), hex(0x520085), hex(0xCB38FF), hex(0xFF95C8), hex(0xFF37C7),
}

func hex(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}

type Options struct {
	ShowLabels     bool
	ShowConfidence bool
	// LineWidth of zero derives the width from the image size.
	LineWidth int
}

type IRenderer interface {
	Annotate(img image.Image, detections []entity.Detection) *image.RGBA
	EncodePNG(w io.Writer, img image.Image) error
}

type renderer struct {
	labelFor func(classID int) string
	opts     Options
	face     font.Face
	encoder  *png.Encoder
}

func New(labelFor func(classID int) string, opts Options) IRenderer {
	if labelFor == nil {
		labelFor = func(classID int) string { return fmt.Sprintf("%d", classID) }
	}
	return &renderer{
		labelFor: labelFor,
		opts:     opts,
		face:     basicfont.Face7x13,
		encoder:  &png.Encoder{CompressionLevel: png.BestCompression},
	}
}

func ColorFor(classID int) color.RGBA {
	if classID < 0 {
		classID = -classID
	}
	return palette[classID%len(palette)]
}

// LineWidth mirrors the plotting default: 0.3% of the mean side, at least 2px.
func LineWidth(bounds image.Rectangle) int {
	lw := int(math.Round(float64(bounds.Dx()+bounds.Dy()) / 2 * 0.003))
	if lw < 2 {
		lw = 2
	}
	return lw
}

// Annotate returns a copy of img with every detection drawn on it. The copy
// has the same size as img with bounds starting at the origin.
func (r *renderer) Annotate(img image.Image, detections []entity.Detection) *image.RGBA {
	src := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, src.Dx(), src.Dy()))
	draw.Draw(out, out.Bounds(), img, src.Min, draw.Src)

	lw := r.opts.LineWidth
	if lw <= 0 {
		lw = LineWidth(out.Bounds())
	}

	for _, det := range detections {
		pos := det.Position()
		box := image.Rect(
			int(math.Round(pos.X1)), int(math.Round(pos.Y1)),
			int(math.Round(pos.X2)), int(math.Round(pos.Y2)),
		).Intersect(out.Bounds())
		if box.Empty() {
			continue
		}

		col := ColorFor(det.ClassID)
		DrawRect(out, box, lw, col)

		if r.opts.ShowLabels {
			r.drawLabel(out, box, r.labelText(det), col)
		}
	}

	return out
}

func (r *renderer) labelText(det entity.Detection) string {
	name := r.labelFor(det.ClassID)
	if r.opts.ShowConfidence {
		return fmt.Sprintf("%s %.2f", name, det.Confidence)
	}
	return name
}

func (r *renderer) drawLabel(dst *image.RGBA, box image.Rectangle, text string, bg color.RGBA) {
	metrics := r.face.Metrics()
	textWidth := font.MeasureString(r.face, text).Ceil()
	tabWidth := textWidth + 4
	tabHeight := metrics.Height.Ceil() + 2

	// above the box when it fits, inside otherwise
	tab := image.Rect(box.Min.X, box.Min.Y-tabHeight, box.Min.X+tabWidth, box.Min.Y)
	if tab.Min.Y < dst.Bounds().Min.Y {
		tab = image.Rect(box.Min.X, box.Min.Y, box.Min.X+tabWidth, box.Min.Y+tabHeight)
	}
	tab = tab.Intersect(dst.Bounds())
	if tab.Empty() {
		return
	}

	draw.Draw(dst, tab, image.NewUniform(bg), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColorFor(bg)),
		Face: r.face,
		Dot:  fixed.P(tab.Min.X+2, tab.Min.Y+1+metrics.Ascent.Ceil()),
	}
	drawer.DrawString(text)
}

// textColorFor picks black text on light backgrounds and white otherwise.
func textColorFor(bg color.RGBA) color.RGBA {
	luma := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if luma > 150 {
		return color.RGBA{A: 0xFF}
	}
	return color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
}

// DrawRect strokes the inside edge of rect with the given thickness.
func DrawRect(dst draw.Image, rect image.Rectangle, thickness int, col color.Color) {
	if thickness > rect.Dx()/2+1 {
		thickness = rect.Dx()/2 + 1
	}
	if thickness > rect.Dy()/2+1 {
		thickness = rect.Dy()/2 + 1
	}

	src := image.NewUniform(col)
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+thickness),
		image.Rect(rect.Min.X, rect.Max.Y-thickness, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+thickness, rect.Max.Y),
		image.Rect(rect.Max.X-thickness, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, edge := range edges {
		draw.Draw(dst, edge.Intersect(rect), src, image.Point{}, draw.Src)
	}
}

func (r *renderer) EncodePNG(w io.Writer, img image.Image) error {
	return r.encoder.Encode(w, img)
}
