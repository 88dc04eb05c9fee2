package utils

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrNoFile        = errors.New("no file uploaded")
	ErrFileTooLarge  = errors.New("file size exceeds limit")
	ErrNotAnImage    = errors.New("uploaded file is not an image")
	ErrEmptyImage    = errors.New("image has no pixels")
	defaultMaxUpload = int64(20 * 1024 * 1024)
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	ReadFile(file *multipart.FileHeader) ([]byte, error)
	DecodeImage(data []byte) (*image.RGBA, string, error)
	MaxFileSize() int64
}

type utils struct {
	maxFileSize int64
}

func New() IUtils {
	return &utils{
		maxFileSize: defaultMaxUpload,
	}
}

func NewWithMaxFileSize(maxFileSize int64) IUtils {
	if maxFileSize <= 0 {
		maxFileSize = defaultMaxUpload
	}
	return &utils{
		maxFileSize: maxFileSize,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoFile
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotAnImage
	}

	if file.Size > u.maxFileSize {
		return ErrFileTooLarge
	}

	return nil
}

func (u *utils) ReadFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(io.LimitReader(src, u.maxFileSize+1))
}

func (u *utils) MaxFileSize() int64 {
	return u.maxFileSize
}

// DecodeImage decodes any registered format into an RGBA copy whose bounds
// start at the origin.
func (u *utils) DecodeImage(data []byte) (*image.RGBA, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, format, ErrEmptyImage
	}

	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return rgba, format, nil
}

func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Round rounds to the given number of decimal places using the exact
// binary value of v, so exact ties go to the even digit.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}

// FormatDecimal renders a float the way a Python float prints: shortest
// representation, always with a fractional part.
func FormatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
