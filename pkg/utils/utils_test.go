package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(contentType string, size int64) *multipart.FileHeader {
	header := make(textproto.MIMEHeader)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return &multipart.FileHeader{
		Filename: "upload",
		Header:   header,
		Size:     size,
	}
}

func TestValidateImageFile(t *testing.T) {
	u := NewWithMaxFileSize(1024)

	tests := []struct {
		name string
		file *multipart.FileHeader
		want error
	}{
		{name: "jpeg", file: fileHeader("image/jpeg", 10), want: nil},
		{name: "png", file: fileHeader("image/png", 1024), want: nil},
		{name: "text", file: fileHeader("text/plain", 10), want: ErrNotAnImage},
		{name: "no content type", file: fileHeader("", 10), want: ErrNotAnImage},
		{name: "too large", file: fileHeader("image/png", 1025), want: ErrFileTooLarge},
		{name: "nil", file: nil, want: ErrNoFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := u.ValidateImageFile(tt.file)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 25, 15))
	src.Set(5, 5, color.NRGBA{R: 200, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, format, err := New().DecodeImage(buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 20, 10), img.Bounds())
	assert.Equal(t, color.RGBA{R: 200, A: 255}, img.RGBAAt(0, 0))
}

func TestDecodeImage_Garbage(t *testing.T) {
	_, _, err := New().DecodeImage([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestNewULIDFromTimestamp(t *testing.T) {
	u := New()
	first, err := u.NewULIDFromTimestamp(time.Now())
	require.NoError(t, err)
	second, err := u.NewULIDFromTimestamp(time.Now())
	require.NoError(t, err)

	assert.Len(t, first, 26)
	assert.NotEqual(t, first, second)
}

func TestRoundAndFormatDecimal(t *testing.T) {
	assert.Equal(t, 66.67, Round(200.0/3, 2))
	assert.Equal(t, 0.8765, Round(0.876543, 4))
	assert.Equal(t, 15.62, Round(15.625, 2))
	assert.Equal(t, 3.12, Round(3.125, 2))
	assert.Equal(t, 0.38, Round(0.375, 2))
	assert.Equal(t, 2.67, Round(2.675, 2))
	assert.Equal(t, "100.0", FormatDecimal(100))
	assert.Equal(t, "33.33", FormatDecimal(33.33))
	assert.Equal(t, "0.0", FormatDecimal(0))
	assert.Equal(t, "87.5", FormatDecimal(87.5))
}

func TestSHA256Hex(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		SHA256Hex(nil),
	)
}
