package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when content is empty or only whitespace.
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrFailedToGenerate is returned when the QR code cannot be encoded.
	ErrFailedToGenerate = errors.New("failed to generate QR code")
)

const (
	defaultSize   = 256
	dataURLPrefix = "data:image/png;base64,"
)

// Renderer encodes challenge strings as PNG QR codes.
// The zero value renders 256px images with low error recovery.
type Renderer struct {
	Size     int
	Recovery skipqrcode.RecoveryLevel
}

// NewRenderer returns a renderer for images of the given pixel size.
// A non-positive size falls back to the default.
func NewRenderer(size int) Renderer {
	return Renderer{Size: size, Recovery: skipqrcode.Medium}
}

// PNG encodes content as a PNG image.
func (r Renderer) PNG(content string) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	size := r.Size
	if size <= 0 {
		size = defaultSize
	}
	png, err := skipqrcode.Encode(content, r.Recovery, size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerate, err)
	}
	return png, nil
}

// DataURL encodes content as a base64 PNG data URL, ready for an <img> src.
func (r Renderer) DataURL(content string) (string, error) {
	png, err := r.PNG(content)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
