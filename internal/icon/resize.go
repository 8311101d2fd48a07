// Package icon normalizes icon variants: local resizing through an injected
// image codec and remote format conversion through the convert collaborator.
package icon

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	// webp sources must be decodable even though output is never webp.
	_ "golang.org/x/image/webp"
)

// fallbackSize replaces a negative requested dimension pair.
const fallbackSize = 32

// Codec is the image-processing capability the resizer depends on. It is an
// interface so the clamping and fallback logic stays testable without a real
// decoder.
type Codec interface {
	Decode(data []byte) (image.Image, error)
	Resize(img image.Image, width, height int) image.Image
	EncodePNG(img image.Image) ([]byte, error)
}

// ImagingCodec implements Codec on top of disintegration/imaging.
type ImagingCodec struct{}

func (ImagingCodec) Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func (ImagingCodec) Resize(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

func (ImagingCodec) EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Resizer re-renders icon bytes at a requested size.
type Resizer struct {
	codec Codec
}

// NewResizer returns a Resizer backed by codec.
func NewResizer(codec Codec) *Resizer {
	return &Resizer{codec: codec}
}

// Resize decodes data, scales it to width x height and re-encodes it as PNG.
// Requested dimensions are clamped per axis to the source bounds so output never
// exceeds the source resolution; a negative width or height replaces the pair
// with 32x32.
func (r *Resizer) Resize(data []byte, width, height int) ([]byte, error) {
	if width < 0 || height < 0 {
		width, height = fallbackSize, fallbackSize
	}

	img, err := r.codec.Decode(data)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if width > bounds.Dx() {
		width = bounds.Dx()
	}
	if height > bounds.Dy() {
		height = bounds.Dy()
	}

	return r.codec.EncodePNG(r.codec.Resize(img, width, height))
}
