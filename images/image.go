// Package images - Grayscale image definition shared by the kernel and preview packages.
package images

import (
	"image"

	"github.com/pkg/errors"
)

// ErrInvalidDimensions is returned when an image is constructed with a non-positive
// width or height, or with a pixel buffer that does not match its dimensions.
var ErrInvalidDimensions = errors.New("invalid image dimensions")

// GrayscaleImage represents a decoded 8-bit single channel image.
//
// The pixel buffer is row-major and holds exactly Width*Height intensities.
// Once constructed the image is treated as read-only by every consumer.
type GrayscaleImage struct {
	// The name of the image (typically the file name it was loaded from).
	Name string `json:"name" yaml:"name"`
	// The width of the image.
	Width int `json:"width" yaml:"width"`
	// The height of the image.
	Height int `json:"height" yaml:"height"`
	// The pixel intensities in [0, 255], row-major.
	Pix []uint8 `json:"-" yaml:"-"`
}

// NewGrayscaleImage creates a grayscale image from a raw pixel buffer.
// The buffer is copied so later writes by the caller cannot leak into the image.
//
// Arguments:
// - width: The width of the image in pixels.
// - height: The height of the image in pixels.
// - pix: The row-major pixel intensities (len must equal width*height).
//
// Returns:
// - The constructed image.
// - An error if the dimensions are invalid.
//
// @example
// img, err := NewGrayscaleImage(4, 4, make([]uint8, 16))
func NewGrayscaleImage(width, height int, pix []uint8) (*GrayscaleImage, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "width=%d, height=%d", width, height)
	}
	if len(pix) != width*height {
		return nil, errors.Wrapf(ErrInvalidDimensions, "buffer holds %d pixels, want %dx%d=%d",
			len(pix), width, height, width*height)
	}

	buf := make([]uint8, len(pix))
	copy(buf, pix)

	return &GrayscaleImage{Width: width, Height: height, Pix: buf}, nil
}

// At returns the intensity at (x, y). Coordinates must be in bounds.
func (g *GrayscaleImage) At(x, y int) uint8 {
	return g.Pix[y*g.Width+x]
}

// Bounds returns the image rectangle anchored at the origin.
func (g *GrayscaleImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// Normalize converts the pixel intensities to floats in [0, 1] by dividing by 255.
//
// Returns:
// - A new row-major slice of Width*Height values.
func (g *GrayscaleImage) Normalize() []float32 {
	out := make([]float32, len(g.Pix))
	for i, p := range g.Pix {
		out[i] = float32(p) / 255.0
	}
	return out
}

// ToImage returns a copy of the image as a standard library *image.Gray.
func (g *GrayscaleImage) ToImage() *image.Gray {
	dst := image.NewGray(g.Bounds())
	for y := 0; y < g.Height; y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+g.Width], g.Pix[y*g.Width:(y+1)*g.Width])
	}
	return dst
}
