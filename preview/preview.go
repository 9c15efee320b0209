// Package preview turns floating-point response maps into bounded-size 8-bit
// grayscale images for display.
package preview

import (
	"image"
	"image/png"
	"io"
	"math"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-convolve/images"
	"github.com/pkg/errors"
)

// DefaultMaxDim is the preview bound used when none is configured.
const DefaultMaxDim = 256

// rangeFloor keeps constant maps from dividing by zero.
const rangeFloor = 1e-6

// Preview is an 8-bit grayscale rendering of a response map.
type Preview struct {
	// Width of the preview in pixels (>= 1).
	Width int `json:"width" yaml:"width"`
	// Height of the preview in pixels (>= 1).
	Height int `json:"height" yaml:"height"`
	// Pix holds Width*Height intensities, row-major.
	Pix []uint8 `json:"-" yaml:"-"`
}

// Build downsamples a response map to fit within maxDim and rescales its values
// onto [0, 255].
//
// The scale factor is min(1, maxDim/max(width, height)), so previews shrink or
// keep their size but never grow, and neither side collapses below one pixel.
// Values are min/max normalized after resampling.
//
// Arguments:
// - src: Row-major response values.
// - width, height: The response map dimensions.
// - maxDim: The largest allowed preview side. <= 0 selects DefaultMaxDim.
//
// Returns:
// - The preview. An empty or degenerate map yields a single black pixel.
//
// @example
// p := Build(response.Values, response.Width, response.Height, 256)
func Build(src []float32, width, height, maxDim int) Preview {
	if maxDim <= 0 {
		maxDim = DefaultMaxDim
	}
	if width <= 0 || height <= 0 || len(src) < width*height {
		return Preview{Width: 1, Height: 1, Pix: []uint8{0}}
	}

	outW, outH := Dimensions(width, height, maxDim)
	resized := ResizeNearest(src, width, height, outW, outH)

	minV, maxV := MinMax(resized)
	rng := math32.Max(maxV-minV, rangeFloor)

	pix := make([]uint8, len(resized))
	for i, v := range resized {
		n := (v - minV) / rng * 255.0
		if math32.IsNaN(n) {
			n = 0
		}
		pix[i] = uint8(images.Clamp(round32(n), 0, 255))
	}

	return Preview{Width: outW, Height: outH, Pix: pix}
}

// Dimensions returns the preview size for a width x height map bounded by maxDim.
func Dimensions(width, height, maxDim int) (int, int) {
	scale := math32.Min(1.0, float32(maxDim)/float32(max(width, height)))
	outW := max(1, int(round32(float32(width)*scale)))
	outH := max(1, int(round32(float32(height)*scale)))
	return outW, outH
}

// ResizeNearest resamples src to dstW x dstH by nearest neighbour. Destination
// pixel (x, y) reads source pixel (x*srcW/dstW, y*srcH/dstH) with integer division.
// There is no interpolation or anti-aliasing.
func ResizeNearest(src []float32, srcW, srcH, dstW, dstH int) []float32 {
	out := make([]float32, dstW*dstH)
	for y := 0; y < dstH; y++ {
		sy := y * srcH / dstH
		for x := 0; x < dstW; x++ {
			sx := x * srcW / dstW
			out[y*dstW+x] = src[sy*srcW+sx]
		}
	}
	return out
}

// MinMax returns the smallest and largest value. If either bound is not finite
// (for example on an empty slice) both are reported as 0.
func MinMax(values []float32) (float32, float32) {
	minV := math32.Inf(1)
	maxV := math32.Inf(-1)
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if !finite(minV) || !finite(maxV) {
		return 0, 0
	}
	return minV, maxV
}

// ToImage returns the preview as a standard library *image.Gray.
func (p Preview) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	copy(img.Pix, p.Pix)
	return img
}

// EncodePNG writes the preview to w as a grayscale PNG.
func (p Preview) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, p.ToImage()); err != nil {
		return errors.Wrap(err, "failed to encode preview")
	}
	return nil
}

func finite(v float32) bool {
	return !math32.IsInf(v, 0) && !math32.IsNaN(v)
}

// round32 rounds half away from zero. float32 values convert to float64 exactly.
func round32(v float32) float32 {
	return float32(math.Round(float64(v)))
}
