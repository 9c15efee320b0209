// Package images - provides the shared pixel helpers used by the kernel and
// preview pipelines: grayscale conversion, edge handling and row partitioning.
package images

import (
	"image"
	"runtime"
	"sync"
)

// ITU-R BT.709 luma coefficients.
// These weights reflect human eye sensitivity to different colors.
const (
	redWeight   = 0.2126
	greenWeight = 0.7152
	blueWeight  = 0.0722
)

// FromImage converts any image to a GrayscaleImage anchored at the origin.
//
// *image.Gray sources are copied row by row; every other color model is reduced
// to luma with the BT.709 coefficients. Alpha is ignored.
//
// Arguments:
// - img: The source image to convert.
//
// Returns:
// - A new grayscale image with the same dimensions as img.
//
// @example
// gray := FromImage(decodedPNG)
func FromImage(img image.Image) *GrayscaleImage {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	dst := &GrayscaleImage{Width: width, Height: height, Pix: make([]uint8, width*height)}

	// Fast path: the source already stores 8-bit intensities.
	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < height; y++ {
			off := g.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(dst.Pix[y*width:(y+1)*width], g.Pix[off:off+width])
		}
		return dst
	}

	Parallel(height, func(partStart, partEnd int) {
		for y := partStart; y < partEnd; y++ {
			srcY := bounds.Min.Y + y
			for x := 0; x < width; x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, srcY).RGBA()

				// RGBA() returns 16-bit values, we work in that space for precision.
				luma := uint32(float64(r)*redWeight + float64(g)*greenWeight + float64(b)*blueWeight)
				dst.Pix[y*width+x] = uint8(luma >> 8)
			}
		}
	})

	return dst
}

// Clamp restricts a value to the specified range [min, max].
//
// Arguments:
// - value: The value to Clamp.
// - min: Minimum allowed value.
// - max: Maximum allowed value.
//
// Returns:
// - The clamped value within [min, max].
//
// @example
// clamped := Clamp(300.5, 0, 255) // Returns 255
// clamped := Clamp(-10.0, 0, 255) // Returns 0
func Clamp(value, min, max float32) float32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Parallel executes fn across runtime.NumCPU() goroutines, each receiving a
// contiguous [partStart, partEnd) slice of the data.
//
// Small inputs run inline on the calling goroutine since the scheduling
// overhead outweighs the work.
//
// Arguments:
// - dataSize: The size of the data to process.
// - fn: Function to execute for each partition (receives start and end indices).
//
// @example
//
//	Parallel(height, func(start, end int) {
//	    for y := start; y < end; y++ {
//	        // Process row y
//	    }
//	})
func Parallel(dataSize int, fn func(partStart, partEnd int)) {
	numGoroutines := runtime.NumCPU()

	if dataSize < numGoroutines*2 {
		fn(0, dataSize)
		return
	}

	partSize := dataSize / numGoroutines

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		partStart := i * partSize
		partEnd := partStart + partSize

		// Last partition gets any remaining data.
		if i == numGoroutines-1 {
			partEnd = dataSize
		}

		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)
	}

	wg.Wait()
}

// EdgeMode defines how to handle coordinates that are out of bounds.
type EdgeMode string

const (
	// ZeroEdgeMode drops out-of-bounds samples entirely (implicit zero padding).
	ZeroEdgeMode EdgeMode = "zero"
	// ClampEdgeMode clamps the pixel values to the nearest valid value.
	ClampEdgeMode EdgeMode = "clamp"
	// MirrorEdgeMode mirrors the pixel values around the edge.
	MirrorEdgeMode EdgeMode = "mirror"
	// WrapEdgeMode wraps the pixel values around the edge.
	WrapEdgeMode EdgeMode = "wrap"
)

// Valid reports whether m is one of the known edge modes.
func (m EdgeMode) Valid() bool {
	switch m {
	case ZeroEdgeMode, ClampEdgeMode, MirrorEdgeMode, WrapEdgeMode:
		return true
	}
	return false
}

// MapCoord maps a coordinate into [0, max) based on the edge mode.
//
// Arguments:
// - coord: The coordinate to map.
// - max: The number of valid coordinates (must be > 0).
// - mode: The edge mode to use.
//
// Returns:
// - The mapped coordinate.
// - false when the sample must be skipped (ZeroEdgeMode outside the bounds).
func MapCoord(coord, max int, mode EdgeMode) (int, bool) {
	if coord >= 0 && coord < max {
		return coord, true
	}

	switch mode {
	case ClampEdgeMode:
		if coord < 0 {
			return 0, true
		}
		return max - 1, true
	case MirrorEdgeMode:
		if max == 1 {
			return 0, true
		}
		for coord < 0 || coord >= max {
			if coord < 0 {
				coord = -coord - 1
			} else {
				coord = 2*max - coord - 1
			}
		}
		return coord, true
	case WrapEdgeMode:
		return (coord%max + max) % max, true
	default:
		return 0, false
	}
}
