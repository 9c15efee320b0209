//go:build gocv

package kernels

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ConvolveSameCV computes the same zero-padded correlation as ConvolveSame through
// OpenCV's filter2D. OpenCV accumulates in its own order, so results agree with
// ConvolveSame to within float32 rounding rather than bit for bit.
//
// Arguments:
// - input: Row-major target values.
// - width, height: The input dimensions.
// - kernel: Row-major weights, len must be kw*kh.
// - kw, kh: The kernel dimensions.
//
// Returns:
// - The width*height response map.
// - An error if OpenCV cannot allocate the matrices.
func ConvolveSameCV(input []float32, width, height int, kernel []float32, kw, kh int) ([]float32, error) {
	if len(kernel) != kw*kh {
		return nil, errors.Wrapf(ErrKernelLength, "got %d weights, want %d", len(kernel), kw*kh)
	}

	src := gocv.NewMatWithSize(height, width, gocv.MatTypeCV32F)
	defer src.Close()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			src.SetFloatAt(y, x, input[y*width+x])
		}
	}

	k := gocv.NewMatWithSize(kh, kw, gocv.MatTypeCV32F)
	defer k.Close()
	for ky := 0; ky < kh; ky++ {
		for kx := 0; kx < kw; kx++ {
			k.SetFloatAt(ky, kx, kernel[ky*kw+kx])
		}
	}

	dst := gocv.NewMat()
	defer dst.Close()

	// BorderConstant pads with zeros, matching images.ZeroEdgeMode.
	gocv.Filter2D(src, &dst, gocv.MatTypeCV32F, k, image.Pt(kw/2, kh/2), 0, gocv.BorderConstant)
	if dst.Empty() {
		return nil, errors.New("filter2D produced an empty matrix")
	}

	out := make([]float32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out[y*width+x] = dst.GetFloatAt(y, x)
		}
	}
	return out, nil
}
