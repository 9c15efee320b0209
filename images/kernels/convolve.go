package kernels

import (
	"context"
	"runtime"
	"sync"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-convolve/images"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Options configures a convolution call. Keeping this extensible reduces churn later.
type Options struct {
	Edge         images.EdgeMode // Edge sampling mode. Empty means images.ZeroEdgeMode.
	ParallelRows bool            // Split output rows of a single kernel across goroutines.
	Workers      int             // Kernels convolved concurrently by ConvolveBank (<=1 sequential, <0 NumCPU).
	Pool         *Pool           // Optional buffer pool for response map reuse.
}

// Pool lets callers reuse response buffers across kernels to reduce GC pressure
// when a large bank is convolved against a large target.
type Pool struct {
	buf sync.Pool // *[]float32
}

// Get returns a buffer of length n. Its contents are undefined; ConvolveSame
// overwrites every element.
func (p *Pool) Get(n int) []float32 {
	if p == nil {
		return make([]float32, n)
	}
	if v := p.buf.Get(); v != nil {
		b := *v.(*[]float32)
		if cap(b) >= n {
			return b[:n]
		}
	}
	return make([]float32, n)
}

// Put hands a buffer back to the pool. The caller must not use it afterwards.
func (p *Pool) Put(b []float32) {
	if p == nil || b == nil {
		return
	}
	p.buf.Put(&b)
}

// Response is the output of applying one kernel to a target image.
type Response struct {
	// Width of the response map (equals the target width).
	Width int
	// Height of the response map (equals the target height).
	Height int
	// Values is the row-major response map.
	Values []float32
	// Score is the mean absolute response.
	Score float32
}

// ConvolveSame correlates input with kernel and returns a map the same size as input.
//
// The kernel anchor sits at (kw/2, kh/2) using floor division, so even-sized kernels
// are anchored one sample before their geometric center. For each output pixel:
//
//	out[y][x] = sum over ky<kh, kx<kw of in[y+ky-kh/2][x+kx-kw/2] * kernel[ky*kw+kx]
//
// With images.ZeroEdgeMode (the default) samples outside the input are skipped.
// Other edge modes remap them with images.MapCoord.
//
// Performance: O(width*height*kw*kh).
//
// Arguments:
// - input: Row-major target values (typically in [0, 1]).
// - width, height: The input dimensions.
// - kernel: Row-major weights, len must be kw*kh.
// - kw, kh: The kernel dimensions.
// - opt: Edge mode, row parallelism and buffer pool.
//
// Returns:
// - A new width*height response map (from opt.Pool when provided).
func ConvolveSame(input []float32, width, height int, kernel []float32, kw, kh int, opt Options) []float32 {
	out := opt.Pool.Get(width * height)
	kcx := kw / 2
	kcy := kh / 2

	edge := opt.Edge
	if edge == "" {
		edge = images.ZeroEdgeMode
	}

	rowTask := func(y int) {
		for x := 0; x < width; x++ {
			var acc float32
			for ky := 0; ky < kh; ky++ {
				iy, ok := images.MapCoord(y+ky-kcy, height, edge)
				if !ok {
					continue
				}
				row := input[iy*width : (iy+1)*width]
				krow := kernel[ky*kw : (ky+1)*kw]
				for kx, w := range krow {
					ix, ok := images.MapCoord(x+kx-kcx, width, edge)
					if !ok {
						continue
					}
					// The explicit conversion keeps the compiler from fusing this into an FMA.
					acc += float32(row[ix] * w)
				}
			}
			out[y*width+x] = acc
		}
	}

	if !opt.ParallelRows {
		for y := 0; y < height; y++ {
			rowTask(y)
		}
		return out
	}

	images.Parallel(height, func(partStart, partEnd int) {
		for y := partStart; y < partEnd; y++ {
			rowTask(y)
		}
	})
	return out
}

// Score returns the mean absolute value of a response map, or 0 for an empty map.
func Score(response []float32) float32 {
	if len(response) == 0 {
		return 0
	}
	var sum float32
	for _, v := range response {
		sum += math32.Abs(v)
	}
	return sum / float32(len(response))
}

// ConvolveKernel applies a single kernel to the target image.
//
// Arguments:
// - target: The target image. Its pixels are normalized to [0, 1] before correlation.
// - kernel: Row-major weights of shape.Width*shape.Height values.
// - shape: The kernel shape.
// - opt: Convolution options.
//
// Returns:
// - The response map and its score.
// - ErrMissingImage, ErrEmptyKernelBank or ErrKernelLength on invalid input.
func ConvolveKernel(target *images.GrayscaleImage, kernel []float32, shape Shape, opt Options) (Response, error) {
	if target == nil {
		return Response{}, errors.Wrap(ErrMissingImage, "target")
	}
	if err := checkKernel(kernel, shape); err != nil {
		return Response{}, err
	}
	return convolveNormalized(target.Normalize(), target.Width, target.Height, kernel, shape, opt), nil
}

// ConvolveBank convolves every kernel in bank against target and hands each
// response to fn together with its kernel index.
//
// With opt.Workers <= 1 kernels run sequentially in bank order. Otherwise up to
// opt.Workers kernels (runtime.NumCPU() when negative) run concurrently and fn
// may be invoked from several goroutines at once; each index is delivered exactly
// once, so writing into a pre-sized slice by index is safe. The target is
// normalized once and shared read-only between kernels.
//
// Cancellation of ctx, or an error from fn, stops scheduling further kernels and
// is returned.
func ConvolveBank(ctx context.Context, target *images.GrayscaleImage, bank *Bank, opt Options, fn func(i int, r Response) error) error {
	if target == nil {
		return errors.Wrap(ErrMissingImage, "target")
	}
	if bank.Len() == 0 {
		return ErrEmptyKernelBank
	}
	for i, k := range bank.Kernels {
		if err := checkKernel(k, bank.Shape); err != nil {
			return errors.Wrapf(err, "kernel %d", i)
		}
	}

	input := target.Normalize()

	workers := opt.Workers
	if workers < 0 {
		workers = runtime.NumCPU()
	}

	if workers <= 1 {
		for i, k := range bank.Kernels {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(i, convolveNormalized(input, target.Width, target.Height, k, bank.Shape, opt)); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, k := range bank.Kernels {
		if gctx.Err() != nil {
			break
		}
		i, k := i, k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i, convolveNormalized(input, target.Width, target.Height, k, bank.Shape, opt))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// Scheduling may have stopped early without any goroutine observing it.
	return ctx.Err()
}

// ConvolveAll is ConvolveBank collecting every response, index-aligned with the bank.
func ConvolveAll(ctx context.Context, target *images.GrayscaleImage, bank *Bank, opt Options) ([]Response, error) {
	out := make([]Response, bank.Len())
	err := ConvolveBank(ctx, target, bank, opt, func(i int, r Response) error {
		out[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func convolveNormalized(input []float32, width, height int, kernel []float32, shape Shape, opt Options) Response {
	values := ConvolveSame(input, width, height, kernel, shape.Width, shape.Height, opt)
	return Response{
		Width:  width,
		Height: height,
		Values: values,
		Score:  Score(values),
	}
}

func checkKernel(kernel []float32, shape Shape) error {
	if len(kernel) == 0 {
		return ErrEmptyKernelBank
	}
	if !shape.Valid() {
		return errors.Wrapf(ErrInvalidShape, "%dx%d", shape.Width, shape.Height)
	}
	if len(kernel) != shape.Size() {
		return errors.Wrapf(ErrKernelLength, "got %d weights, want %d", len(kernel), shape.Size())
	}
	return nil
}
