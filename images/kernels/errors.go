package kernels

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMissingImage is returned when an operation needs an image that is not loaded.
	ErrMissingImage = errors.New("image not loaded")
	// ErrEmptyKernelBank is returned when convolution is requested without kernels.
	ErrEmptyKernelBank = errors.New("kernel bank is empty")
	// ErrKernelLength is returned when a kernel's weight count does not match its shape.
	ErrKernelLength = errors.New("kernel length does not match shape")
	// ErrInvalidShape is returned for shapes with a non-positive dimension.
	ErrInvalidShape = errors.New("invalid kernel shape")
)

// DimensionMismatchError reports a sheet whose size is not a whole multiple of the
// kernel size.
type DimensionMismatchError struct {
	SheetWidth   int
	SheetHeight  int
	KernelWidth  int
	KernelHeight int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("kernel sheet size %dx%d is not divisible by kernel size %dx%d",
		e.SheetWidth, e.SheetHeight, e.KernelWidth, e.KernelHeight)
}
