package explorer

import (
	"fmt"

	"github.com/nvr-ai/go-convolve/images/kernels"
	"github.com/pkg/errors"
)

var (
	// ErrMissingImage is returned when an operation needs an image that is not loaded.
	ErrMissingImage = kernels.ErrMissingImage
	// ErrEmptyKernelBank is returned when convolution is requested before a split.
	ErrEmptyKernelBank = kernels.ErrEmptyKernelBank
	// ErrSlotsFull is returned by Load when both the target and sheet are already loaded.
	ErrSlotsFull = errors.New("both image slots are already filled")
)

// DimensionMismatchError reports a sheet that does not divide into whole kernels.
type DimensionMismatchError = kernels.DimensionMismatchError

// Slot names one of the two images a session holds.
type Slot string

const (
	// SlotTarget is the image the kernels are convolved against.
	SlotTarget Slot = "target"
	// SlotSheet is the image the kernels are cut from.
	SlotSheet Slot = "sheet"
)

// MissingImageError reports which slot was empty. It matches ErrMissingImage
// with errors.Is.
type MissingImageError struct {
	Slot Slot
}

func (e *MissingImageError) Error() string {
	return fmt.Sprintf("%s image not loaded", e.Slot)
}

func (e *MissingImageError) Unwrap() error {
	return ErrMissingImage
}
