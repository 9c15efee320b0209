package kernels

import (
	"github.com/nvr-ai/go-convolve/images"
	"github.com/pkg/errors"
)

// Bank is the ordered set of kernels cut out of one sheet image.
//
// Kernels are stored in row-major grid order: index = row*Cols + col. Each kernel
// is a row-major slice of Shape.Width*Shape.Height weights in [-1, 1]. The bank owns
// its weights; nothing references the sheet pixels after Split returns.
type Bank struct {
	// Shape is the shape every kernel was cut with.
	Shape Shape
	// Rows is the number of kernel rows in the sheet grid.
	Rows int
	// Cols is the number of kernel columns in the sheet grid.
	Cols int
	// Kernels holds Rows*Cols weight slices.
	Kernels [][]float32
}

// Len returns the number of kernels. A nil bank is empty.
func (b *Bank) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Kernels)
}

// Kernel returns the i-th kernel in grid order.
func (b *Bank) Kernel(i int) []float32 {
	return b.Kernels[i]
}

// At returns the kernel at grid position (row, col).
func (b *Bank) At(row, col int) []float32 {
	return b.Kernels[row*b.Cols+col]
}

// WeightFromIntensity maps a raw intensity linearly onto [-1, 1]:
// 0 becomes -1, 255 becomes 1.
func WeightFromIntensity(p uint8) float32 {
	return (float32(p)/255.0)*2.0 - 1.0
}

// Split partitions a sheet image into a grid of shape-sized kernels.
//
// The sheet must be an exact multiple of the kernel size in both directions;
// otherwise a *DimensionMismatchError is returned and no bank is produced.
// Kernels are enumerated row by row over the grid, and pixels within a kernel
// are visited row-major.
//
// Arguments:
// - sheet: The kernel sheet image.
// - shape: The kernel shape to cut with.
//
// Returns:
// - The kernel bank.
// - An error if the sheet is missing, the shape is invalid, or the sizes do not divide.
//
// @example
// bank, err := Split(sheet, ShapeThreeBySix) // 6x12 sheet -> 2 cols x 2 rows
func Split(sheet *images.GrayscaleImage, shape Shape) (*Bank, error) {
	if sheet == nil {
		return nil, errors.Wrap(ErrMissingImage, "kernel sheet")
	}
	if !shape.Valid() {
		return nil, errors.Wrapf(ErrInvalidShape, "%dx%d", shape.Width, shape.Height)
	}

	kw, kh := shape.Width, shape.Height
	if sheet.Width%kw != 0 || sheet.Height%kh != 0 {
		return nil, &DimensionMismatchError{
			SheetWidth:   sheet.Width,
			SheetHeight:  sheet.Height,
			KernelWidth:  kw,
			KernelHeight: kh,
		}
	}

	cols := sheet.Width / kw
	rows := sheet.Height / kh
	bank := &Bank{
		Shape:   shape,
		Rows:    rows,
		Cols:    cols,
		Kernels: make([][]float32, 0, rows*cols),
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			kernel := make([]float32, 0, kw*kh)
			for ky := 0; ky < kh; ky++ {
				for kx := 0; kx < kw; kx++ {
					kernel = append(kernel, WeightFromIntensity(sheet.At(col*kw+kx, row*kh+ky)))
				}
			}
			bank.Kernels = append(bank.Kernels, kernel)
		}
	}

	return bank, nil
}
