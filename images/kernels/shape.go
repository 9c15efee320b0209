package kernels

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Shape describes the fixed width and height of every kernel cut out of a sheet.
type Shape struct {
	// Name is the human-readable label (e.g. "3 x 6").
	Name string `json:"name" yaml:"name"`
	// Width is the kernel width in pixels.
	Width int `json:"width" yaml:"width"`
	// Height is the kernel height in pixels.
	Height int `json:"height" yaml:"height"`
}

// The supported kernel shapes.
var (
	ShapeThreeBySix = Shape{Name: "3 x 6", Width: 3, Height: 6}
	ShapeSixByThree = Shape{Name: "6 x 3", Width: 6, Height: 3}
)

// Shapes returns the supported kernel shapes in display order.
func Shapes() []Shape {
	return []Shape{ShapeThreeBySix, ShapeSixByThree}
}

// ParseShape resolves a shape from its label. Spacing and case are ignored, so
// "3x6", "3 x 6" and "3 X 6" all select ShapeThreeBySix.
func ParseShape(s string) (Shape, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "")
	for _, shape := range Shapes() {
		if key == shape.Key() {
			return shape, nil
		}
	}
	return Shape{}, errors.Errorf("unknown kernel shape %q", s)
}

// Key returns the compact "WxH" form used in configuration files.
func (s Shape) Key() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Size returns the number of weights in one kernel.
func (s Shape) Size() int {
	return s.Width * s.Height
}

// Valid reports whether both dimensions are positive.
func (s Shape) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

func (s Shape) String() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Key()
}
