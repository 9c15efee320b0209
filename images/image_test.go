package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGrayscaleImage(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		pix     []uint8
		wantErr bool
	}{
		{name: "valid 2x2", width: 2, height: 2, pix: []uint8{0, 1, 2, 3}},
		{name: "single pixel", width: 1, height: 1, pix: []uint8{255}},
		{name: "zero width", width: 0, height: 2, pix: nil, wantErr: true},
		{name: "negative height", width: 2, height: -1, pix: nil, wantErr: true},
		{name: "short buffer", width: 2, height: 2, pix: []uint8{0, 1, 2}, wantErr: true},
		{name: "long buffer", width: 1, height: 1, pix: []uint8{0, 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := NewGrayscaleImage(tt.width, tt.height, tt.pix)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDimensions), "error should wrap ErrInvalidDimensions")
				assert.Nil(t, img)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.width, img.Width)
			assert.Equal(t, tt.height, img.Height)
			assert.Equal(t, tt.pix, img.Pix)
		})
	}
}

func TestNewGrayscaleImageCopiesBuffer(t *testing.T) {
	pix := []uint8{10, 20, 30, 40}
	img, err := NewGrayscaleImage(2, 2, pix)
	require.NoError(t, err)

	pix[0] = 99
	assert.Equal(t, uint8(10), img.At(0, 0), "caller writes must not leak into the image")
}

func TestGrayscaleImageAt(t *testing.T) {
	img, err := NewGrayscaleImage(3, 2, []uint8{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)

	assert.Equal(t, uint8(2), img.At(2, 0))
	assert.Equal(t, uint8(3), img.At(0, 1))
	assert.Equal(t, uint8(5), img.At(2, 1))
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
}

func TestGrayscaleImageNormalize(t *testing.T) {
	img, err := NewGrayscaleImage(3, 1, []uint8{0, 51, 255})
	require.NoError(t, err)

	got := img.Normalize()
	require.Len(t, got, 3)
	assert.Equal(t, float32(0), got[0])
	assert.Equal(t, float32(51)/255.0, got[1])
	assert.Equal(t, float32(1), got[2])
}

func TestGrayscaleImageToImage(t *testing.T) {
	img, err := NewGrayscaleImage(2, 2, []uint8{1, 2, 3, 4})
	require.NoError(t, err)

	gray := img.ToImage()
	assert.Equal(t, img.Bounds(), gray.Bounds())
	assert.Equal(t, color.Gray{Y: 3}, gray.GrayAt(0, 1))

	gray.Pix[0] = 200
	assert.Equal(t, uint8(1), img.At(0, 0), "ToImage must return a copy")
}

func TestFromImageGrayNonZeroMin(t *testing.T) {
	src := image.NewGray(image.Rect(2, 3, 5, 5))
	for y := 3; y < 5; y++ {
		for x := 2; x < 5; x++ {
			src.SetGray(x, y, color.Gray{Y: uint8(10*(y-3) + (x - 2))})
		}
	}

	img := FromImage(src)
	assert.Equal(t, 3, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, []uint8{0, 1, 2, 10, 11, 12}, img.Pix)
}

func TestFromImageLuma(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 1))
	src.SetRGBA(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	src.SetRGBA(1, 0, color.RGBA{A: 255})
	src.SetRGBA(2, 0, color.RGBA{R: 255, A: 255})

	img := FromImage(src)
	assert.Equal(t, uint8(255), img.Pix[0], "white")
	assert.Equal(t, uint8(0), img.Pix[1], "black")
	assert.Equal(t, uint8(54), img.Pix[2], "pure red carries the BT.709 red weight")
}

func TestChecksum(t *testing.T) {
	a, err := NewGrayscaleImage(2, 2, []uint8{1, 2, 3, 4})
	require.NoError(t, err)
	b, err := NewGrayscaleImage(4, 1, []uint8{1, 2, 3, 4})
	require.NoError(t, err)

	assert.Equal(t, Checksum(a), Checksum(a))
	assert.NotEqual(t, Checksum(a), Checksum(b), "dimensions are part of the checksum")
	assert.Equal(t, "empty", Checksum(nil))
}
