package images

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Decode decodes an encoded PNG, JPEG or WebP image into a GrayscaleImage.
//
// Arguments:
//   - data: The encoded image bytes.
//   - format: The image format. An empty format sniffs the magic bytes.
//
// Returns:
//   - *GrayscaleImage: The decoded luma image.
//   - error: An error if the data is empty, the format is unsupported or decoding fails.
func Decode(data []byte, format ImageFormat) (*GrayscaleImage, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image data")
	}

	if format == "" {
		sniffed, ok := SniffFormat(data)
		if !ok {
			return nil, errors.New("unrecognized image data")
		}
		format = sniffed
	}

	var (
		img image.Image
		err error
	)
	switch format {
	case FormatPNG:
		img, err = png.Decode(bytes.NewReader(data))
	case FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	case FormatWebP:
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		return nil, errors.Errorf("unsupported image format: %s", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s image", format)
	}

	return FromImage(img), nil
}

// DecodeFile reads and decodes the image at path. The format comes from the file
// extension and falls back to sniffing when the extension is unknown.
func DecodeFile(path string) (*GrayscaleImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image")
	}

	format, err := DetectFormat(path)
	if err != nil {
		format = ""
	}

	img, err := Decode(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	img.Name = filepath.Base(path)

	return img, nil
}

// FitWithin downsizes img so that neither side exceeds maxDim, preserving the aspect
// ratio with Lanczos3 resampling. Images that already fit, and a maxDim <= 0, return
// img unchanged.
//
// Arguments:
//   - img: The source image.
//   - maxDim: The largest allowed width or height.
//
// Returns:
//   - *GrayscaleImage: The fitted image (a new image when resizing happened).
func FitWithin(img *GrayscaleImage, maxDim int) *GrayscaleImage {
	if maxDim <= 0 || (img.Width <= maxDim && img.Height <= maxDim) {
		return img
	}

	resized := resize.Thumbnail(uint(maxDim), uint(maxDim), img.ToImage(), resize.Lanczos3)

	out := FromImage(resized)
	out.Name = img.Name
	return out
}
