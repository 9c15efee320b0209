package images

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ImageFormat represents supported image formats
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatWebP ImageFormat = "webp"
	FormatPNG  ImageFormat = "png"
)

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xff, 0xd8, 0xff}
)

// DetectFormat maps a file path to an image format by its extension.
func DetectFormat(path string) (ImageFormat, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".webp":
		return FormatWebP, nil
	default:
		return "", errors.Errorf("unsupported file extension: %q", ext)
	}
}

// SniffFormat inspects the leading magic bytes of an encoded image.
// The second return value is false when no supported format matches.
func SniffFormat(data []byte) (ImageFormat, bool) {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return FormatPNG, true
	case bytes.HasPrefix(data, jpegMagic):
		return FormatJPEG, true
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return FormatWebP, true
	default:
		return "", false
	}
}
