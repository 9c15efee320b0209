package images

import (
	"crypto/md5"
	"fmt"
)

// Checksum generates a deterministic checksum for an image to verify idempotency
// and that read-only consumers never touch the pixel buffer.
//
// Arguments:
// - img: The image to compute checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string covering the dimensions and pixels.
//
// Example:
//
// ```go
//
//	before := Checksum(target)
//	kernels.ConvolveKernel(target, k, shape, opt)
//	fmt.Println(before == Checksum(target)) // true
//
// ```
func Checksum(img *GrayscaleImage) string {
	if img == nil || len(img.Pix) == 0 {
		return "empty"
	}

	hash := md5.New()
	fmt.Fprintf(hash, "%dx%d:", img.Width, img.Height)
	hash.Write(img.Pix)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
