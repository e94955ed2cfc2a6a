package scan

import (
	"image"
	"os"

	"github.com/corona10/goimagehash"
	"github.com/pkg/errors"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// PerceptualHash computes the 64-bit perception hash of an image file.
// Formats outside the registered decoders return an error and the caller
// simply goes without a perceptual hash for that file.
func PerceptualHash(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, errors.Wrapf(err, "decoding %s", path)
	}

	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, errors.Wrapf(err, "hashing %s", path)
	}
	return h.GetHash(), nil
}
