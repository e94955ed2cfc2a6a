package scan

import (
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// quickHashSize is how much of the file head feeds the quick hash. Large
// enough to get past format headers into image data, small enough to stay
// cheap on video files.
const quickHashSize = 64 * 1024

// HashFile computes both hashes in a single pass: the quick hash over the
// first 64 KiB and the content hash over the whole file.
func HashFile(path string) (quick, content uint64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	qh := xxhash.New()
	ch := xxhash.New()

	n, err := io.CopyN(io.MultiWriter(qh, ch), f, quickHashSize)
	if err != nil && err != io.EOF {
		return 0, 0, errors.Wrapf(err, "reading %s", path)
	}
	quick = qh.Sum64()

	if n == quickHashSize {
		if _, err := io.Copy(ch, f); err != nil {
			return 0, 0, errors.Wrapf(err, "reading %s", path)
		}
	}
	return quick, ch.Sum64(), nil
}
