package meta

import (
	"os/exec"

	"github.com/barasher/go-exiftool"
	"github.com/pkg/errors"
)

// dateKeys is the tag priority used when asking exiftool for a capture
// date. Stills carry DateTimeOriginal, QuickTime containers CreateDate,
// and some scanned or edited files only the composite DateTimeCreated.
var dateKeys = []string{"DateTimeOriginal", "CreateDate", "DateTimeCreated"}

// ExiftoolAvailable reports whether the exiftool binary is on PATH.
func ExiftoolAvailable() bool {
	_, err := exec.LookPath("exiftool")
	return err == nil
}

// exifTool wraps a stay-open exiftool process.
type exifTool struct {
	handle *exiftool.Exiftool
}

func newExifTool() (*exifTool, error) {
	h, err := exiftool.NewExiftool()
	if err != nil {
		return nil, errors.Wrap(err, "starting exiftool")
	}
	return &exifTool{handle: h}, nil
}

func (e *exifTool) close() error {
	return e.handle.Close()
}

// extract pulls the capture date and camera identity for one file.
func (e *exifTool) extract(path string) (Metadata, error) {
	fms := e.handle.ExtractMetadata(path)
	if len(fms) == 0 {
		return Metadata{}, errors.Errorf("exiftool returned nothing for %s", path)
	}
	fm := fms[0]
	if fm.Err != nil {
		return Metadata{}, errors.Wrapf(fm.Err, "exiftool on %s", path)
	}

	md := Metadata{}
	if v, err := fm.GetString("Make"); err == nil {
		md.CameraMake = v
	}
	if v, err := fm.GetString("Model"); err == nil {
		md.CameraModel = v
	}

	for _, key := range dateKeys {
		v, err := fm.GetString(key)
		if err != nil {
			continue
		}
		if t, err := ParseExifTime(v); err == nil {
			md.CaptureDate = t
			break
		}
	}

	return md, nil
}
