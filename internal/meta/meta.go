// Package meta resolves the capture date and camera identity of media
// files. Resolution is layered: embedded metadata first (native goexif,
// then an external exiftool process for the formats goexif cannot read),
// then JSON sidecars, then filename patterns, then the file's mtime.
package meta

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/AirswitchAsa/media-tool/internal/mediafile"
)

// DateSource records where a capture date came from, in priority order.
type DateSource int

const (
	SourceNone DateSource = iota
	SourceExif
	SourceSidecar
	SourceFilename
	SourceModTime
)

func (s DateSource) String() string {
	switch s {
	case SourceExif:
		return "exif"
	case SourceSidecar:
		return "sidecar"
	case SourceFilename:
		return "filename"
	case SourceModTime:
		return "mtime"
	default:
		return "none"
	}
}

// ParseSource is the inverse of String, for values read back from the
// catalog.
func ParseSource(s string) DateSource {
	switch s {
	case "exif":
		return SourceExif
	case "sidecar":
		return SourceSidecar
	case "filename":
		return SourceFilename
	case "mtime":
		return SourceModTime
	default:
		return SourceNone
	}
}

var ErrNoDate = errors.New("no capture date found")

// Metadata holds everything the organizer wants to know about one file.
type Metadata struct {
	CaptureDate time.Time
	Source      DateSource
	CameraMake  string
	CameraModel string
}

// Options configures an Extractor.
type Options struct {
	// UseExiftool enables the external exiftool fallback. Callers should
	// probe ExiftoolAvailable once and log, rather than letting every
	// worker discover the missing binary on its own.
	UseExiftool bool
	Logger      zerolog.Logger
}

// Extractor resolves Metadata for files. It is not safe for concurrent
// use: the exiftool handle drives a single stay-open process. Create one
// Extractor per worker.
type Extractor struct {
	logger zerolog.Logger
	et     *exifTool
}

// NewExtractor builds an Extractor. When opts.UseExiftool is set and the
// binary cannot be started the Extractor silently degrades to native-only
// extraction; the caller has already been warned via ExiftoolAvailable.
func NewExtractor(opts Options) *Extractor {
	x := &Extractor{logger: opts.Logger}

	if opts.UseExiftool {
		et, err := newExifTool()
		if err != nil {
			x.logger.Debug().Err(err).Msg("exiftool unavailable, native extraction only")
		} else {
			x.et = et
		}
	}

	return x
}

// Close releases the external exiftool process, if any.
func (x *Extractor) Close() error {
	if x.et == nil {
		return nil
	}
	return x.et.close()
}

// Extract resolves Metadata for path. It never fails: the final fallback
// is the supplied modification time.
func (x *Extractor) Extract(path string, modTime time.Time) Metadata {
	ext := filepath.Ext(path)
	md := Metadata{}

	// Embedded metadata. Native decoding first: no subprocess round-trip.
	if mediafile.DecodableNatively(ext) {
		if em, err := nativeExif(path); err == nil {
			md.CameraMake, md.CameraModel = em.CameraMake, em.CameraModel
			if !em.CaptureDate.IsZero() {
				md.CaptureDate, md.Source = em.CaptureDate, SourceExif
				return md
			}
		}
	}

	if x.et != nil && embeddedMetadataKind(path) {
		if em, err := x.et.extract(path); err == nil {
			if md.CameraMake == "" {
				md.CameraMake = em.CameraMake
			}
			if md.CameraModel == "" {
				md.CameraModel = em.CameraModel
			}
			if !em.CaptureDate.IsZero() {
				md.CaptureDate, md.Source = em.CaptureDate, SourceExif
				return md
			}
		} else {
			x.logger.Debug().Err(err).Str("file", path).Msg("exiftool extraction failed")
		}
	}

	if t, err := SidecarDate(path); err == nil {
		md.CaptureDate, md.Source = t, SourceSidecar
		return md
	}

	if t, ok := mediafile.DateFromFilename(filepath.Base(path)); ok {
		md.CaptureDate, md.Source = t, SourceFilename
		return md
	}

	md.CaptureDate, md.Source = modTime, SourceModTime
	return md
}

// embeddedMetadataKind reports whether a file may carry embedded capture
// metadata worth asking exiftool about.
func embeddedMetadataKind(path string) bool {
	switch mediafile.KindOf(path) {
	case mediafile.KindPhoto, mediafile.KindRaw, mediafile.KindVideo:
		return true
	default:
		return false
	}
}

// nativeExif extracts the capture date and camera identity using goexif.
func nativeExif(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return Metadata{}, err
	}

	md := Metadata{}
	if tag, err := x.Get(exif.Make); err == nil {
		if v, err := tag.StringVal(); err == nil {
			md.CameraMake = strings.TrimSpace(v)
		}
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if v, err := tag.StringVal(); err == nil {
			md.CameraModel = strings.TrimSpace(v)
		}
	}

	if t, err := x.DateTime(); err == nil && plausibleDate(t) {
		md.CaptureDate = t
	}

	return md, nil
}

// ParseExifTime parses exiftool's "2006:01:02 15:04:05" layout, tolerating
// sub-second and timezone suffixes, and rejecting zero dates.
func ParseExifTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > 19 {
		s = s[:19]
	}
	if s == "" || strings.HasPrefix(s, "0000") {
		return time.Time{}, errors.Wrap(ErrNoDate, "zero or empty timestamp")
	}

	t, err := time.Parse("2006:01:02 15:04:05", s)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrNoDate, "unparseable timestamp %q", s)
	}
	if !plausibleDate(t) {
		return time.Time{}, errors.Wrapf(ErrNoDate, "implausible timestamp %q", s)
	}
	return t, nil
}

func plausibleDate(t time.Time) bool {
	y := t.Year()
	return y >= 1970 && y <= 2100
}
