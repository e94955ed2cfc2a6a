// Package mediafile classifies library files by extension and recognizes
// capture dates embedded in file and folder names.
package mediafile

import (
	"path/filepath"
	"strings"
)

// Kind labels what a file is to the organizer.
type Kind int

const (
	KindUnknown Kind = iota
	KindPhoto
	KindRaw
	KindVideo
	KindAudio
	KindSidecar
)

func (k Kind) String() string {
	switch k {
	case KindPhoto:
		return "photo"
	case KindRaw:
		return "raw"
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindSidecar:
		return "sidecar"
	default:
		return "unknown"
	}
}

// photoExts contains supported photo file extensions.
// These files are candidates for native EXIF extraction.
var photoExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".tiff": true,
	".heic": true,
	".hif":  true, // Apple HEIF (alternate extension)
}

// rawExts contains camera RAW extensions. EXIF comes from exiftool.
var rawExts = map[string]bool{
	".raf": true, // Fujifilm
	".arw": true, // Sony
	".dng": true, // Adobe Digital Negative
	".cr2": true, // Canon
	".nef": true, // Nikon
	".orf": true, // Olympus
	".rw2": true, // Panasonic
}

// videoExts contains supported video file extensions.
var videoExts = map[string]bool{
	".mp4": true,
	".mov": true,
	".avi": true,
	".mkv": true,
	".m4v": true,
}

// audioExts contains supported audio file extensions.
// Primarily for DJI drone audio files that accompany videos.
var audioExts = map[string]bool{
	".wav": true,
	".mp3": true,
}

// sidecarExts contains sidecar/metadata file extensions.
// These files typically accompany photos with additional metadata.
var sidecarExts = map[string]bool{
	".lrf":  true, // Low Resolution File (DJI)
	".xmp":  true, // Adobe XMP sidecar
	".json": true, // JSON metadata
}

// nativeExts are formats the Go image registry and goexif can decode
// without external tooling.
var nativeExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".tiff": true,
}

// skipFolderNames contains directory names to skip during scanning.
// These are typically system folders or camera-specific directories
// that don't contain user media.
var skipFolderNames = map[string]bool{
	".stfolder":       true, // Syncthing
	".fseventsd":      true, // macOS filesystem events
	".Trashes":        true, // macOS trash
	".Spotlight-V100": true, // macOS Spotlight index
	"PRIVATE":         true, // Camera system folder
	"AVF_INFO":        true, // Sony AVCHD info
	"THMBNL":          true, // Sony thumbnails
	"Thumbs":          true,
	"resources":       true,
}

// KindOf classifies a path by its extension.
func KindOf(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case photoExts[ext]:
		return KindPhoto
	case rawExts[ext]:
		return KindRaw
	case videoExts[ext]:
		return KindVideo
	case audioExts[ext]:
		return KindAudio
	case sidecarExts[ext]:
		return KindSidecar
	default:
		return KindUnknown
	}
}

// IsMedia returns true if the file extension indicates a supported media
// file of any kind, sidecars included.
func IsMedia(ext string) bool {
	ext = strings.ToLower(ext)
	return photoExts[ext] || rawExts[ext] || videoExts[ext] || audioExts[ext] || sidecarExts[ext]
}

// IsImage reports whether the file carries picture content, RAW included.
func IsImage(ext string) bool {
	ext = strings.ToLower(ext)
	return photoExts[ext] || rawExts[ext]
}

// IsSidecar reports whether the file is a metadata companion.
func IsSidecar(ext string) bool {
	return sidecarExts[strings.ToLower(ext)]
}

// DecodableNatively reports whether the format can be decoded by the Go
// image registry; gates the goexif fast path and perception hashing.
func DecodableNatively(ext string) bool {
	return nativeExts[strings.ToLower(ext)]
}

// SkipFolder reports whether a directory name should be excluded from
// scans. extra holds user-configured names.
func SkipFolder(name string, extra []string) bool {
	if skipFolderNames[name] {
		return true
	}
	for _, e := range extra {
		if name == e {
			return true
		}
	}
	return false
}

// InDateFolder returns true when any parent directory component looks like
// a date folder (all digits once dashes are removed), meaning the file has
// been organized before and should not be picked up again.
func InDateFolder(path string) bool {
	dir := filepath.Dir(path)
	for _, part := range strings.Split(dir, string(filepath.Separator)) {
		if part == "" || part == "." {
			continue
		}
		if isDateFolderName(part) {
			return true
		}
	}
	return false
}

func isDateFolderName(name string) bool {
	stripped := strings.ReplaceAll(name, "-", "")
	if len(stripped) < 4 {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
