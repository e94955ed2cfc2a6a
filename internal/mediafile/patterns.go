package mediafile

import (
	"regexp"
	"time"
)

// datePatterns contains regex patterns for extracting dates from filenames.
// Patterns are tried in order; first match wins.
// The layout string uses Go's reference time: Mon Jan 2 15:04:05 MST 2006
var datePatterns = []struct {
	regex  *regexp.Regexp
	layout string
	desc   string
}{
	// DJI drone: DJI_20250619224111_0001_D.MP4
	{regexp.MustCompile(`DJI_(\d{8})`), "20060102", "DJI drone files"},

	// Sony video: 20250616_C0416.MP4
	{regexp.MustCompile(`^(\d{8})_C\d+`), "20060102", "Sony video clips"},

	// Generic timestamp: IMG_20250619_123456.jpg
	{regexp.MustCompile(`(\d{8})_\d{6}`), "20060102", "Generic timestamp format"},

	// ISO date: 2025-06-19_photo.jpg
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`), "2006-01-02", "ISO date format"},

	// Compact date: 20250619_photo.jpg (last resort, less specific)
	{regexp.MustCompile(`(\d{8})`), "20060102", "Compact date format"},
}

// DateFromFilename attempts to extract a date from the filename.
// Returns the parsed date and true if successful, or zero time and false
// if no pattern matches.
func DateFromFilename(filename string) (time.Time, bool) {
	for _, p := range datePatterns {
		matches := p.regex.FindStringSubmatch(filename)
		if len(matches) >= 2 {
			t, err := time.Parse(p.layout, matches[1])
			if err == nil && plausibleCaptureYear(t) {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// plausibleCaptureYear rejects digit runs that parse but cannot be capture
// dates, e.g. serial numbers like 00001234.
func plausibleCaptureYear(t time.Time) bool {
	y := t.Year()
	return y >= 1970 && y <= 2100
}
