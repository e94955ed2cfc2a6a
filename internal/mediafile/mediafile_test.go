package mediafile

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tt := []struct {
		path string
		want Kind
	}{
		{"IMG_0001.JPG", KindPhoto},
		{"holiday/shot.jpeg", KindPhoto},
		{"scan.tiff", KindPhoto},
		{"apple.HEIC", KindPhoto},
		{"DSCF1234.RAF", KindRaw},
		{"A7III/DSC00001.arw", KindRaw},
		{"clip.mp4", KindVideo},
		{"clip.MOV", KindVideo},
		{"drone.WAV", KindAudio},
		{"edit.xmp", KindSidecar},
		{"IMG_0001.json", KindSidecar},
		{"notes.txt", KindUnknown},
		{"noext", KindUnknown},
	}

	for _, tc := range tt {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.path))
		})
	}
}

func TestIsMedia(t *testing.T) {
	assert.True(t, IsMedia(".jpg"))
	assert.True(t, IsMedia(".ARW"))
	assert.True(t, IsMedia(".m4v"))
	assert.True(t, IsMedia(".xmp"))
	assert.False(t, IsMedia(".txt"))
	assert.False(t, IsMedia(""))
}

func TestDecodableNatively(t *testing.T) {
	assert.True(t, DecodableNatively(".jpg"))
	assert.True(t, DecodableNatively(".PNG"))
	assert.False(t, DecodableNatively(".raf"))
	assert.False(t, DecodableNatively(".heic"))
	assert.False(t, DecodableNatively(".mp4"))
}

func TestSkipFolder(t *testing.T) {
	assert.True(t, SkipFolder(".Trashes", nil))
	assert.True(t, SkipFolder("THMBNL", nil))
	assert.True(t, SkipFolder("Thumbs", nil))
	assert.False(t, SkipFolder("2024-06-01", nil))
	assert.True(t, SkipFolder("exports", []string{"exports"}))
	assert.False(t, SkipFolder("exports", nil))
}

func TestInDateFolder(t *testing.T) {
	sep := string(filepath.Separator)

	tt := []struct {
		name string
		path string
		want bool
	}{
		{"day folder", filepath.Join("lib", "2024-06-01", "a.jpg"), true},
		{"month folder", filepath.Join("lib", "2024-06", "a.jpg"), true},
		{"year folder", filepath.Join("lib", "2024", "a.jpg"), true},
		{"plain folder", filepath.Join("lib", "incoming", "a.jpg"), false},
		{"file at root", "a.jpg", false},
		{"digits in name only", filepath.Join("lib", "trip-2024", "a.jpg"), false},
		{"nested under date", filepath.Join("2023", "2023-01-02", "raw", "a.raf"), true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InDateFolder(tc.path), "path %q (sep %q)", tc.path, sep)
		})
	}
}

func TestDateFromFilename(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tt := []struct {
		name string
		file string
		want time.Time
		ok   bool
	}{
		{"dji drone", "DJI_20250619224111_0001_D.MP4", day(2025, 6, 19), true},
		{"sony clip", "20250616_C0416.MP4", day(2025, 6, 16), true},
		{"generic timestamp", "IMG_20250619_123456.jpg", day(2025, 6, 19), true},
		{"iso date", "2025-06-19_hike.jpg", day(2025, 6, 19), true},
		{"compact date", "20250619_hike.jpg", day(2025, 6, 19), true},
		{"serial number is rejected", "IMG_00001234.jpg", time.Time{}, false},
		{"ancient year is rejected", "scan_10020304.png", time.Time{}, false},
		{"no digits", "holiday.jpg", time.Time{}, false},
		{"impossible month", "20251419_x.jpg", time.Time{}, false},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DateFromFilename(tc.file)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.True(t, got.Equal(tc.want), "got %s want %s", got, tc.want)
			}
		})
	}
}
