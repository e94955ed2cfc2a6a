package meta

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// sidecarTimePaths are checked in order. Google Takeout writes the real
// capture time under photoTakenTime; creationTime is the upload time and
// only trusted when nothing better exists.
var sidecarTimePaths = []string{"photoTakenTime.timestamp", "creationTime.timestamp"}

// SidecarDate resolves a capture date from a JSON sidecar next to path.
// Both Takeout naming ("IMG.jpg.json") and plain naming ("IMG.json") are
// recognized.
func SidecarDate(path string) (time.Time, error) {
	for _, sc := range sidecarCandidates(path) {
		data, err := os.ReadFile(sc)
		if err != nil {
			continue
		}
		if t, err := parseSidecar(data); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(ErrNoDate, "no usable sidecar for %s", path)
}

func sidecarCandidates(path string) []string {
	candidates := []string{path + ".json"}
	if ext := filepath.Ext(path); ext != "" {
		candidates = append(candidates, strings.TrimSuffix(path, ext)+".json")
	}
	return candidates
}

func parseSidecar(data []byte) (time.Time, error) {
	for _, p := range sidecarTimePaths {
		v := gjson.GetBytes(data, p)
		if !v.Exists() {
			continue
		}
		unix := v.Int()
		if unix <= 0 {
			continue
		}
		t := time.Unix(unix, 0)
		if plausibleDate(t) {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrap(ErrNoDate, "sidecar carries no timestamp")
}
