// Package manifest maintains the library's tracking CSV: one row per
// organized file, keyed by path relative to the library root. Updates
// preserve existing rows, append new ones, and rewrite the file sorted so
// diffs stay readable.
package manifest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// Dir is the manifest folder created under the library root.
	Dir = "_Manifest"

	// FileName is the tracking CSV inside Dir.
	FileName = "media_manifest.csv"
)

var header = []string{
	"filename",
	"relative_path",
	"source_folder",
	"file_size_bytes",
	"file_size_mb",
	"file_modified",
	"capture_date",
	"camera_make",
	"camera_model",
	"file_hash",
	"extension",
	"organized_date",
}

const (
	timeLayout    = "2006-01-02 15:04:05"
	captureLayout = "2006:01:02 15:04:05"
)

// Path returns the manifest location for a library root.
func Path(root string) string {
	return filepath.Join(root, Dir, FileName)
}

// Entry is one manifest row.
type Entry struct {
	Filename     string
	RelativePath string
	SourceFolder string
	Size         int64
	Modified     time.Time
	CaptureDate  time.Time
	CameraMake   string
	CameraModel  string
	Hash         uint64
	OrganizedAt  time.Time
}

func (e Entry) row() []string {
	return []string{
		e.Filename,
		e.RelativePath,
		e.SourceFolder,
		strconv.FormatInt(e.Size, 10),
		fmt.Sprintf("%.2f", float64(e.Size)/(1024*1024)),
		e.Modified.Format(timeLayout),
		e.CaptureDate.Format(captureLayout),
		e.CameraMake,
		e.CameraModel,
		fmt.Sprintf("%016x", e.Hash),
		strings.ToLower(filepath.Ext(e.Filename)),
		e.OrganizedAt.Format(timeLayout),
	}
}

func entryFromRow(row []string) (Entry, bool) {
	if len(row) < len(header) {
		return Entry{}, false
	}
	e := Entry{
		Filename:     row[0],
		RelativePath: row[1],
		SourceFolder: row[2],
		CameraMake:   row[7],
		CameraModel:  row[8],
	}
	e.Size, _ = strconv.ParseInt(row[3], 10, 64)
	e.Modified, _ = time.Parse(timeLayout, row[5])
	e.CaptureDate, _ = time.Parse(captureLayout, row[6])
	e.Hash, _ = strconv.ParseUint(row[9], 16, 64)
	e.OrganizedAt, _ = time.Parse(timeLayout, row[11])
	return e, true
}

// Update merges entries into the manifest at root, creating it on first
// use. Rows already present for a relative path are left untouched. The
// rewrite goes through a temp file so a crash cannot truncate the
// manifest.
func Update(root string, entries []Entry) (added int, err error) {
	dir := filepath.Join(root, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, errors.Wrap(err, "creating manifest folder")
	}

	path := Path(root)
	existing := make(map[string][]string)
	if f, err := os.Open(path); err == nil {
		rd := csv.NewReader(f)
		rd.FieldsPerRecord = -1
		rows, _ := rd.ReadAll()
		f.Close()
		for i, row := range rows {
			if i == 0 || len(row) < 2 {
				continue
			}
			existing[row[1]] = row
		}
	}

	for _, e := range entries {
		if _, ok := existing[e.RelativePath]; ok {
			continue
		}
		existing[e.RelativePath] = e.row()
		added++
	}

	keys := make([]string, 0, len(existing))
	for k := range existing {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return 0, errors.Wrap(err, "creating temp manifest")
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return 0, errors.Wrap(err, "writing manifest header")
	}
	for _, k := range keys {
		if err := w.Write(existing[k]); err != nil {
			tmp.Close()
			return 0, errors.Wrap(err, "writing manifest row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return 0, errors.Wrap(err, "flushing manifest")
	}
	if err := tmp.Close(); err != nil {
		return 0, errors.Wrap(err, "closing temp manifest")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, errors.Wrap(err, "replacing manifest")
	}
	return added, nil
}

// Read loads all manifest entries. A missing manifest reads as empty.
// Malformed rows are dropped rather than failing the whole file.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(Path(root))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "opening manifest")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading manifest")
	}

	var entries []Entry
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if e, ok := entryFromRow(row); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
