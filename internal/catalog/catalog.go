// Package catalog caches scan results in a SQLite database so repeated
// runs over a large library only hash and decode files that changed. An
// entry is keyed by path and considered fresh only while the file's size
// and mtime both still match.
package catalog

import (
	"path/filepath"
	"time"
)

// DefaultName is the catalog filename created inside the library root.
const DefaultName = ".mtool.db"

// DefaultPath returns the catalog location for a library root.
func DefaultPath(root string) string {
	return filepath.Join(root, DefaultName)
}

// Entry is one cached scan result.
type Entry struct {
	Path        string
	Size        int64
	MtimeNS     int64
	QuickHash   uint64
	ContentHash uint64
	CaptureUnix int64
	DateSource  string
	CameraMake  string
	CameraModel string
	PHash       uint64
	PHashKind   string
	ScannedAt   time.Time
}

// HasPHash reports whether a perceptual hash was computed for the entry.
func (e Entry) HasPHash() bool {
	return e.PHashKind != ""
}

// Store is the catalog interface the scanner works against.
type Store interface {
	// Lookup returns the cached entry for path. A hit requires the stored
	// size and mtime to match the file's current values, and refreshes
	// the entry's scanned_at so PruneStale keeps it.
	Lookup(path string, size, mtimeNS int64) (Entry, bool, error)

	// Put inserts or replaces the entry for its path.
	Put(e Entry) error

	// Forget drops the entry for path, if any.
	Forget(path string) error

	// PruneStale removes entries under root that were last refreshed
	// before the given time, returning how many were dropped.
	PruneStale(root string, before time.Time) (int64, error)

	Close() error
}

// Null is a Store that caches nothing. Used when the cache is disabled.
type Null struct{}

func (Null) Lookup(string, int64, int64) (Entry, bool, error) { return Entry{}, false, nil }
func (Null) Put(Entry) error                                  { return nil }
func (Null) Forget(string) error                              { return nil }
func (Null) PruneStale(string, time.Time) (int64, error)      { return 0, nil }
func (Null) Close() error                                     { return nil }
