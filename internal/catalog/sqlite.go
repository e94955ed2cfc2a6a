package catalog

import (
	"database/sql"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	path         TEXT PRIMARY KEY,
	size         INTEGER NOT NULL,
	mtime_ns     INTEGER NOT NULL,
	quick_hash   INTEGER NOT NULL DEFAULT 0,
	content_hash INTEGER NOT NULL DEFAULT 0,
	capture_unix INTEGER NOT NULL DEFAULT 0,
	date_source  TEXT NOT NULL DEFAULT '',
	camera_make  TEXT NOT NULL DEFAULT '',
	camera_model TEXT NOT NULL DEFAULT '',
	phash        INTEGER NOT NULL DEFAULT 0,
	phash_kind   TEXT NOT NULL DEFAULT '',
	scanned_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_files_scanned_at ON files(scanned_at);
`

// SQLite is the on-disk Store implementation.
type SQLite struct {
	db *sql.DB
}

// Open opens or creates the catalog database at path.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening catalog %s", path)
	}

	// modernc's driver allows one writer; a single connection avoids
	// SQLITE_BUSY under the scan worker pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enabling WAL")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating catalog schema")
	}

	return &SQLite{db: db}, nil
}

func (c *SQLite) Close() error {
	return c.db.Close()
}

func (c *SQLite) Lookup(path string, size, mtimeNS int64) (Entry, bool, error) {
	row := c.db.QueryRow(`
		SELECT path, size, mtime_ns, quick_hash, content_hash, capture_unix,
		       date_source, camera_make, camera_model, phash, phash_kind, scanned_at
		FROM files WHERE path = ?`, path)

	var e Entry
	var quick, content, phash, scanned int64
	err := row.Scan(&e.Path, &e.Size, &e.MtimeNS, &quick, &content, &e.CaptureUnix,
		&e.DateSource, &e.CameraMake, &e.CameraModel, &phash, &e.PHashKind, &scanned)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, errors.Wrapf(err, "looking up %s", path)
	}

	if e.Size != size || e.MtimeNS != mtimeNS {
		return Entry{}, false, nil
	}

	// a hit revalidates the row against disk, keep it out of
	// PruneStale's reach
	now := time.Now()
	if _, terr := c.db.Exec(`UPDATE files SET scanned_at = ? WHERE path = ?`,
		now.UnixNano(), path); terr == nil {
		scanned = now.UnixNano()
	}

	e.QuickHash = uint64(quick)
	e.ContentHash = uint64(content)
	e.PHash = uint64(phash)
	e.ScannedAt = time.Unix(0, scanned)
	return e, true, nil
}

func (c *SQLite) Put(e Entry) error {
	if e.ScannedAt.IsZero() {
		e.ScannedAt = time.Now()
	}
	_, err := c.db.Exec(`
		INSERT INTO files (path, size, mtime_ns, quick_hash, content_hash, capture_unix,
		                   date_source, camera_make, camera_model, phash, phash_kind, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mtime_ns = excluded.mtime_ns,
			quick_hash = excluded.quick_hash,
			content_hash = excluded.content_hash,
			capture_unix = excluded.capture_unix,
			date_source = excluded.date_source,
			camera_make = excluded.camera_make,
			camera_model = excluded.camera_model,
			phash = excluded.phash,
			phash_kind = excluded.phash_kind,
			scanned_at = excluded.scanned_at`,
		e.Path, e.Size, e.MtimeNS, int64(e.QuickHash), int64(e.ContentHash), e.CaptureUnix,
		e.DateSource, e.CameraMake, e.CameraModel, int64(e.PHash), e.PHashKind,
		e.ScannedAt.UnixNano())
	return errors.Wrapf(err, "storing %s", e.Path)
}

func (c *SQLite) Forget(path string) error {
	_, err := c.db.Exec(`DELETE FROM files WHERE path = ?`, path)
	return errors.Wrapf(err, "forgetting %s", path)
}

func (c *SQLite) PruneStale(root string, before time.Time) (int64, error) {
	// plain prefix compare, LIKE would treat _ and % in paths as wildcards
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	res, err := c.db.Exec(`DELETE FROM files WHERE substr(path, 1, ?) = ? AND scanned_at < ?`,
		utf8.RuneCountInString(prefix), prefix, before.UnixNano())
	if err != nil {
		return 0, errors.Wrap(err, "pruning catalog")
	}
	return res.RowsAffected()
}
