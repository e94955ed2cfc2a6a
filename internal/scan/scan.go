// Package scan walks a library tree and resolves each media file's
// identity: content hashes, capture date, camera, and optionally a
// perceptual hash. Results are cached in a catalog so unchanged files are
// not re-read on later runs.
package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/AirswitchAsa/media-tool/internal/catalog"
	"github.com/AirswitchAsa/media-tool/internal/mediafile"
	"github.com/AirswitchAsa/media-tool/internal/meta"
)

// File is one discovered media file.
type File struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Record is the fully resolved identity of one file.
type Record struct {
	Path        string
	Size        int64
	ModTime     time.Time
	QuickHash   uint64
	ContentHash uint64
	Meta        meta.Metadata
	PHash       uint64
	HasPHash    bool
	Cached      bool
	Err         error
}

// WalkOptions tunes discovery.
type WalkOptions struct {
	// ExtraExtensions are user-configured extensions to treat as media,
	// with or without the leading dot.
	ExtraExtensions []string

	// SkipFolders are directory names excluded in addition to the
	// built-in set.
	SkipFolders []string

	// SkipOrganized drops files that already live inside a date folder.
	SkipOrganized bool
}

// Discover walks root and returns every primary media file found. Hidden
// files, hidden directories, skip folders, and sidecars are excluded;
// sidecars travel with their primaries at move time instead.
func Discover(root string, opts WalkOptions) ([]File, error) {
	extra := make(map[string]bool, len(opts.ExtraExtensions))
	for _, e := range opts.ExtraExtensions {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		extra[e] = true
	}

	var files []File
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		name := info.Name()
		if info.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || mediafile.SkipFolder(name, opts.SkipFolders)) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		if mediafile.IsSidecar(ext) {
			return nil
		}
		if !mediafile.IsMedia(ext) && !extra[ext] {
			return nil
		}
		if opts.SkipOrganized {
			if rel, err := filepath.Rel(root, path); err == nil && mediafile.InDateFolder(rel) {
				return nil
			}
		}

		files = append(files, File{Path: path, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", root)
	}
	return files, nil
}

// Options tunes a scan run.
type Options struct {
	Workers      int
	Catalog      catalog.Store
	UseExiftool  bool
	ComputePHash bool
	Logger       zerolog.Logger
	Progress     *Meter
}

// Run resolves a Record for every file using a worker pool. Workers each
// own a metadata extractor so exiftool processes are never shared. A
// cancelled context aborts the run and returns the context error.
func Run(ctx context.Context, files []File, opts Options) ([]Record, error) {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Null{}
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) && len(files) > 0 {
		workers = len(files)
	}

	useExiftool := opts.UseExiftool
	if useExiftool && !meta.ExiftoolAvailable() {
		opts.Logger.Warn().Msg("exiftool not found on PATH, falling back to native metadata only")
		useExiftool = false
	}

	type job struct {
		idx  int
		file File
	}

	records := make([]Record, len(files))
	jobs := make(chan job)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			x := meta.NewExtractor(meta.Options{UseExiftool: useExiftool, Logger: opts.Logger})
			defer x.Close()

			for j := range jobs {
				records[j.idx] = resolve(j.file, x, opts)
				opts.Progress.Step(records[j.idx].Cached)
			}
		}()
	}

	var aborted bool
feed:
	for i, f := range files {
		select {
		case jobs <- job{idx: i, file: f}:
		case <-ctx.Done():
			aborted = true
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if aborted {
		return nil, ctx.Err()
	}
	return records, nil
}

// resolve produces the Record for one file, consulting the catalog first.
func resolve(f File, x *meta.Extractor, opts Options) Record {
	rec := Record{Path: f.Path, Size: f.Size, ModTime: f.ModTime}

	if e, ok, err := opts.Catalog.Lookup(f.Path, f.Size, f.ModTime.UnixNano()); err != nil {
		opts.Logger.Warn().Err(err).Str("file", f.Path).Msg("catalog lookup failed")
	} else if ok {
		rec.QuickHash = e.QuickHash
		rec.ContentHash = e.ContentHash
		rec.Meta = meta.Metadata{
			CaptureDate: time.Unix(e.CaptureUnix, 0),
			Source:      meta.ParseSource(e.DateSource),
			CameraMake:  e.CameraMake,
			CameraModel: e.CameraModel,
		}
		rec.PHash = e.PHash
		rec.HasPHash = e.HasPHash()
		rec.Cached = true
		return rec
	}

	quick, content, err := HashFile(f.Path)
	if err != nil {
		opts.Logger.Warn().Err(err).Str("file", f.Path).Msg("hashing failed")
		rec.Err = err
		return rec
	}
	rec.QuickHash, rec.ContentHash = quick, content

	rec.Meta = x.Extract(f.Path, f.ModTime)

	if opts.ComputePHash && mediafile.KindOf(f.Path) == mediafile.KindPhoto {
		if ph, err := PerceptualHash(f.Path); err == nil {
			rec.PHash, rec.HasPHash = ph, true
		} else {
			opts.Logger.Debug().Err(err).Str("file", f.Path).Msg("perceptual hash skipped")
		}
	}

	if err := opts.Catalog.Put(entryFromRecord(rec)); err != nil {
		opts.Logger.Warn().Err(err).Str("file", f.Path).Msg("catalog store failed")
	}
	return rec
}

func entryFromRecord(r Record) catalog.Entry {
	e := catalog.Entry{
		Path:        r.Path,
		Size:        r.Size,
		MtimeNS:     r.ModTime.UnixNano(),
		QuickHash:   r.QuickHash,
		ContentHash: r.ContentHash,
		CaptureUnix: r.Meta.CaptureDate.Unix(),
		DateSource:  r.Meta.Source.String(),
		CameraMake:  r.Meta.CameraMake,
		CameraModel: r.Meta.CameraModel,
	}
	if r.HasPHash {
		e.PHash = r.PHash
		e.PHashKind = "phash"
	}
	return e
}
