// Package dedupe finds duplicate media. Exact duplicates are grouped by a
// cheap (size, capture day) signature and confirmed by full content hash;
// near duplicates are clustered by perceptual hash distance.
package dedupe

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/AirswitchAsa/media-tool/internal/config"
	"github.com/AirswitchAsa/media-tool/internal/scan"
)

// Signature is the cheap pre-grouping key. Files that differ in either
// field cannot be duplicates of each other.
type Signature struct {
	Size int64
	Day  string
}

// SignatureOf derives the signature for a scanned record.
func SignatureOf(r scan.Record) Signature {
	return Signature{Size: r.Size, Day: r.Meta.CaptureDate.Format("2006-01-02")}
}

// Group is a set of files believed to be copies of one another. Files is
// never shorter than two and keeps a deterministic path order.
type Group struct {
	Files []scan.Record

	// Exact is true when membership was confirmed by content hash.
	Exact bool

	// MaxDistance is the largest pairwise hash distance seen while
	// clustering a near group. Zero for exact groups.
	MaxDistance int
}

// TotalSize is the byte count of all files in the group.
func (g Group) TotalSize() int64 {
	var n int64
	for _, f := range g.Files {
		n += f.Size
	}
	return n
}

// GroupExact returns groups of byte-identical files. Records that failed
// to scan are ignored. Signature buckets are split by content hash, so
// same-size same-day files with different content never group together.
func GroupExact(records []scan.Record) []Group {
	buckets := make(map[Signature][]scan.Record)
	for _, r := range records {
		if r.Err != nil {
			continue
		}
		sig := SignatureOf(r)
		buckets[sig] = append(buckets[sig], r)
	}

	var groups []Group
	for _, bucket := range buckets {
		if len(bucket) < 2 {
			continue
		}
		byContent := make(map[uint64][]scan.Record)
		for _, r := range bucket {
			byContent[r.ContentHash] = append(byContent[r.ContentHash], r)
		}
		for _, same := range byContent {
			if len(same) < 2 {
				continue
			}
			sort.Slice(same, func(i, j int) bool { return same[i].Path < same[j].Path })
			groups = append(groups, Group{Files: same, Exact: true})
		}
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Files[0].Path < groups[j].Files[0].Path })
	return groups
}

// Keeper returns the file the policy would preserve.
func (g Group) Keeper(policy string) scan.Record {
	return rank(g.Files, policy)[0]
}

// rank orders files so the keeper comes first. Ties always fall through
// to the path so the result is stable across runs.
func rank(files []scan.Record, policy string) []scan.Record {
	out := make([]scan.Record, len(files))
	copy(out, files)

	less := func(a, b scan.Record) bool {
		switch policy {
		case config.KeepLargest:
			if a.Size != b.Size {
				return a.Size > b.Size
			}
		case config.KeepOldest:
			if !a.ModTime.Equal(b.ModTime) {
				return a.ModTime.Before(b.ModTime)
			}
		}
		an, bn := filepath.Base(a.Path), filepath.Base(b.Path)
		if len(an) != len(bn) {
			return len(an) < len(bn)
		}
		return a.Path < b.Path
	}

	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Deletion is one planned removal.
type Deletion struct {
	Path string
	Size int64

	// Keep is the path of the file preserved in its place.
	Keep string
}

// Resolve turns groups into a deletion plan under the given keep policy.
func Resolve(groups []Group, policy string) []Deletion {
	var dels []Deletion
	for _, g := range groups {
		ranked := rank(g.Files, policy)
		keep := ranked[0]
		for _, f := range ranked[1:] {
			dels = append(dels, Deletion{Path: f.Path, Size: f.Size, Keep: keep.Path})
		}
	}
	return dels
}

// Apply removes the planned files and returns how many were deleted and
// how many bytes that freed. Failures are logged and skipped, so one
// stubborn file does not abort the rest of the plan.
func Apply(dels []Deletion, logger zerolog.Logger) (removed int, freed int64) {
	for _, d := range dels {
		if err := os.Remove(d.Path); err != nil {
			logger.Warn().Err(err).Str("file", d.Path).Msg("delete failed")
			continue
		}
		logger.Debug().Str("file", d.Path).Str("kept", d.Keep).Msg("deleted duplicate")
		removed++
		freed += d.Size
	}
	return removed, freed
}
