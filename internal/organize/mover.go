package organize

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Result tallies what Apply did.
type Result struct {
	Moved   int
	Skipped int
	Failed  int
}

// Apply executes a plan and returns the tally plus the items that really
// moved, which is what belongs in the manifest. Failures are logged and
// counted rather than aborting, so one unreadable file does not strand
// the rest of an import.
func Apply(plan Plan, logger zerolog.Logger) (Result, []Item) {
	var res Result
	var moved []Item
	for _, item := range plan.Items {
		if item.Action != ActionMove {
			res.Skipped++
			continue
		}

		dest, dup := claimDest(item)
		if dup {
			logger.Debug().Str("file", item.Source).Str("dest", item.Dest).Msg("same-size file appeared at destination, skipping")
			res.Skipped++
			continue
		}
		if dest != item.Dest {
			logger.Debug().Str("planned", item.Dest).Str("dest", dest).Msg("destination taken, re-suffixed")
			sidecars := make([]SidecarMove, len(item.Sidecars))
			for i, sc := range item.Sidecars {
				sidecars[i] = SidecarMove{Source: sc.Source, Dest: retargetSidecar(sc.Dest, item.Dest, dest)}
			}
			item.Dest = dest
			item.Sidecars = sidecars
		}

		if err := os.MkdirAll(filepath.Dir(item.Dest), 0o755); err != nil {
			logger.Warn().Err(err).Str("file", item.Source).Msg("creating date folder failed")
			res.Failed++
			continue
		}
		if err := moveFile(item.Source, item.Dest); err != nil {
			logger.Warn().Err(err).Str("file", item.Source).Msg("move failed")
			res.Failed++
			continue
		}
		logger.Debug().Str("from", item.Source).Str("to", item.Dest).Msg("moved")
		res.Moved++
		moved = append(moved, item)

		for _, sc := range item.Sidecars {
			if err := moveFile(sc.Source, sc.Dest); err != nil {
				logger.Warn().Err(err).Str("file", sc.Source).Msg("sidecar move failed")
			}
		}
	}
	return res, moved
}

// claimDest revalidates a planned destination right before moving. A file
// can land there between plan and apply; a same-size arrival makes the move
// pointless, anything else forces a fresh suffix. Without this check
// os.Rename would overwrite it.
func claimDest(item Item) (dest string, dup bool) {
	st, err := os.Stat(item.Dest)
	if err != nil {
		return item.Dest, false
	}
	if st.Size() == item.Record.Size {
		return "", true
	}
	for n := 1; ; n++ {
		cand := withSuffix(item.Dest, n)
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand, false
		}
	}
}

// retargetSidecar renames a sidecar destination after its primary was
// re-suffixed, preserving the append or replace naming style.
func retargetSidecar(scDest, oldDest, newDest string) string {
	oldBase := filepath.Base(oldDest)
	newBase := filepath.Base(newDest)
	base := filepath.Base(scDest)
	if strings.HasPrefix(base, oldBase) {
		return filepath.Join(filepath.Dir(newDest), newBase+base[len(oldBase):])
	}
	oldStem := strings.TrimSuffix(oldBase, filepath.Ext(oldBase))
	newStem := strings.TrimSuffix(newBase, filepath.Ext(newBase))
	if strings.HasPrefix(base, oldStem) {
		return filepath.Join(filepath.Dir(newDest), newStem+base[len(oldStem):])
	}
	return filepath.Join(filepath.Dir(newDest), base)
}

// moveFile renames src to dst, falling back to copy and delete when the
// rename fails, which is what happens across filesystem boundaries.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return errors.Wrapf(os.Remove(src), "removing %s after copy", src)
}

func copyFile(src, dst string) error {
	st, err := os.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "stat %s", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "creating %s", dst)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return errors.Wrapf(err, "copying to %s", dst)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return errors.Wrapf(err, "closing %s", dst)
	}

	// keep the mtime so date fallbacks survive the copy
	return os.Chtimes(dst, st.ModTime(), st.ModTime())
}

// CleanupEmptyDirs removes directories left empty under root, deepest
// first. The root itself is never removed.
func CleanupEmptyDirs(root string, logger zerolog.Logger) int {
	var dirs []string
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})

	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})

	removed := 0
	for _, d := range dirs {
		if err := os.Remove(d); err == nil {
			logger.Debug().Str("dir", d).Msg("removed empty folder")
			removed++
		}
	}
	return removed
}
