// Package organize plans and executes moves of media files into
// chronological folders. Planning is pure: it reads the filesystem but
// changes nothing, so a plan can be previewed before anything is touched.
package organize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AirswitchAsa/media-tool/internal/scan"
)

// Action says what the mover should do with one planned item.
type Action int

const (
	// ActionMove relocates the file to its date folder.
	ActionMove Action = iota

	// ActionSkipDuplicate leaves the file alone because the destination
	// already holds a same-size copy.
	ActionSkipDuplicate

	// ActionSkipInPlace leaves the file alone because it already sits at
	// its computed destination.
	ActionSkipInPlace

	// ActionSkipFailed leaves the file alone because scanning it failed.
	ActionSkipFailed
)

func (a Action) String() string {
	switch a {
	case ActionMove:
		return "move"
	case ActionSkipDuplicate:
		return "skip duplicate"
	case ActionSkipInPlace:
		return "in place"
	case ActionSkipFailed:
		return "skip failed"
	default:
		return "unknown"
	}
}

// SidecarMove is a companion file that travels with its primary.
type SidecarMove struct {
	Source string
	Dest   string
}

// Item is one planned operation.
type Item struct {
	Source   string
	Dest     string
	Action   Action
	Reason   string
	Record   scan.Record
	Sidecars []SidecarMove
}

// Plan is the full set of operations for one run.
type Plan struct {
	Items []Item
}

// Moves returns only the items that will actually relocate a file.
func (p Plan) Moves() []Item {
	var out []Item
	for _, it := range p.Items {
		if it.Action == ActionMove {
			out = append(out, it)
		}
	}
	return out
}

// Count returns how many items carry the given action.
func (p Plan) Count(a Action) int {
	n := 0
	for _, it := range p.Items {
		if it.Action == a {
			n++
		}
	}
	return n
}

// Options controls plan construction.
type Options struct {
	// TargetRoot is the directory date folders are created under.
	TargetRoot string

	// ByMonth selects YYYY/YYYY-MM folders instead of YYYY/YYYY-MM-DD.
	ByMonth bool
}

// DateDir returns the relative date folder for a capture time.
func DateDir(t time.Time, byMonth bool) string {
	if byMonth {
		return filepath.Join(t.Format("2006"), t.Format("2006-01"))
	}
	return filepath.Join(t.Format("2006"), t.Format("2006-01-02"))
}

// BuildPlan computes a destination for every record. Collisions with
// existing files get a numeric suffix unless the existing file has the
// same size, which marks the source as a duplicate to skip. Destinations
// are also kept unique within the plan itself, so two same-named sources
// from different folders never race for one path.
func BuildPlan(records []scan.Record, opts Options) Plan {
	plan := Plan{Items: make([]Item, 0, len(records))}
	claimed := make(map[string]bool)

	for _, r := range records {
		item := Item{Source: r.Path, Record: r}

		if r.Err != nil {
			item.Action = ActionSkipFailed
			item.Reason = r.Err.Error()
			plan.Items = append(plan.Items, item)
			continue
		}

		dir := filepath.Join(opts.TargetRoot, DateDir(r.Meta.CaptureDate, opts.ByMonth))
		want := filepath.Join(dir, filepath.Base(r.Path))

		if want == r.Path {
			item.Action = ActionSkipInPlace
			item.Dest = want
			plan.Items = append(plan.Items, item)
			continue
		}

		dest, dupOf := resolveDest(want, r.Size, claimed)
		if dupOf != "" {
			item.Action = ActionSkipDuplicate
			item.Dest = dupOf
			item.Reason = fmt.Sprintf("same size as %s", dupOf)
			plan.Items = append(plan.Items, item)
			continue
		}

		claimed[dest] = true
		item.Action = ActionMove
		item.Dest = dest
		item.Sidecars = pairSidecars(r.Path, dest)
		plan.Items = append(plan.Items, item)
	}

	return plan
}

// resolveDest finds a free destination for a file of the given size.
// Returns the path to use, or the path of an existing same-size file when
// the move would just duplicate it.
func resolveDest(want string, size int64, claimed map[string]bool) (dest string, dupOf string) {
	candidate := want
	for n := 1; ; n++ {
		if !claimed[candidate] {
			st, err := os.Stat(candidate)
			if err != nil {
				return candidate, ""
			}
			if st.Size() == size {
				return "", candidate
			}
		}
		candidate = withSuffix(want, n)
	}
}

// withSuffix inserts _n before the extension: a.jpg, a_1.jpg, a_2.jpg.
func withSuffix(path string, n int) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s_%d%s", stem, n, ext)
}

// pairSidecars finds companion files next to the source and mirrors their
// naming style onto the final destination, suffix included.
func pairSidecars(src, dest string) []SidecarMove {
	srcExt := filepath.Ext(src)
	srcStem := strings.TrimSuffix(src, srcExt)
	destExt := filepath.Ext(dest)
	destStem := strings.TrimSuffix(dest, destExt)

	candidates := []SidecarMove{
		{Source: src + ".json", Dest: dest + ".json"},
		{Source: src + ".xmp", Dest: dest + ".xmp"},
		{Source: srcStem + ".json", Dest: destStem + ".json"},
		{Source: srcStem + ".xmp", Dest: destStem + ".xmp"},
		{Source: srcStem + ".lrf", Dest: destStem + ".lrf"},
		{Source: srcStem + ".LRF", Dest: destStem + ".LRF"},
	}

	var out []SidecarMove
	seen := make(map[string]bool)
	for _, c := range candidates {
		if seen[c.Source] {
			continue
		}
		if st, err := os.Stat(c.Source); err == nil && !st.IsDir() {
			seen[c.Source] = true
			out = append(out, c)
		}
	}
	return out
}
