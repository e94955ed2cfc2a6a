package dedupe

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

// Review walks the operator through a deletion plan. The opening prompt
// accepts the whole plan, switches to per-group review, or quits; during
// review each group is confirmed on its own and quitting keeps whatever
// was already confirmed. Reading in to EOF counts as quit, so a piped
// empty stdin never deletes anything. Exact and perceptual groups can
// carry different keep policies.
func Review(in io.Reader, out io.Writer, groups []Group, exactPolicy, nearPolicy string) []Deletion {
	if len(groups) == 0 {
		return nil
	}

	var all []Deletion
	for _, g := range groups {
		all = append(all, Resolve([]Group{g}, policyFor(g, exactPolicy, nearPolicy))...)
	}
	var reclaim int64
	for _, d := range all {
		reclaim += d.Size
	}

	sc := bufio.NewScanner(in)
	fmt.Fprintf(out, "%d duplicate group(s), %d file(s) deletable, %s reclaimable\n",
		len(groups), len(all), humanize.Bytes(uint64(reclaim)))
	fmt.Fprintf(out, "delete all? [y]es / [r]eview each / [q]uit: ")

	switch answer(sc) {
	case "y":
		return all
	case "r":
	default:
		fmt.Fprintln(out, "nothing deleted")
		return nil
	}

	var confirmed []Deletion
	for i, g := range groups {
		policy := policyFor(g, exactPolicy, nearPolicy)
		ranked := rank(g.Files, policy)
		fmt.Fprintf(out, "\ngroup %d of %d  (%d files, %s)\n",
			i+1, len(groups), len(g.Files), humanize.Bytes(uint64(g.TotalSize())))
		fmt.Fprintf(out, "  keep    %s\n", ranked[0].Path)
		for _, f := range ranked[1:] {
			fmt.Fprintf(out, "  delete  %s\n", f.Path)
		}
		fmt.Fprintf(out, "delete %d file(s) from this group? [y/n/q]: ", len(ranked)-1)

		switch answer(sc) {
		case "y":
			confirmed = append(confirmed, Resolve([]Group{g}, policy)...)
		case "q":
			return confirmed
		}
	}
	return confirmed
}

func policyFor(g Group, exact, near string) string {
	if g.Exact {
		return exact
	}
	return near
}

func answer(sc *bufio.Scanner) string {
	if !sc.Scan() {
		return "q"
	}
	return strings.ToLower(strings.TrimSpace(sc.Text()))
}
