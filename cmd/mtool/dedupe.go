package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/AirswitchAsa/media-tool/internal/catalog"
	"github.com/AirswitchAsa/media-tool/internal/config"
	"github.com/AirswitchAsa/media-tool/internal/dedupe"
	"github.com/AirswitchAsa/media-tool/internal/logging"
	"github.com/AirswitchAsa/media-tool/internal/scan"
)

var (
	dedupeNear     bool
	dedupeDistance int
	dedupeKeep     string
	dedupeExecute  bool
	dedupeReview   bool
	dedupeWorkers  int
	dedupeNoCache  bool
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe SOURCE",
	Short: "Find and remove duplicate media files",
	Long: `Dedupe scans SOURCE and groups byte-identical files: candidates share
a size and capture day, and membership is confirmed by full content hash.
With --near it additionally clusters visually similar photos by
perceptual hash distance, which catches re-encodes, resizes, and edited
exports sitting next to their originals.

The default run only reports. Use -r to review and delete interactively,
or -x to delete everything the keep policy does not protect.`,
	Example: `  mtool dedupe ~/photo-library
  mtool dedupe ~/photo-library -r
  mtool dedupe ~/photo-library --near --distance 8
  mtool dedupe ~/photo-library -x --keep oldest`,
	Args: cobra.ExactArgs(1),
	RunE: runDedupe,
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
	f := dedupeCmd.Flags()
	f.BoolVar(&dedupeNear, "near", false, "also cluster visually similar photos")
	f.IntVar(&dedupeDistance, "distance", 0, "hamming radius for --near (default from config)")
	f.StringVar(&dedupeKeep, "keep", "", "keep policy: shortest-name, largest, or oldest")
	f.BoolVarP(&dedupeExecute, "execute", "x", false, "delete duplicates without prompting")
	f.BoolVarP(&dedupeReview, "review", "r", false, "review each group interactively")
	f.IntVarP(&dedupeWorkers, "workers", "w", 0, "scan workers (default: CPU count, capped at 8)")
	f.BoolVar(&dedupeNoCache, "no-cache", false, "bypass the scan catalog")
}

func runDedupe(cmd *cobra.Command, args []string) error {
	source, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	st, err := os.Stat(source)
	if err != nil {
		return errors.Wrapf(err, "source %s", args[0])
	}
	if !st.IsDir() {
		return errors.Errorf("source %s is not a directory", source)
	}
	if dedupeExecute && dedupeReview {
		return errors.New("-x and -r are mutually exclusive")
	}

	exactPolicy := cfg.KeepPolicy
	nearPolicy := config.KeepLargest
	if cmd.Flags().Changed("keep") {
		if err := validateKeep(dedupeKeep); err != nil {
			return err
		}
		exactPolicy, nearPolicy = dedupeKeep, dedupeKeep
	}
	distance := cfg.NearDistance
	if cmd.Flags().Changed("distance") {
		distance = dedupeDistance
	}
	workers := cfg.PoolSize()
	if dedupeWorkers > 0 {
		workers = dedupeWorkers
	}

	banner("Duplicate Finder")
	fmt.Printf("Source:  %s\n", source)
	fmt.Printf("Policy:  keep %s\n", exactPolicy)
	fmt.Println()

	root := resolveRoot(source)
	cat := openCatalog(root, dedupeNoCache)
	defer cat.Close()

	// dedupe looks at everything, organized date folders included
	files, err := scan.Discover(source, scan.WalkOptions{
		ExtraExtensions: cfg.ExtraExtensions,
		SkipFolders:     cfg.SkipFolders,
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No media files found")
		return nil
	}
	fmt.Printf("Scanning %d files\n\n", len(files))

	scanStart := time.Now()
	records, err := runScan(cmd.Context(), files, cat, workers, dedupeNear)
	if err != nil {
		return err
	}

	// rows not revalidated by this scan belong to files that are gone
	if n, err := cat.PruneStale(source, scanStart); err == nil && n > 0 {
		logging.WithComponent("dedupe").Debug().Int64("rows", n).Msg("pruned stale catalog entries")
	}

	exact := dedupe.GroupExact(records)
	var groups []dedupe.Group
	groups = append(groups, exact...)

	if dedupeNear {
		for _, g := range dedupe.GroupNear(records, distance) {
			if mixedContent(g) {
				groups = append(groups, g)
			}
		}
	}

	if len(groups) == 0 {
		fmt.Println("No duplicates found")
		return nil
	}

	printGroups(exact, groups[len(exact):], exactPolicy, nearPolicy, source)

	switch {
	case dedupeReview:
		dels := dedupe.Review(os.Stdin, os.Stdout, groups, exactPolicy, nearPolicy)
		return applyDeletions(dels, cat)

	case dedupeExecute:
		dels := dedupe.Resolve(exact, exactPolicy)
		dels = append(dels, dedupe.Resolve(groups[len(exact):], nearPolicy)...)
		return applyDeletions(uniqueDeletions(dels), cat)

	default:
		dels := dedupe.Resolve(exact, exactPolicy)
		dels = append(dels, dedupe.Resolve(groups[len(exact):], nearPolicy)...)
		dels = uniqueDeletions(dels)
		var reclaim int64
		for _, d := range dels {
			reclaim += d.Size
		}
		fmt.Printf("\n[DRY RUN] Would delete %d files, reclaiming %s\n",
			len(dels), humanize.Bytes(uint64(reclaim)))
		fmt.Println("[DRY RUN] Use -x to delete, or -r to review each group")
		return nil
	}
}

// mixedContent reports whether a perceptual cluster holds more than one
// distinct file content. Clusters that are purely byte-identical copies
// are already covered by the exact groups.
func mixedContent(g dedupe.Group) bool {
	first := g.Files[0].ContentHash
	for _, f := range g.Files[1:] {
		if f.ContentHash != first {
			return true
		}
	}
	return false
}

func printGroups(exact, near []dedupe.Group, exactPolicy, nearPolicy, base string) {
	fmt.Printf("Exact duplicates: %d group(s)\n", len(exact))
	for i, g := range exact {
		printGroup(i+1, g, exactPolicy, base)
	}
	if dedupeNear {
		fmt.Printf("\nVisually similar: %d group(s)\n", len(near))
		for i, g := range near {
			fmt.Printf("  group %d (max distance %d):\n", i+1, g.MaxDistance)
			printGroupFiles(g, nearPolicy, base)
		}
	}
}

func printGroup(n int, g dedupe.Group, policy, base string) {
	fmt.Printf("  group %d (%s):\n", n, humanize.Bytes(uint64(g.TotalSize())))
	printGroupFiles(g, policy, base)
}

func printGroupFiles(g dedupe.Group, policy, base string) {
	keeper := g.Keeper(policy)
	for _, f := range g.Files {
		mark := "delete"
		if f.Path == keeper.Path {
			mark = "keep  "
		}
		fmt.Printf("    %s  %s (%s)\n", mark, rel(base, f.Path), humanize.Bytes(uint64(f.Size)))
	}
}

func uniqueDeletions(dels []dedupe.Deletion) []dedupe.Deletion {
	seen := make(map[string]bool, len(dels))
	out := dels[:0]
	for _, d := range dels {
		if seen[d.Path] {
			continue
		}
		seen[d.Path] = true
		out = append(out, d)
	}
	return out
}

func applyDeletions(dels []dedupe.Deletion, cat catalog.Store) error {
	if len(dels) == 0 {
		fmt.Println("\nNothing deleted")
		return nil
	}
	removed, freed := dedupe.Apply(dels, logging.WithComponent("dedupe"))
	for _, d := range dels {
		_ = cat.Forget(d.Path)
	}
	fmt.Printf("\nDeleted %d files, reclaimed %s\n", removed, humanize.Bytes(uint64(freed)))
	fmt.Println("\nDone!")
	return nil
}

func validateKeep(p string) error {
	switch p {
	case config.KeepShortestName, config.KeepLargest, config.KeepOldest:
		return nil
	default:
		return errors.Errorf("unknown keep policy %q (want shortest-name, largest, or oldest)", p)
	}
}
