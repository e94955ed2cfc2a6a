package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/AirswitchAsa/media-tool/internal/catalog"
	"github.com/AirswitchAsa/media-tool/internal/logging"
	"github.com/AirswitchAsa/media-tool/internal/manifest"
	"github.com/AirswitchAsa/media-tool/internal/organize"
	"github.com/AirswitchAsa/media-tool/internal/scan"
)

var (
	moveTarget   string
	moveByMonth  bool
	moveExecute  bool
	moveManifest bool
	moveWorkers  int
	moveNoCache  bool
)

var moveCmd = &cobra.Command{
	Use:   "move SOURCE",
	Short: "Move media files into date folders",
	Long: `Move scans SOURCE for media files, resolves each file's capture date,
and moves it into TARGET/YYYY/YYYY-MM-DD/ (or YYYY/YYYY-MM with
--by-month). Sidecar files travel with their primaries.

Without --target the destination is the library's Originals folder when a
library root is configured, otherwise files are organized in place under
SOURCE. The default run is a preview; nothing moves until -x is given.`,
	Example: `  mtool move ~/photo-library/Incoming
  mtool move /mnt/sdcard/DCIM -t ~/photo-library/Originals -x -m
  mtool move ~/Downloads/takeout --by-month -x`,
	Args: cobra.ExactArgs(1),
	RunE: runMove,
}

func init() {
	rootCmd.AddCommand(moveCmd)
	f := moveCmd.Flags()
	f.StringVarP(&moveTarget, "target", "t", "", "destination root (default: library Originals, else SOURCE)")
	f.BoolVar(&moveByMonth, "by-month", false, "organize into YYYY/YYYY-MM folders")
	f.BoolVarP(&moveExecute, "execute", "x", false, "actually move files (default is a dry run)")
	f.BoolVarP(&moveManifest, "manifest", "m", false, "update the manifest CSV after moving")
	f.IntVarP(&moveWorkers, "workers", "w", 0, "scan workers (default: CPU count, capped at 8)")
	f.BoolVar(&moveNoCache, "no-cache", false, "bypass the scan catalog")
}

func runMove(cmd *cobra.Command, args []string) error {
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

	target := source
	switch {
	case moveTarget != "":
		if target, err = filepath.Abs(moveTarget); err != nil {
			return err
		}
	case cfg.LibraryRoot != "":
		target = filepath.Join(cfg.LibraryRoot, "Originals")
	}
	root := resolveRoot(target)

	byMonth := cfg.ByMonth
	if cmd.Flags().Changed("by-month") {
		byMonth = moveByMonth
	}
	workers := cfg.PoolSize()
	if moveWorkers > 0 {
		workers = moveWorkers
	}

	banner("Media Organizer")
	fmt.Printf("Source:  %s\n", source)
	fmt.Printf("Target:  %s\n", target)
	fmt.Println()
	if !moveExecute {
		fmt.Printf("[DRY RUN MODE - use --execute or -x to actually move files]\n\n")
	}

	files, err := scan.Discover(source, scan.WalkOptions{
		ExtraExtensions: cfg.ExtraExtensions,
		SkipFolders:     cfg.SkipFolders,
		SkipOrganized:   target == source,
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No new media files found")
		return nil
	}
	fmt.Printf("Found %d files to organize\n\n", len(files))

	cat := openCatalog(root, moveNoCache)
	defer cat.Close()

	records, err := runScan(cmd.Context(), files, cat, workers, false)
	if err != nil {
		return err
	}

	plan := organize.BuildPlan(records, organize.Options{TargetRoot: target, ByMonth: byMonth})

	for _, it := range plan.Items {
		if it.Action != organize.ActionMove {
			continue
		}
		fmt.Printf("  %s\n", rel(source, it.Source))
		fmt.Printf("    → %s\n", rel(root, it.Dest))
		for _, sc := range it.Sidecars {
			fmt.Printf("    + %s\n", filepath.Base(sc.Source))
		}
	}

	dups := plan.Count(organize.ActionSkipDuplicate)
	inPlace := plan.Count(organize.ActionSkipInPlace)
	unreadable := plan.Count(organize.ActionSkipFailed)

	if !moveExecute {
		fmt.Printf("\n[DRY RUN] Would organize %d files\n", len(plan.Moves()))
		if dups > 0 {
			fmt.Printf("[DRY RUN] Would skip %d duplicates\n", dups)
		}
		if inPlace > 0 {
			fmt.Printf("[DRY RUN] %d files already in place\n", inPlace)
		}
		if unreadable > 0 {
			fmt.Printf("[DRY RUN] %d files unreadable\n", unreadable)
		}
		if moveManifest {
			fmt.Println("[DRY RUN] Manifest update skipped")
		}
		return nil
	}

	res, moved := organize.Apply(plan, logging.WithComponent("move"))
	fmt.Printf("\nOrganized %d files\n", res.Moved)
	if dups > 0 {
		fmt.Printf("Skipped %d duplicates\n", dups)
	}
	if inPlace > 0 {
		fmt.Printf("%d files already in place\n", inPlace)
	}
	if unreadable > 0 {
		fmt.Printf("%d files unreadable\n", unreadable)
	}
	if res.Failed > 0 {
		fmt.Printf("Failed to move %d files\n", res.Failed)
	}

	// moved files leave stale rows behind under their old paths
	for _, it := range moved {
		_ = cat.Forget(it.Source)
	}

	if removed := organize.CleanupEmptyDirs(source, logging.WithComponent("move")); removed > 0 {
		fmt.Printf("Cleaned up %d empty folders\n", removed)
	}

	if moveManifest && len(moved) > 0 {
		added, err := manifest.Update(root, manifestEntries(root, source, moved))
		if err != nil {
			return errors.Wrap(err, "updating manifest")
		}
		fmt.Printf("Added %d entries to manifest\n", added)
	}

	fmt.Println("\nDone!")
	return nil
}

// runScan drives the scan pool with a progress meter attached when stderr
// is a terminal.
func runScan(ctx context.Context, files []scan.File, cat catalog.Store, workers int, phash bool) ([]scan.Record, error) {
	meter := scan.NewMeter(progressWriter(), len(files))
	records, err := scan.Run(ctx, files, scan.Options{
		Workers:      workers,
		Catalog:      cat,
		UseExiftool:  cfg.UseExiftool,
		ComputePHash: phash,
		Logger:       logging.WithComponent("scan"),
		Progress:     meter,
	})
	meter.Finish()
	return records, err
}

// manifestEntries converts applied moves into manifest rows. The source
// folder column keeps the first path component under the scanned source,
// which is typically the card or phone dump the file arrived in.
func manifestEntries(root, source string, moved []organize.Item) []manifest.Entry {
	now := time.Now()
	entries := make([]manifest.Entry, 0, len(moved))
	for _, it := range moved {
		relPath, err := filepath.Rel(root, it.Dest)
		if err != nil {
			relPath = it.Dest
		}

		folder := filepath.Base(source)
		if srcRel, err := filepath.Rel(source, it.Source); err == nil {
			if parts := strings.Split(srcRel, string(filepath.Separator)); len(parts) > 1 {
				folder = parts[0]
			}
		}

		entries = append(entries, manifest.Entry{
			Filename:     filepath.Base(it.Dest),
			RelativePath: relPath,
			SourceFolder: folder,
			Size:         it.Record.Size,
			Modified:     it.Record.ModTime,
			CaptureDate:  it.Record.Meta.CaptureDate,
			CameraMake:   it.Record.Meta.CameraMake,
			CameraModel:  it.Record.Meta.CameraModel,
			Hash:         it.Record.QuickHash,
			OrganizedAt:  now,
		})
	}
	return entries
}
