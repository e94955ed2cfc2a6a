package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/AirswitchAsa/media-tool/internal/manifest"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest [DIR]",
	Short: "Summarize the library manifest",
	Long: `Manifest reads the tracking CSV of the library at DIR (default: the
configured library root, else the current directory) and prints totals,
a per-year breakdown, and the cameras seen.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runManifest,
}

func init() {
	rootCmd.AddCommand(manifestCmd)
}

func runManifest(_ *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	root := abs
	if len(args) == 0 {
		root = resolveRoot(abs)
	}

	entries, err := manifest.Read(root)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Printf("No manifest found at %s\n", manifest.Path(root))
		fmt.Println("Run a move with -m to start one")
		return nil
	}

	var total int64
	years := map[string]int{}
	cameras := map[string]int{}
	for _, e := range entries {
		total += e.Size
		if !e.CaptureDate.IsZero() {
			years[e.CaptureDate.Format("2006")]++
		}
		if e.CameraModel != "" {
			cameras[e.CameraModel]++
		}
	}

	banner("Library Manifest")
	fmt.Printf("Manifest: %s\n", manifest.Path(root))
	fmt.Printf("Files:    %d\n", len(entries))
	fmt.Printf("Size:     %s\n", humanize.Bytes(uint64(total)))

	if len(years) > 0 {
		fmt.Println("\nBy year:")
		for _, y := range sortedKeys(years) {
			fmt.Printf("  %s  %d files\n", y, years[y])
		}
	}

	if len(cameras) > 0 {
		fmt.Println("\nCameras:")
		names := sortedKeys(cameras)
		sort.SliceStable(names, func(i, j int) bool { return cameras[names[i]] > cameras[names[j]] })
		for i, name := range names {
			if i == 5 {
				fmt.Printf("  ... and %d more\n", len(names)-5)
				break
			}
			fmt.Printf("  %-24s %d files\n", name, cameras[name])
		}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
