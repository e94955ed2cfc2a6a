package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AirswitchAsa/media-tool/internal/manifest"
)

var initCmd = &cobra.Command{
	Use:   "init [DIR]",
	Short: "Create the library folder structure",
	Long: `Init scaffolds a media library in DIR (default: current directory):
an Incoming folder for new files, Originals for the organized archive,
Exports for edited output, and the manifest folder. A default mtool.yaml
pointing at the library is written next to them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}

	fmt.Printf("Initializing media library at: %s\n\n", root)

	dirs := []struct {
		path string
		desc string
	}{
		{filepath.Join(root, "Incoming"), "Drop new media here"},
		{filepath.Join(root, "Originals"), "Organized by date"},
		{filepath.Join(root, "Exports"), "Edited and exported files"},
		{filepath.Join(root, manifest.Dir), "Tracking CSV"},
	}

	created, skipped := 0, 0
	for _, d := range dirs {
		if _, err := os.Stat(d.path); err == nil {
			fmt.Printf("⊘ %s/ (already exists)\n", filepath.Base(d.path))
			skipped++
			continue
		}
		if err := os.MkdirAll(d.path, 0o755); err != nil {
			return err
		}
		fmt.Printf("✓ %s/ - %s\n", filepath.Base(d.path), d.desc)
		created++
	}

	cfgPath := filepath.Join(root, "mtool.yaml")
	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("⊘ mtool.yaml (already exists)\n")
	} else {
		c := *cfg
		c.LibraryRoot = root
		if err := c.Save(cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ mtool.yaml - Default configuration\n")
	}

	fmt.Println()
	if created > 0 {
		fmt.Printf("Created %d directories\n", created)
	}
	if skipped > 0 {
		fmt.Printf("Skipped %d existing directories\n", skipped)
	}

	fmt.Println("\nMedia library is ready!")
	fmt.Println("Next steps:")
	fmt.Println("  1. Copy media to Incoming/")
	fmt.Printf("  2. Run: mtool --config %s move %s\n", cfgPath, filepath.Join(root, "Incoming"))
	fmt.Println("  3. Add -x to the same command to apply the moves")
	return nil
}
