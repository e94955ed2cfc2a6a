package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AirswitchAsa/media-tool/internal/catalog"
	"github.com/AirswitchAsa/media-tool/internal/config"
	"github.com/AirswitchAsa/media-tool/internal/logging"
)

// version is overridden at release time via -ldflags.
var version = "dev"

var (
	cfg        *config.Config
	flagConfig string
	flagRoot   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:     "mtool",
	Short:   "Organize and deduplicate media libraries",
	Version: version,
	Long: `mtool imports photos and videos into chronological folders, tracks
them in a manifest CSV, and finds duplicate or visually similar shots.

Capture dates are resolved from embedded metadata first (EXIF natively,
exiftool for RAW, video and HEIC), then JSON sidecars, then filename
patterns, and finally the file's modification time.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logging.Init(verbose)

		c, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagRoot != "" {
			abs, err := filepath.Abs(flagRoot)
			if err != nil {
				return err
			}
			c.LibraryRoot = abs
		}
		cfg = c
		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ./mtool.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "library root (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// resolveRoot picks the library root used for the catalog and manifest.
func resolveRoot(fallback string) string {
	if cfg.LibraryRoot != "" {
		return cfg.LibraryRoot
	}
	return fallback
}

// openCatalog returns the scan cache for a root, or the null store when
// caching is off. A broken catalog degrades to uncached scanning instead
// of failing the command.
func openCatalog(root string, disabled bool) catalog.Store {
	if disabled || !cfg.Cache {
		return catalog.Null{}
	}
	c, err := catalog.Open(catalog.DefaultPath(root))
	if err != nil {
		log.Warn().Err(err).Msg("scan catalog unavailable, continuing without cache")
		return catalog.Null{}
	}
	return c
}

// progressWriter returns stderr when it is a terminal, nil otherwise so
// logs and pipes never fill with carriage returns.
func progressWriter() io.Writer {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return os.Stderr
	}
	return nil
}

func banner(title string) {
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", 50))
}

// rel shortens path for display when it sits under base.
func rel(base, path string) string {
	if r, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(r, "..") {
		return r
	}
	return path
}
