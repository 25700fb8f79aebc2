package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/drift/pkg/drift/config"
	"github.com/jamesainslie/drift/pkg/drift/manifest"
	"github.com/jamesainslie/drift/pkg/drift/types"
)

var historyCmd = &cobra.Command{
	Use:   "history [path]",
	Short: "List recorded manifests",
	Long: `List the manifests recorded for a directory, newest first.

Each audit and snapshot leaves one manifest behind; this shows the
capture time and size of each so a specific one can be picked for
'drift -m <file>'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of manifests to show")
	rootCmd.AddCommand(historyCmd)
}

// runHistory lists manifests for a root, newest first.
func runHistory(_ *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	manifestDir := cfg.Manifest.Dir
	if manifestDir == "" {
		manifestDir = root
	}

	paths, err := manifest.List(manifestDir)
	if err != nil {
		return fmt.Errorf("failed to list manifests: %w", err)
	}

	if len(paths) == 0 {
		printInfo("No manifests found in %s.", manifestDir)
		printInfo("Run 'drift %s' to record one.", root)
		return nil
	}

	total := len(paths)
	if historyLimit > 0 && len(paths) > historyLimit {
		paths = paths[:historyLimit]
	}

	fmt.Printf("\n%-28s  %-10s  %s\n", "CAPTURED", "SIZE", "FILE")
	fmt.Println(strings.Repeat("-", 80))

	for _, p := range paths {
		name := filepath.Base(p)

		captured := "?"
		if t, err := manifest.CapturedAtFromName(name); err == nil {
			captured = t.Format("2006-01-02 15:04:05.000 MST")
		}

		size := "?"
		if info, err := os.Stat(p); err == nil {
			size = types.FormatSize(info.Size())
		}

		fmt.Printf("%-28s  %-10s  %s\n", captured, size, name)
	}

	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("\nShowing %d of %d manifests. Use --limit to see more.\n", len(paths), total)
	return nil
}
