package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/drift/pkg/drift/config"
	"github.com/jamesainslie/drift/pkg/drift/logging"
	"github.com/jamesainslie/drift/pkg/drift/manifest"
	"github.com/jamesainslie/drift/pkg/drift/runlock"
	"github.com/jamesainslie/drift/pkg/drift/types"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [path]",
	Short: "Record a manifest without auditing",
	Long: `Inventory a directory and persist the result as a manifest, without
comparing against any prior manifest.

Use this to establish a fresh baseline, for example after reviewing and
accepting a batch of changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

// runSnapshot scans and persists an inventory.
func runSnapshot(_ *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := initLogging(cfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logging.Close() }()

	lock, err := runlock.Acquire(root, uuid.NewString())
	if err != nil {
		var held *runlock.HeldError
		if errors.As(err, &held) {
			return fmt.Errorf("another audit of %s is in progress (pid %d on %s)",
				root, held.Holder.PID, held.Holder.Hostname)
		}
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	defer func() { _ = lock.Release() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		printInfo("\nInterrupted, stopping snapshot...")
		cancel()
	}()

	digestCache := openCache()
	if digestCache != nil {
		defer func() { _ = digestCache.Close() }()
	}

	startTime := time.Now()

	inv, err := performScan(ctx, root, digestCache)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			printInfo("Snapshot cancelled")
			return nil
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	manifestDir := cfg.Manifest.Dir
	if manifestDir == "" {
		manifestDir = inv.Root
	}

	path, err := manifest.Write(manifestDir, inv)
	if err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	printInfo("Recorded %d files (%s) in %s", inv.Len(),
		types.FormatSize(inv.TotalSize()), formatElapsed(time.Since(startTime)))
	for _, fe := range inv.Errors {
		printWarning("unreadable: %s: %s", fe.Path, fe.Err)
	}
	fmt.Println(path)
	return nil
}

// formatElapsed renders a duration for status lines.
func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
