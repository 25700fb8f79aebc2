package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/drift/pkg/drift/audit"
	"github.com/jamesainslie/drift/pkg/drift/cache"
	"github.com/jamesainslie/drift/pkg/drift/config"
	"github.com/jamesainslie/drift/pkg/drift/logging"
	"github.com/jamesainslie/drift/pkg/drift/manifest"
	"github.com/jamesainslie/drift/pkg/drift/output"
	"github.com/jamesainslie/drift/pkg/drift/runlock"
	"github.com/jamesainslie/drift/pkg/drift/scanner"
	"github.com/jamesainslie/drift/pkg/drift/types"
)

// errDriftDetected is returned by runAudit under --fail-on-drift so main
// can map it to a distinct exit status.
var errDriftDetected = errors.New("drift detected")

// runAudit is the main audit command handler.
func runAudit(_ *cobra.Command, args []string) error {
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

	// One audit per root at a time. The lock lives inside the root so
	// concurrent runs from any machine sharing the filesystem see it.
	lock, err := runlock.Acquire(root, uuid.NewString())
	if err != nil {
		var held *runlock.HeldError
		if errors.As(err, &held) {
			return fmt.Errorf("another audit of %s is in progress (pid %d on %s, started %s)",
				root, held.Holder.PID, held.Holder.Hostname,
				held.Holder.StartTime.Format(time.RFC3339))
		}
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	defer func() { _ = lock.Release() }()

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		printInfo("\nInterrupted, stopping audit...")
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
			printInfo("Audit cancelled")
			return nil
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	manifestDir := cfg.Manifest.Dir
	if manifestDir == "" {
		manifestDir = inv.Root
	}

	previous, previousPath, err := loadPrevious(manifestDir)
	if err != nil {
		return err
	}

	result := audit.Compare(previous, inv)

	// A failed write does not invalidate the comparison, so the result is
	// still rendered before the error is reported.
	newPath := ""
	var persistErr error
	if !viper.GetBool("no_persist") {
		newPath, persistErr = manifest.Write(manifestDir, inv)
		if persistErr != nil {
			persistErr = fmt.Errorf("failed to write manifest: %w", persistErr)
		} else {
			printVerbose("Wrote manifest %s", newPath)
		}
	}

	out := output.FromAudit(result)
	out.PreviousManifest = previousPath
	out.NewManifest = newPath
	out.FilesScanned = int64(inv.Len())
	out.Duration = time.Since(startTime)
	out.ChangesOnly = viper.GetBool("changes_only")

	if err := render(out); err != nil {
		return err
	}
	if persistErr != nil {
		return persistErr
	}

	if viper.GetBool("fail_on_drift") && result.Drifted() {
		return errDriftDetected
	}
	return nil
}

// resolveRoot determines the directory to audit from the positional
// argument, expanding ~ and resolving to an absolute path.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	expanded, err := config.ExpandPath(root)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", types.ErrRootNotFound, abs)
		}
		return "", fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", types.ErrRootNotDirectory, abs)
	}

	return abs, nil
}

// initLogging configures logging from config and the quiet/verbose flags.
func initLogging(cfg *config.Config) error {
	logCfg := logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		Components: cfg.Logging.Components,
	}

	switch {
	case getQuiet():
		logCfg.ConsoleLevel = ""
	case getVerbose():
		logCfg.Level = "debug"
		logCfg.ConsoleLevel = "debug"
	case cfg.Logging.ConsoleLevel != "":
		logCfg.ConsoleLevel = cfg.Logging.ConsoleLevel
	default:
		logCfg.ConsoleLevel = "warn"
	}

	return logging.Init(logCfg)
}

// openCache opens the digest cache unless disabled. A cache that fails to
// open is reported and skipped; audits never depend on it.
func openCache() *cache.Cache {
	if viper.GetBool("no_cache") || !viper.GetBool("cache.enabled") {
		printVerbose("Digest cache disabled")
		return nil
	}

	c, err := cache.Open(resolveCachePath())
	if err != nil {
		printWarning("digest cache unavailable, hashing everything: %v", err)
		return nil
	}
	return c
}

// performScan builds the current inventory for root.
func performScan(ctx context.Context, root string, digestCache *cache.Cache) (*types.Inventory, error) {
	opts := scanner.Options{
		Root:           root,
		FollowSymlinks: viper.GetBool("follow_symlinks"),
		Exclude:        viper.GetStringSlice("exclude"),
		Workers:        viper.GetInt("workers"),
	}
	if digestCache != nil {
		opts.Cache = digestCache
	}

	s := scanner.New(opts)
	return s.Scan(ctx)
}

// loadPrevious locates and parses the prior manifest. A missing manifest
// marks a baseline run. A manifest that exists but cannot be parsed is
// reported and skipped, unless --strict-manifest makes it fatal; an
// explicitly named manifest is always required to parse.
func loadPrevious(dir string) (*types.Inventory, string, error) {
	var loc manifest.Locator = manifest.NewestByName{}
	explicit := viper.GetString("manifest_path")
	if explicit != "" {
		loc = manifest.Explicit{Path: explicit}
	}

	path, found, err := loc.Locate(dir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to locate prior manifest: %w", err)
	}
	if !found {
		printVerbose("No prior manifest in %s, baseline run", dir)
		return nil, "", nil
	}

	inv, err := manifest.Load(path)
	if err != nil {
		if explicit != "" || viper.GetBool("strict_manifest") {
			return nil, "", fmt.Errorf("failed to load manifest %s: %w", path, err)
		}
		printWarning("ignoring unparseable manifest %s: %v", path, err)
		return nil, "", nil
	}

	printVerbose("Comparing against %s", path)
	return inv, path, nil
}

// render formats and prints an audit result using the selected formatter.
func render(out *output.Result) error {
	format := viper.GetString("output")
	if format == "" {
		format = "pretty"
	}

	formatter, err := output.Get(format)
	if err != nil {
		return fmt.Errorf("unknown output format %q: available formats are %v",
			format, output.Available())
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, out); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(buf.String())
	return nil
}
