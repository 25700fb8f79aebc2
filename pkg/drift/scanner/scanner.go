// Package scanner builds inventories by walking a root directory and
// fingerprinting every regular file beneath it.
//
// Traversal and hashing run concurrently on fastwalk's bounded worker
// pool; each file's digest is independent of every other, so concurrency
// shortens wall-clock time without affecting the result. Discovery order
// is whatever the walk produces, but the finished inventory is sorted by
// relative path, so repeated scans of an unchanged tree are value-equal.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/google/uuid"

	"github.com/jamesainslie/drift/pkg/drift/digest"
	"github.com/jamesainslie/drift/pkg/drift/logging"
	"github.com/jamesainslie/drift/pkg/drift/manifest"
	"github.com/jamesainslie/drift/pkg/drift/runlock"
	"github.com/jamesainslie/drift/pkg/drift/types"
)

var logger = logging.Get("scanner")

// Scanner performs one inventory scan. Create a fresh Scanner per scan;
// its counters and collections are not reusable.
type Scanner struct {
	opts Options
	fp   *digest.Fingerprinter

	root string

	records   []types.FileRecord
	recordsMu sync.Mutex

	fileErrors []types.FileError
	errorsMu   sync.Mutex

	filesScanned atomic.Int64
	dirsScanned  atomic.Int64
	bytesScanned atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
}

// New creates a Scanner with the given options.
func New(opts Options) *Scanner {
	opts.Validate()
	return &Scanner{
		opts: opts,
		fp:   digest.New(opts.BufferSize),
	}
}

// Scan walks the root, fingerprints its files, and returns the completed
// inventory. It blocks until the walk finishes or ctx is cancelled; a
// cancelled scan returns an error and no inventory, never a partial one
// presented as complete.
func (s *Scanner) Scan(ctx context.Context) (*types.Inventory, error) {
	root, err := s.validateRoot()
	if err != nil {
		return nil, err
	}
	s.root = root

	runID := uuid.NewString()
	capturedAt := time.Now().UTC()
	logger.Info("scan started", "root", root, "run_id", runID)

	conf := fastwalk.Config{
		Follow:     false,
		NumWorkers: s.opts.Workers,
	}

	walkErr := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		return s.visit(ctx, path, d, err)
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			logger.Info("scan cancelled", "root", root)
			return nil, walkErr
		}
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}

	s.sortErrors()
	inv, err := types.NewInventory(root, runID, capturedAt, s.records, s.fileErrors)
	if err != nil {
		return nil, fmt.Errorf("assemble inventory: %w", err)
	}

	logger.Info("scan finished",
		"root", root,
		"files", inv.Len(),
		"errors", len(inv.Errors),
		"cache_hits", s.cacheHits.Load(),
		"cache_misses", s.cacheMisses.Load())
	return inv, nil
}

// validateRoot resolves the root to an absolute path and confirms it is a
// readable directory. Failures here are the only fatal discovery errors.
func (s *Scanner) validateRoot() (string, error) {
	abs, err := filepath.Abs(s.opts.Root)
	if err != nil {
		return "", fmt.Errorf("resolve root %s: %w", s.opts.Root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", abs, types.ErrRootNotFound)
		}
		return "", fmt.Errorf("stat root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", abs, types.ErrRootNotDirectory)
	}
	return abs, nil
}

// visit handles one walk callback. Per-entry failures are collected and
// the walk continues; only context cancellation propagates out.
func (s *Scanner) visit(ctx context.Context, path string, d fs.DirEntry, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		s.addError(path, err)
		return nil
	}

	relPath, relErr := s.relativize(path)
	if relErr != nil {
		s.addError(path, relErr)
		return nil
	}

	if d.IsDir() {
		if relPath != "." && s.opts.excluded(relPath) {
			return filepath.SkipDir
		}
		s.dirsScanned.Add(1)
		return nil
	}

	if relPath == "." || s.skip(relPath) {
		return nil
	}

	size, mtime, ok := s.statEntry(path, relPath, d)
	if !ok {
		return nil
	}

	dig, ok := s.fingerprint(ctx, path, relPath, size, mtime)
	if !ok {
		// Cancellation aborts the walk; read failures were recorded.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return nil
	}

	s.addRecord(types.FileRecord{
		RelativePath: relPath,
		Digest:       dig,
		Size:         size,
		ModTime:      mtime,
	})

	count := s.filesScanned.Add(1)
	s.bytesScanned.Add(size)
	if s.opts.OnProgress != nil && count%64 == 0 {
		s.opts.OnProgress(Progress{
			FilesScanned: count,
			DirsScanned:  s.dirsScanned.Load(),
			BytesScanned: s.bytesScanned.Load(),
			CurrentPath:  relPath,
		})
	}
	return nil
}

// skip reports whether a discovered file must stay out of the inventory:
// the tool's own artifacts and user exclusions.
func (s *Scanner) skip(relPath string) bool {
	base := filepath.Base(relPath)
	if manifest.IsManifestName(base) || base == runlock.LockFileName {
		return true
	}
	return s.opts.excluded(relPath)
}

// statEntry resolves metadata for a walk entry, applying symlink policy.
// Returns ok=false when the entry is skipped or failed.
func (s *Scanner) statEntry(path, relPath string, d fs.DirEntry) (int64, time.Time, bool) {
	if d.Type()&fs.ModeSymlink != 0 {
		if !s.opts.FollowSymlinks {
			return 0, time.Time{}, false
		}
		// Resolve the link; only regular file targets are inventoried,
		// and the target content is what gets hashed.
		info, err := os.Stat(path)
		if err != nil {
			s.addError(relPath, err)
			return 0, time.Time{}, false
		}
		if !info.Mode().IsRegular() {
			return 0, time.Time{}, false
		}
		return info.Size(), info.ModTime(), true
	}

	if !d.Type().IsRegular() {
		// Sockets, devices, FIFOs.
		return 0, time.Time{}, false
	}

	info, err := d.Info()
	if err != nil {
		s.addError(relPath, err)
		return 0, time.Time{}, false
	}
	return info.Size(), info.ModTime(), true
}

// fingerprint returns the file's digest, consulting the cache first.
// Returns ok=false after recording a read error or on cancellation.
func (s *Scanner) fingerprint(ctx context.Context, path, relPath string, size int64, mtime time.Time) (string, bool) {
	if s.opts.Cache != nil {
		if dig, hit := s.opts.Cache.Lookup(s.root, relPath, size, mtime.UnixNano()); hit {
			s.cacheHits.Add(1)
			return dig, true
		}
		s.cacheMisses.Add(1)
	}

	dig, err := s.fp.File(ctx, path)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", false
		}
		s.addError(relPath, err)
		return "", false
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.Store(s.root, relPath, size, mtime.UnixNano(), dig); err != nil {
			logger.Debug("cache store failed", "path", relPath, "error", err)
		}
	}
	return dig, true
}

// relativize strips the root prefix and normalizes to forward slashes.
func (s *Scanner) relativize(path string) (string, error) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", fmt.Errorf("relativize %s: %w", path, err)
	}
	return filepath.ToSlash(rel), nil
}

// addRecord appends a record thread-safely.
func (s *Scanner) addRecord(rec types.FileRecord) {
	s.recordsMu.Lock()
	s.records = append(s.records, rec)
	s.recordsMu.Unlock()
}

// addError records a per-file failure thread-safely. The path is
// relativized when possible so error reports line up with records.
func (s *Scanner) addError(path string, err error) {
	rel := path
	if s.root != "" {
		if r, relErr := filepath.Rel(s.root, path); relErr == nil {
			rel = filepath.ToSlash(r)
		}
	}
	logger.Warn("file skipped", "path", rel, "error", err)

	s.errorsMu.Lock()
	s.fileErrors = append(s.fileErrors, types.FileError{Path: rel, Err: err.Error()})
	s.errorsMu.Unlock()
}

// sortErrors orders collected errors by path so inventories built over
// the same tree report errors deterministically.
func (s *Scanner) sortErrors() {
	s.errorsMu.Lock()
	defer s.errorsMu.Unlock()
	sort.Slice(s.fileErrors, func(i, j int) bool {
		return s.fileErrors[i].Path < s.fileErrors[j].Path
	})
}
