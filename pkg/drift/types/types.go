// Package types provides core data types for the drift folder auditor.
// It defines the file records and inventories that the scanner produces
// and the audit engine consumes, along with shared sentinel errors.
package types

import (
	"errors"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
)

// Sentinel errors shared across the drift packages.
var (
	// ErrRootNotFound indicates the audited root directory does not exist.
	ErrRootNotFound = errors.New("root directory not found")

	// ErrRootNotDirectory indicates the audited root path is not a directory.
	ErrRootNotDirectory = errors.New("root path is not a directory")

	// ErrNotRegularFile indicates a digest was requested for something
	// other than a regular file.
	ErrNotRegularFile = errors.New("not a regular file")

	// ErrDuplicatePath indicates two records with the same relative path
	// were supplied for one inventory.
	ErrDuplicatePath = errors.New("duplicate relative path in inventory")
)

// FileRecord describes one audited file within an inventory.
type FileRecord struct {
	// RelativePath is the file's path relative to the inventory root,
	// always forward-slash separated. It is the unique key within an
	// inventory.
	RelativePath string `json:"relative_path"`

	// Digest is the lowercase hex MD5 of the file content.
	Digest string `json:"digest"`

	// Size is the file size in bytes. Advisory metadata; equality is
	// decided by digest alone.
	Size int64 `json:"size"`

	// ModTime is the last modification time. Advisory metadata.
	ModTime time.Time `json:"mod_time"`
}

// HumanSize returns the record's size formatted with binary (IEC) units.
func (r *FileRecord) HumanSize() string {
	return humanize.IBytes(uint64(r.Size))
}

// FileError pairs a path with an error encountered while discovering or
// reading it. Per-file failures are collected, never thrown: one bad file
// must not abort the walk or hide its siblings.
type FileError struct {
	// Path is the path, relative to the root where possible, at which the
	// error occurred.
	Path string `json:"path"`

	// Err is the error message describing what went wrong.
	Err string `json:"error"`
}

// Inventory is a complete snapshot of one folder at one point in time.
// Records are sorted by relative path and immutable once built; two
// inventories built over an unchanged tree are value-equal apart from
// RunID and CapturedAt.
type Inventory struct {
	// Root is the absolute path of the audited directory.
	Root string `json:"root"`

	// RunID uniquely identifies the audit run that captured this snapshot.
	RunID string `json:"run_id"`

	// CapturedAt is when the snapshot was taken, in UTC.
	CapturedAt time.Time `json:"captured_at"`

	// Records holds one entry per successfully fingerprinted file,
	// sorted by RelativePath.
	Records []FileRecord `json:"records"`

	// Errors lists files that were discovered but could not be read or
	// hashed. These paths are known to exist yet have no digest: "present
	// but unreadable" is distinct from "not present".
	Errors []FileError `json:"errors,omitempty"`

	index map[string]int
}

// NewInventory builds an inventory from unordered records, sorting them by
// relative path and indexing them for lookup. Returns ErrDuplicatePath if
// two records share a relative path.
func NewInventory(root, runID string, capturedAt time.Time, records []FileRecord, fileErrors []FileError) (*Inventory, error) {
	sorted := make([]FileRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].RelativePath < sorted[j].RelativePath
	})

	index := make(map[string]int, len(sorted))
	for i, rec := range sorted {
		if _, dup := index[rec.RelativePath]; dup {
			return nil, ErrDuplicatePath
		}
		index[rec.RelativePath] = i
	}

	return &Inventory{
		Root:       root,
		RunID:      runID,
		CapturedAt: capturedAt.UTC(),
		Records:    sorted,
		Errors:     fileErrors,
		index:      index,
	}, nil
}

// Lookup returns the record for the given relative path, if present.
func (inv *Inventory) Lookup(relPath string) (FileRecord, bool) {
	if inv.index == nil {
		inv.buildIndex()
	}
	i, ok := inv.index[relPath]
	if !ok {
		return FileRecord{}, false
	}
	return inv.Records[i], true
}

// Paths returns the relative paths of all records, in sorted order.
func (inv *Inventory) Paths() []string {
	paths := make([]string, len(inv.Records))
	for i, rec := range inv.Records {
		paths[i] = rec.RelativePath
	}
	return paths
}

// Len returns the number of fingerprinted files in the inventory.
func (inv *Inventory) Len() int {
	return len(inv.Records)
}

// TotalSize returns the sum of all record sizes in bytes.
func (inv *Inventory) TotalSize() int64 {
	var total int64
	for _, rec := range inv.Records {
		total += rec.Size
	}
	return total
}

// buildIndex rebuilds the lookup index. Needed after decoding, where
// records arrive without one.
func (inv *Inventory) buildIndex() {
	inv.index = make(map[string]int, len(inv.Records))
	for i, rec := range inv.Records {
		inv.index[rec.RelativePath] = i
	}
}

// Equal reports whether two inventories describe identical content: same
// root and the same records in the same order. RunID, CapturedAt, and
// per-file errors are snapshot identity, not content, and are ignored.
func (inv *Inventory) Equal(other *Inventory) bool {
	if inv == nil || other == nil {
		return inv == other
	}
	if inv.Root != other.Root || len(inv.Records) != len(other.Records) {
		return false
	}
	for i, rec := range inv.Records {
		o := other.Records[i]
		if rec.RelativePath != o.RelativePath || rec.Digest != o.Digest ||
			rec.Size != o.Size || !rec.ModTime.Equal(o.ModTime) {
			return false
		}
	}
	return true
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units, for consistency with common filesystem tools.
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}
