// Package output provides formatters for rendering drift audit results
// in various output formats (pretty, plain, json, yaml, csv).
//
// The package uses a registry pattern so formatter implementations can be
// selected by name at runtime:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/drift/pkg/drift/audit"
	"github.com/jamesainslie/drift/pkg/drift/types"
)

// Row is one audited path prepared for rendering.
type Row struct {
	// Path is the file's path relative to the audited root.
	Path string `json:"path" yaml:"path"`

	// Status is the classification name: unchanged, modified, new,
	// or missing.
	Status string `json:"status" yaml:"status"`

	// Digest is the current content digest, empty for missing files.
	Digest string `json:"digest,omitempty" yaml:"digest,omitempty"`

	// PreviousDigest is the digest from the prior manifest, empty for
	// new files.
	PreviousDigest string `json:"previous_digest,omitempty" yaml:"previous_digest,omitempty"`

	// Size is the file size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// SizeHuman is the human-readable file size (e.g., "1.5 MiB").
	SizeHuman string `json:"size_human" yaml:"size_human"`

	// ModTime is the file's last modification time.
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
}

// Counts summarizes an audit by classification.
type Counts struct {
	Unchanged  int `json:"unchanged" yaml:"unchanged"`
	Modified   int `json:"modified" yaml:"modified"`
	New        int `json:"new" yaml:"new"`
	Missing    int `json:"missing" yaml:"missing"`
	Unreadable int `json:"unreadable" yaml:"unreadable"`
}

// Result contains the complete output data for formatting.
type Result struct {
	// Root is the audited directory.
	Root string `json:"root" yaml:"root"`

	// Baseline is true when no prior manifest existed.
	Baseline bool `json:"baseline" yaml:"baseline"`

	// PreviousManifest is the manifest the audit compared against,
	// empty on baseline runs.
	PreviousManifest string `json:"previous_manifest,omitempty" yaml:"previous_manifest,omitempty"`

	// NewManifest is the manifest written by this run, empty when
	// persistence was skipped.
	NewManifest string `json:"new_manifest,omitempty" yaml:"new_manifest,omitempty"`

	// Rows holds one entry per audited path, sorted by path.
	Rows []Row `json:"rows" yaml:"rows"`

	// Unreadable lists files that could not be hashed this run.
	Unreadable []types.FileError `json:"unreadable,omitempty" yaml:"unreadable,omitempty"`

	// Counts summarizes the audit.
	Counts Counts `json:"counts" yaml:"counts"`

	// Drifted is true when anything other than unchanged files was
	// found.
	Drifted bool `json:"drifted" yaml:"drifted"`

	// FilesScanned and Duration describe the scan that produced the
	// current inventory.
	FilesScanned int64         `json:"files_scanned" yaml:"files_scanned"`
	Duration     time.Duration `json:"duration" yaml:"duration"`

	// ChangesOnly omits unchanged rows from table-style formatters.
	ChangesOnly bool `json:"-" yaml:"-"`
}

// FromAudit builds a renderable Result from an audit outcome.
func FromAudit(a *audit.Result) *Result {
	r := &Result{
		Root:     a.Root,
		Baseline: a.Baseline,
		Counts: Counts{
			Unchanged:  a.Count(audit.Unchanged),
			Modified:   a.Count(audit.Modified),
			New:        a.Count(audit.New),
			Missing:    a.Count(audit.Missing),
			Unreadable: len(a.Unreadable),
		},
		Unreadable: a.Unreadable,
		Drifted:    a.Drifted(),
	}

	r.Rows = make([]Row, 0, len(a.Entries))
	for _, e := range a.Entries {
		r.Rows = append(r.Rows, Row{
			Path:           e.RelativePath,
			Status:         e.Class.String(),
			Digest:         e.CurrentDigest,
			PreviousDigest: e.PreviousDigest,
			Size:           e.Size,
			SizeHuman:      types.FormatSize(e.Size),
			ModTime:        e.ModTime,
		})
	}
	return r
}

// visibleRows returns the rows a table-style formatter should print,
// honoring ChangesOnly.
func (r *Result) visibleRows() []Row {
	if !r.ChangesOnly {
		return r.Rows
	}
	rows := make([]Row, 0, len(r.Rows))
	for _, row := range r.Rows {
		if row.Status != "unchanged" {
			rows = append(rows, row)
		}
	}
	return rows
}

// Formatter is the interface that all output formatters implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds a formatter factory, replacing any existing formatter
// with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
