// Package audit classifies drift between two inventories of one folder.
//
// The engine is a pure function: it performs no I/O and touches nothing
// but the two already-materialized inventories, which keeps it trivially
// testable and safe to run the moment inventory construction completes.
package audit

import (
	"time"

	"github.com/jamesainslie/drift/pkg/drift/types"
)

// Classification is the outcome assigned to one path.
type Classification int

// Every path present in either inventory lands in exactly one class.
const (
	// Unchanged: present in both inventories with equal digests.
	Unchanged Classification = iota
	// Modified: present in both inventories with differing digests.
	Modified
	// New: present only in the current inventory.
	New
	// Missing: present only in the previous inventory.
	Missing
)

// String returns the lowercase name of the classification.
func (c Classification) String() string {
	switch c {
	case Unchanged:
		return "unchanged"
	case Modified:
		return "modified"
	case New:
		return "new"
	case Missing:
		return "missing"
	default:
		return "unknown"
	}
}

// Entry is the audit outcome for one path.
type Entry struct {
	// RelativePath is the path being classified.
	RelativePath string `json:"relative_path"`

	// Class is the assigned classification.
	Class Classification `json:"class"`

	// PreviousDigest is the digest recorded in the prior manifest, empty
	// for New paths.
	PreviousDigest string `json:"previous_digest,omitempty"`

	// CurrentDigest is the digest computed this run, empty for Missing
	// paths.
	CurrentDigest string `json:"current_digest,omitempty"`

	// Size and ModTime come from the current inventory when the path is
	// present, otherwise from the previous one.
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Result is the outcome of comparing two inventories. It borrows nothing
// mutable: once built it is an independent, immutable value.
type Result struct {
	// Root is the audited directory.
	Root string `json:"root"`

	// RunID identifies the audit run that produced the current inventory.
	RunID string `json:"run_id"`

	// Baseline is true when there was no previous inventory, in which
	// case every current path is New.
	Baseline bool `json:"baseline"`

	// Entries holds one classification per path, sorted by path.
	Entries []Entry `json:"entries"`

	// Unreadable lists current-run files that were discovered but could
	// not be hashed. They are known to exist, so they are never Missing,
	// and with no digest they cannot be Unchanged or Modified either.
	Unreadable []types.FileError `json:"unreadable,omitempty"`

	counts [Missing + 1]int
}

// Count returns the number of entries with the given classification.
func (r *Result) Count(c Classification) int {
	if c < 0 || int(c) >= len(r.counts) {
		return 0
	}
	return r.counts[c]
}

// Drifted reports whether the audit found anything other than unchanged
// files. Unreadable files count as drift: their state is unknown.
func (r *Result) Drifted() bool {
	return r.Count(Modified) > 0 || r.Count(New) > 0 || r.Count(Missing) > 0 ||
		len(r.Unreadable) > 0
}

// Compare classifies every path present in either inventory. A nil
// previous marks a baseline run. Complexity is linear in the union of
// paths: both inventories are sorted, so a single merge pass suffices.
func Compare(previous, current *types.Inventory) *Result {
	result := &Result{
		Root:     current.Root,
		RunID:    current.RunID,
		Baseline: previous == nil,
	}

	unreadable := make(map[string]bool, len(current.Errors))
	for _, fe := range current.Errors {
		unreadable[fe.Path] = true
	}
	result.Unreadable = append(result.Unreadable, current.Errors...)

	var prevRecords []types.FileRecord
	if previous != nil {
		prevRecords = previous.Records
	}
	curRecords := current.Records

	i, j := 0, 0
	for i < len(prevRecords) || j < len(curRecords) {
		switch {
		case j >= len(curRecords) || (i < len(prevRecords) && prevRecords[i].RelativePath < curRecords[j].RelativePath):
			// Only in previous.
			prev := prevRecords[i]
			i++
			if unreadable[prev.RelativePath] {
				// Still on disk, just unreadable this run.
				continue
			}
			result.add(Entry{
				RelativePath:   prev.RelativePath,
				Class:          Missing,
				PreviousDigest: prev.Digest,
				Size:           prev.Size,
				ModTime:        prev.ModTime,
			})

		case i >= len(prevRecords) || prevRecords[i].RelativePath > curRecords[j].RelativePath:
			// Only in current.
			cur := curRecords[j]
			j++
			result.add(Entry{
				RelativePath:  cur.RelativePath,
				Class:         New,
				CurrentDigest: cur.Digest,
				Size:          cur.Size,
				ModTime:       cur.ModTime,
			})

		default:
			// Present in both.
			prev, cur := prevRecords[i], curRecords[j]
			i++
			j++
			class := Unchanged
			if prev.Digest != cur.Digest {
				class = Modified
			}
			result.add(Entry{
				RelativePath:   cur.RelativePath,
				Class:          class,
				PreviousDigest: prev.Digest,
				CurrentDigest:  cur.Digest,
				Size:           cur.Size,
				ModTime:        cur.ModTime,
			})
		}
	}

	return result
}

// add appends an entry and bumps its class counter.
func (r *Result) add(e Entry) {
	r.Entries = append(r.Entries, e)
	r.counts[e.Class]++
}
