// Package runlock serializes audit runs per root directory.
//
// Two concurrent runs over the same root could race on manifest creation,
// so each run takes a lock file inside the root for its duration. Locks
// are advisory and carry holder metadata; a lock whose holder started too
// long ago is considered stale and taken over, so a crashed run never
// wedges a root permanently.
package runlock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// LockFileName is the lock file created inside the audited root.
	// The scanner excludes it from inventories by name.
	LockFileName = ".drift.lock"

	// DefaultStaleTimeout is how old a lock may be before it is presumed
	// abandoned.
	DefaultStaleTimeout = 30 * time.Minute
)

// Info identifies the holder of a lock.
type Info struct {
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	RunID     string    `json:"run_id"`
	StartTime time.Time `json:"start_time"`
}

// HeldError indicates the lock is held by another live run.
type HeldError struct {
	// Holder describes the run holding the lock.
	Holder *Info
}

// Error implements the error interface.
func (e *HeldError) Error() string {
	return fmt.Sprintf("root is locked by pid %d on %s since %s",
		e.Holder.PID, e.Holder.Hostname, e.Holder.StartTime.Format(time.RFC3339))
}

// Lock is a held run lock. Release it when the run completes.
type Lock struct {
	path string
	info Info
}

// Acquire takes the run lock for root on behalf of runID. It fails with
// a HeldError when another live run holds the lock; stale locks are
// removed and retaken.
func Acquire(root, runID string) (*Lock, error) {
	return acquire(root, runID, DefaultStaleTimeout)
}

func acquire(root, runID string, staleTimeout time.Duration) (*Lock, error) {
	path := filepath.Join(root, LockFileName)

	existing, err := readInfo(path)
	if err == nil {
		if time.Since(existing.StartTime) < staleTimeout {
			return nil, &HeldError{Holder: existing}
		}
		// Stale: the holder is long gone. Take over.
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}

	hostname, _ := os.Hostname()
	info := Info{
		PID:       os.Getpid(),
		Hostname:  hostname,
		RunID:     runID,
		StartTime: time.Now().UTC(),
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			// Lost the race to another run between check and create.
			holder, readErr := readInfo(path)
			if readErr != nil {
				return nil, fmt.Errorf("lock %s contended: %w", path, err)
			}
			return nil, &HeldError{Holder: holder}
		}
		return nil, fmt.Errorf("create lock %s: %w", path, err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&info); err != nil {
		file.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("write lock info: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("close lock file: %w", err)
	}

	return &Lock{path: path, info: info}, nil
}

// Release removes the lock file. Releasing a lock that was stolen by a
// stale-takeover is a no-op: the thief owns the file now.
func (l *Lock) Release() error {
	existing, err := readInfo(l.path)
	if err != nil {
		return nil
	}
	if existing.PID != l.info.PID || existing.RunID != l.info.RunID {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock %s: %w", l.path, err)
	}
	return nil
}

// readInfo loads holder info from a lock file.
func readInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse lock %s: %w", path, err)
	}
	return &info, nil
}
