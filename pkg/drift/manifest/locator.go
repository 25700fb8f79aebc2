package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

const (
	// namePrefix and nameSuffix bracket the capture timestamp in every
	// manifest filename.
	namePrefix = "drift-manifest-"
	nameSuffix = ".csv"

	// stampLayout renders a UTC timestamp at fixed width down to the
	// nanosecond, so lexicographic filename order is chronological order
	// and two runs can never collide on a name in practice.
	stampLayout = "20060102T150405.000000000Z"
)

// namePattern matches manifest filenames produced by Filename.
var namePattern = regexp.MustCompile(`^drift-manifest-\d{8}T\d{6}\.\d{9}Z\.csv$`)

// Filename returns the manifest filename for a snapshot captured at t.
func Filename(capturedAt time.Time) string {
	return namePrefix + capturedAt.UTC().Format(stampLayout) + nameSuffix
}

// IsManifestName reports whether name is a manifest filename. The scanner
// uses this to keep manifests stored inside the audited root out of the
// inventories that describe that root.
func IsManifestName(name string) bool {
	return namePattern.MatchString(name)
}

// CapturedAtFromName recovers the capture time embedded in a manifest
// filename.
func CapturedAtFromName(name string) (time.Time, error) {
	if !IsManifestName(name) {
		return time.Time{}, fmt.Errorf("not a manifest filename: %s", name)
	}
	stamp := name[len(namePrefix) : len(name)-len(nameSuffix)]
	return time.Parse(stampLayout, stamp)
}

// Locator finds the prior manifest to audit against. The caller selects
// the strategy: automatic newest-by-name, or an explicit path supplied by
// the user.
type Locator interface {
	// Locate returns the manifest path for the given manifest directory.
	// found is false, with a nil error, when no manifest exists: the
	// first audit of a folder is a baseline run, not a failure.
	Locate(dir string) (path string, found bool, err error)
}

// NewestByName selects the most recent manifest in the directory.
// Chronological order is recovered purely from filenames; ties fall back
// to lexicographic order, which for these fixed-width names is the same
// comparison, keeping selection deterministic.
type NewestByName struct{}

// Locate implements Locator.
func (NewestByName) Locate(dir string) (string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("list manifests in %s: %w", dir, err)
	}

	newest := ""
	for _, entry := range entries {
		if entry.IsDir() || !IsManifestName(entry.Name()) {
			continue
		}
		if entry.Name() > newest {
			newest = entry.Name()
		}
	}

	if newest == "" {
		return "", false, nil
	}
	return filepath.Join(dir, newest), true, nil
}

// Explicit selects a caller-supplied manifest path, overriding automatic
// discovery. The manifest still flows through the same codec; nothing
// downstream special-cases manual selection.
type Explicit struct {
	// Path is the manifest file to load.
	Path string
}

// Locate implements Locator.
func (e Explicit) Locate(string) (string, bool, error) {
	info, err := os.Stat(e.Path)
	if err != nil {
		return "", false, fmt.Errorf("manifest %s: %w", e.Path, err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("manifest %s: is a directory", e.Path)
	}
	return e.Path, true, nil
}

// List returns the manifest paths in dir, newest first. A missing
// directory yields an empty list.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list manifests in %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !IsManifestName(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}

	// Newest first: reverse lexicographic equals reverse chronological.
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}
