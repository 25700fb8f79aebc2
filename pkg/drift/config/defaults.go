// Package config provides configuration management for the drift folder
// auditor.
package config

// Default configuration values for drift.
const (
	// DefaultWorkers is the traversal/hash worker count. Zero lets the
	// scanner pick a value suited to the host.
	DefaultWorkers = 0

	// DefaultConfigDir is the default configuration directory path.
	DefaultConfigDir = "~/.config/drift"

	// DefaultFollowSymlinks is the symlink policy: links to files are
	// not inventoried unless explicitly enabled.
	DefaultFollowSymlinks = false

	// DefaultCacheEnabled controls whether the digest cache is used.
	DefaultCacheEnabled = true
)

// DefaultExclusions contains relative-path patterns excluded from every
// scan.
var DefaultExclusions = []string{}
