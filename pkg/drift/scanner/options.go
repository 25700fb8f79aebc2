package scanner

import (
	"path"

	"github.com/jamesainslie/drift/pkg/drift/digest"
)

// DigestCache is the optional cache consulted before hashing a file.
// A cache hit never changes an audit outcome: entries are validated
// against the file's current size and mtime and any mismatch is a miss.
type DigestCache interface {
	Lookup(root, relPath string, size, mtimeNano int64) (dig string, ok bool)
	Store(root, relPath string, size, mtimeNano int64, dig string) error
}

// Progress is a snapshot of an in-flight scan.
type Progress struct {
	// FilesScanned is the number of files fingerprinted so far.
	FilesScanned int64

	// DirsScanned is the number of directories entered so far.
	DirsScanned int64

	// BytesScanned is the total size of files fingerprinted so far.
	BytesScanned int64

	// CurrentPath is a recently visited path.
	CurrentPath string
}

// Options configures an inventory scan.
type Options struct {
	// Root is the directory to inventory.
	Root string

	// FollowSymlinks includes symlinks to regular files, hashing the
	// target content. Symlinked directories are never entered regardless
	// of this setting. Default false.
	FollowSymlinks bool

	// Exclude holds glob patterns matched against slash-separated
	// relative paths and against base names.
	Exclude []string

	// Workers bounds the traversal and hashing concurrency. Zero or
	// negative selects the fastwalk default for the host.
	Workers int

	// BufferSize is the digest read chunk size. Zero selects the
	// default.
	BufferSize int

	// Cache, when non-nil, is consulted before hashing each file.
	Cache DigestCache

	// OnProgress, when non-nil, receives periodic progress snapshots.
	// It may be called from multiple goroutines.
	OnProgress func(Progress)
}

// Validate normalizes the options in place.
func (o *Options) Validate() {
	if o.Root == "" {
		o.Root = "."
	}
	if o.Workers < 0 {
		o.Workers = 0
	}
	if o.BufferSize < 1 {
		o.BufferSize = digest.DefaultBufferSize
	}
}

// excluded reports whether a relative path matches any exclude pattern.
func (o *Options) excluded(relPath string) bool {
	base := path.Base(relPath)
	for _, pattern := range o.Exclude {
		if ok, _ := path.Match(pattern, relPath); ok {
			return true
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
