package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jamesainslie/drift/pkg/drift/manifest"
	"github.com/jamesainslie/drift/pkg/drift/runlock"
	"github.com/jamesainslie/drift/pkg/drift/types"
)

// buildTree writes the given relative path -> content map under dir.
func buildTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
}

func scan(t *testing.T, opts Options) *types.Inventory {
	t.Helper()
	inv, err := New(opts).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	return inv
}

func TestScanner_Scan(t *testing.T) {
	t.Parallel()

	t.Run("inventories every regular file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		buildTree(t, dir, map[string]string{
			"hello.txt":          "Hello, world!",
			"empty.txt":          "",
			"sub/nested/deep.md": "content",
		})

		inv := scan(t, Options{Root: dir})

		want := []string{"empty.txt", "hello.txt", "sub/nested/deep.md"}
		got := inv.Paths()
		if len(got) != len(want) {
			t.Fatalf("Paths() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Paths()[%d] = %q, want %q", i, got[i], want[i])
			}
		}

		rec, ok := inv.Lookup("hello.txt")
		if !ok {
			t.Fatal("hello.txt not in inventory")
		}
		if want := "6cd3556deb0da54bca060b4c39479839"; rec.Digest != want {
			t.Errorf("digest = %q, want %q", rec.Digest, want)
		}
		if rec.Size != 13 {
			t.Errorf("size = %d, want 13", rec.Size)
		}
	})

	t.Run("repeated scans are value equal", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		buildTree(t, dir, map[string]string{
			"a.txt":   "alpha",
			"b/c.txt": "gamma",
			"b/d.txt": "delta",
		})

		first := scan(t, Options{Root: dir, Workers: 4})
		second := scan(t, Options{Root: dir, Workers: 1})

		if !first.Equal(second) {
			t.Error("two scans of an unchanged tree differ")
		}
		if first.RunID == second.RunID {
			t.Error("two scans share a run ID")
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		t.Parallel()

		inv := scan(t, Options{Root: t.TempDir()})
		if inv.Len() != 0 {
			t.Errorf("Len() = %d, want 0", inv.Len())
		}
		if len(inv.Errors) != 0 {
			t.Errorf("Errors = %v, want none", inv.Errors)
		}
	})

	t.Run("missing root", func(t *testing.T) {
		t.Parallel()

		_, err := New(Options{Root: filepath.Join(t.TempDir(), "absent")}).Scan(context.Background())
		if !errors.Is(err, types.ErrRootNotFound) {
			t.Fatalf("Scan() error = %v, want ErrRootNotFound", err)
		}
	})

	t.Run("root is a file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		buildTree(t, dir, map[string]string{"f.txt": "x"})

		_, err := New(Options{Root: filepath.Join(dir, "f.txt")}).Scan(context.Background())
		if !errors.Is(err, types.ErrRootNotDirectory) {
			t.Fatalf("Scan() error = %v, want ErrRootNotDirectory", err)
		}
	})

	t.Run("cancelled context returns no inventory", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		buildTree(t, dir, map[string]string{"a.txt": "x"})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		inv, err := New(Options{Root: dir}).Scan(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Scan() error = %v, want context.Canceled", err)
		}
		if inv != nil {
			t.Error("Scan() returned an inventory despite cancellation")
		}
	})

	t.Run("cancellation mid-scan surfaces no partial inventory", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		files := make(map[string]string, 200)
		for i := 0; i < 200; i++ {
			files[fmt.Sprintf("f%03d.txt", i)] = "x"
		}
		buildTree(t, dir, files)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Cancel from inside the walk once some files have been hashed.
		inv, err := New(Options{
			Root:    dir,
			Workers: 1,
			OnProgress: func(Progress) {
				cancel()
			},
		}).Scan(ctx)

		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Scan() error = %v, want context.Canceled", err)
		}
		if inv != nil {
			t.Errorf("Scan() returned a partial inventory of %d files", inv.Len())
		}
	})

	t.Run("unreadable file recorded, siblings inventoried", func(t *testing.T) {
		t.Parallel()
		if runtime.GOOS == "windows" {
			t.Skip("permission bits are advisory on windows")
		}
		if os.Geteuid() == 0 {
			t.Skip("root ignores file permissions")
		}
		dir := t.TempDir()
		buildTree(t, dir, map[string]string{
			"readable.txt": "fine",
			"locked.txt":   "secret",
		})
		if err := os.Chmod(filepath.Join(dir, "locked.txt"), 0o000); err != nil {
			t.Fatalf("Chmod() error = %v", err)
		}

		inv := scan(t, Options{Root: dir})

		if _, ok := inv.Lookup("readable.txt"); !ok {
			t.Error("readable.txt missing from inventory")
		}
		if _, ok := inv.Lookup("locked.txt"); ok {
			t.Error("unreadable file present as a record")
		}
		if len(inv.Errors) != 1 {
			t.Fatalf("Errors = %v, want one entry", inv.Errors)
		}
		if inv.Errors[0].Path != "locked.txt" {
			t.Errorf("error path = %q, want %q", inv.Errors[0].Path, "locked.txt")
		}
	})
}

func TestScanner_SkipsOwnArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	buildTree(t, dir, map[string]string{
		"real.txt": "content",
		manifest.Filename(time.Now().UTC()): "not real manifest content",
		runlock.LockFileName:                "{}",
	})

	inv := scan(t, Options{Root: dir})

	if inv.Len() != 1 {
		t.Fatalf("Len() = %d, want 1: %v", inv.Len(), inv.Paths())
	}
	if _, ok := inv.Lookup("real.txt"); !ok {
		t.Error("real.txt missing from inventory")
	}
}

func TestScanner_Exclude(t *testing.T) {
	t.Parallel()

	t.Run("pattern against base name", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		buildTree(t, dir, map[string]string{
			"keep.txt":     "k",
			"skip.tmp":     "s",
			"sub/also.tmp": "s",
		})

		inv := scan(t, Options{Root: dir, Exclude: []string{"*.tmp"}})

		if inv.Len() != 1 {
			t.Fatalf("Len() = %d, want 1: %v", inv.Len(), inv.Paths())
		}
	})

	t.Run("pattern prunes directories", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		buildTree(t, dir, map[string]string{
			"src/main.go":       "package main",
			".git/objects/blob": "binary",
		})

		inv := scan(t, Options{Root: dir, Exclude: []string{".git"}})

		if inv.Len() != 1 {
			t.Fatalf("Len() = %d, want 1: %v", inv.Len(), inv.Paths())
		}
		if _, ok := inv.Lookup("src/main.go"); !ok {
			t.Error("src/main.go missing from inventory")
		}
	})
}

func TestScanner_Symlinks(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}

	setup := func(t *testing.T) string {
		dir := t.TempDir()
		buildTree(t, dir, map[string]string{"target.txt": "Hello, world!"})
		if err := os.Symlink(filepath.Join(dir, "target.txt"), filepath.Join(dir, "link.txt")); err != nil {
			t.Skipf("cannot create symlink: %v", err)
		}
		return dir
	}

	t.Run("skipped by default", func(t *testing.T) {
		t.Parallel()
		dir := setup(t)

		inv := scan(t, Options{Root: dir})

		if _, ok := inv.Lookup("link.txt"); ok {
			t.Error("symlink inventoried with FollowSymlinks disabled")
		}
		if inv.Len() != 1 {
			t.Errorf("Len() = %d, want 1", inv.Len())
		}
	})

	t.Run("followed when enabled", func(t *testing.T) {
		t.Parallel()
		dir := setup(t)

		inv := scan(t, Options{Root: dir, FollowSymlinks: true})

		rec, ok := inv.Lookup("link.txt")
		if !ok {
			t.Fatal("symlink missing with FollowSymlinks enabled")
		}
		// Target content is what gets hashed.
		if want := "6cd3556deb0da54bca060b4c39479839"; rec.Digest != want {
			t.Errorf("digest = %q, want %q", rec.Digest, want)
		}
	})

	t.Run("dangling link recorded as error when followed", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		if err := os.Symlink(filepath.Join(dir, "nowhere"), filepath.Join(dir, "broken")); err != nil {
			t.Skipf("cannot create symlink: %v", err)
		}

		inv := scan(t, Options{Root: dir, FollowSymlinks: true})

		if inv.Len() != 0 {
			t.Errorf("Len() = %d, want 0", inv.Len())
		}
		if len(inv.Errors) != 1 {
			t.Fatalf("Errors = %v, want one entry", inv.Errors)
		}
		if inv.Errors[0].Path != "broken" {
			t.Errorf("error path = %q, want %q", inv.Errors[0].Path, "broken")
		}
	})
}

// fakeCache is an in-memory DigestCache for tests.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	hits    int
	stores  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (c *fakeCache) key(root, relPath string, size, mtimeNano int64) string {
	return fmt.Sprintf("%s\x00%s\x00%d\x00%d", root, relPath, size, mtimeNano)
}

func (c *fakeCache) Lookup(root, relPath string, size, mtimeNano int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dig, ok := c.entries[c.key(root, relPath, size, mtimeNano)]
	if ok {
		c.hits++
	}
	return dig, ok
}

func (c *fakeCache) Store(root, relPath string, size, mtimeNano int64, dig string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(root, relPath, size, mtimeNano)] = dig
	c.stores++
	return nil
}

func TestScanner_DigestCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	buildTree(t, dir, map[string]string{
		"a.txt": "alpha",
		"b.txt": "beta",
	})
	cache := newFakeCache()

	first := scan(t, Options{Root: dir, Cache: cache})
	if cache.stores != 2 {
		t.Errorf("stores after first scan = %d, want 2", cache.stores)
	}

	second := scan(t, Options{Root: dir, Cache: cache})
	if cache.hits != 2 {
		t.Errorf("hits after second scan = %d, want 2", cache.hits)
	}

	// Cache hits never change the result.
	if !first.Equal(second) {
		t.Error("cached scan differs from fresh scan")
	}

	uncached := scan(t, Options{Root: dir})
	if !first.Equal(uncached) {
		t.Error("cached scan differs from uncached scan")
	}
}

func TestScanner_Progress(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := make(map[string]string, 130)
	for i := 0; i < 130; i++ {
		files[fmt.Sprintf("files/f%03d.txt", i)] = "x"
	}
	buildTree(t, dir, files)

	var mu sync.Mutex
	var snapshots []Progress
	inv := scan(t, Options{
		Root:    dir,
		Workers: 1,
		OnProgress: func(p Progress) {
			mu.Lock()
			snapshots = append(snapshots, p)
			mu.Unlock()
		},
	})

	if inv.Len() != len(files) {
		t.Fatalf("Len() = %d, want %d", inv.Len(), len(files))
	}
	mu.Lock()
	defer mu.Unlock()
	if len(snapshots) == 0 {
		t.Fatal("no progress snapshots received")
	}
	last := snapshots[len(snapshots)-1]
	if last.FilesScanned == 0 || last.BytesScanned == 0 {
		t.Errorf("empty progress snapshot: %+v", last)
	}
}
