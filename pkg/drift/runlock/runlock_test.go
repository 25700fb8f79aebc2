package runlock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lockPath := filepath.Join(root, LockFileName)

	lock, err := Acquire(root, "run-1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if _, err := os.Stat(lockPath); err != nil {
		t.Fatalf("lock file missing after Acquire: %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Fatal("lock file still present after Release")
	}
}

func TestAcquire_Contention(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	first, err := Acquire(root, "run-1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer first.Release()

	_, err = Acquire(root, "run-2")
	if err == nil {
		t.Fatal("second Acquire() succeeded while lock held")
	}

	var held *HeldError
	if !errors.As(err, &held) {
		t.Fatalf("Acquire() error = %T, want *HeldError", err)
	}
	if held.Holder.RunID != "run-1" {
		t.Errorf("Holder.RunID = %q, want %q", held.Holder.RunID, "run-1")
	}
	if held.Holder.PID != os.Getpid() {
		t.Errorf("Holder.PID = %d, want %d", held.Holder.PID, os.Getpid())
	}
}

func TestAcquire_AfterRelease(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	first, err := Acquire(root, "run-1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	second, err := Acquire(root, "run-2")
	if err != nil {
		t.Fatalf("Acquire() after Release error = %v", err)
	}
	defer second.Release()
}

func TestAcquire_StaleTakeover(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	if _, err := acquire(root, "crashed-run", time.Minute); err != nil {
		t.Fatalf("acquire() error = %v", err)
	}

	// With a zero stale timeout every existing lock is stale.
	lock, err := acquire(root, "run-2", 0)
	if err != nil {
		t.Fatalf("acquire() over stale lock error = %v", err)
	}
	defer lock.Release()

	info, err := readInfo(filepath.Join(root, LockFileName))
	if err != nil {
		t.Fatalf("readInfo() error = %v", err)
	}
	if info.RunID != "run-2" {
		t.Errorf("RunID = %q, want %q", info.RunID, "run-2")
	}
}

func TestRelease_StolenLock(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	original, err := acquire(root, "run-1", time.Minute)
	if err != nil {
		t.Fatalf("acquire() error = %v", err)
	}

	// Another run takes the lock over as stale.
	thief, err := acquire(root, "run-2", 0)
	if err != nil {
		t.Fatalf("takeover acquire() error = %v", err)
	}

	// The original holder's release must not remove the thief's lock.
	if err := original.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	info, err := readInfo(filepath.Join(root, LockFileName))
	if err != nil {
		t.Fatalf("lock file gone after stale holder's release: %v", err)
	}
	if info.RunID != "run-2" {
		t.Errorf("RunID = %q, want %q", info.RunID, "run-2")
	}

	if err := thief.Release(); err != nil {
		t.Fatalf("thief Release() error = %v", err)
	}
}

func TestAcquire_CorruptLockFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lockPath := filepath.Join(root, LockFileName)
	if err := os.WriteFile(lockPath, []byte("not json"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	// A corrupt lock cannot prove a live holder, but the file still
	// exists, so creation loses to it and the corruption surfaces.
	_, err := Acquire(root, "run-1")
	if err == nil {
		t.Fatal("Acquire() error = nil over corrupt lock file")
	}
}
