package digest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/jamesainslie/drift/pkg/drift/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestFingerprinter_File(t *testing.T) {
	t.Parallel()

	t.Run("known vector", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeFile(t, dir, "hello.txt", "Hello, world!")

		got, err := NewDefault().File(context.Background(), path)
		if err != nil {
			t.Fatalf("File() error = %v", err)
		}
		if want := "6cd3556deb0da54bca060b4c39479839"; got != want {
			t.Errorf("File() = %q, want %q", got, want)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeFile(t, dir, "empty.txt", "")

		got, err := NewDefault().File(context.Background(), path)
		if err != nil {
			t.Fatalf("File() error = %v", err)
		}
		if want := "d41d8cd98f00b204e9800998ecf8427e"; got != want {
			t.Errorf("File() = %q, want %q", got, want)
		}
	})

	t.Run("content larger than buffer", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		content := strings.Repeat("drift", 100)
		path := writeFile(t, dir, "big.txt", content)

		// Tiny buffer forces multiple read chunks.
		small, err := New(7).File(context.Background(), path)
		if err != nil {
			t.Fatalf("File() error = %v", err)
		}
		big, err := NewDefault().File(context.Background(), path)
		if err != nil {
			t.Fatalf("File() error = %v", err)
		}
		if small != big {
			t.Errorf("chunk size changed digest: %q vs %q", small, big)
		}
	})

	t.Run("resolves symlink to target content", func(t *testing.T) {
		t.Parallel()
		if runtime.GOOS == "windows" {
			t.Skip("symlinks require privileges on windows")
		}
		dir := t.TempDir()
		target := writeFile(t, dir, "target.txt", "Hello, world!")
		link := filepath.Join(dir, "link.txt")
		if err := os.Symlink(target, link); err != nil {
			t.Fatalf("Symlink() error = %v", err)
		}

		got, err := NewDefault().File(context.Background(), link)
		if err != nil {
			t.Fatalf("File() error = %v", err)
		}
		if want := "6cd3556deb0da54bca060b4c39479839"; got != want {
			t.Errorf("File() = %q, want %q", got, want)
		}
	})

	t.Run("rejects directory", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		_, err := NewDefault().File(context.Background(), dir)
		if !errors.Is(err, types.ErrNotRegularFile) {
			t.Fatalf("File() error = %v, want ErrNotRegularFile", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := NewDefault().File(context.Background(), filepath.Join(t.TempDir(), "absent"))
		if err == nil {
			t.Fatal("File() error = nil for missing file")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeFile(t, dir, "file.txt", strings.Repeat("x", 1024))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewDefault().File(ctx, path)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("File() error = %v, want context.Canceled", err)
		}
	})
}

func TestFingerprinter_Reader(t *testing.T) {
	t.Parallel()

	got, err := NewDefault().Reader(context.Background(), strings.NewReader("Hello, world!"))
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	if want := "6cd3556deb0da54bca060b4c39479839"; got != want {
		t.Errorf("Reader() = %q, want %q", got, want)
	}
	if len(got) != HexLength {
		t.Errorf("len = %d, want %d", len(got), HexLength)
	}
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"6cd3556deb0da54bca060b4c39479839", true},
		{"d41d8cd98f00b204e9800998ecf8427e", true},
		{"6CD3556DEB0DA54BCA060B4C39479839", false}, // uppercase
		{"6cd3556deb0da54bca060b4c3947983", false},  // too short
		{"6cd3556deb0da54bca060b4c394798390", false}, // too long
		{"6cd3556deb0da54bca060b4c3947983z", false},  // non-hex
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValid(tt.in); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
