package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesainslie/drift/pkg/drift/types"
)

// Write persists inv as a new manifest file in dir and returns the path
// written. The file is created atomically via a temp file and rename, and
// always as a new file: a prior manifest is never edited in place.
func Write(dir string, inv *types.Inventory) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create manifest directory: %w", err)
	}

	name := Filename(inv.CapturedAt)
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("manifest %s already exists", path)
	}

	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp manifest: %w", err)
	}
	tmpPath := tmp.Name()

	if err := Encode(tmp, inv); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close temp manifest: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename temp manifest: %w", err)
	}
	return path, nil
}

// Load reads and decodes the manifest at path.
func Load(path string) (*types.Inventory, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	defer file.Close()

	inv, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return inv, nil
}
