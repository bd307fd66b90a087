package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsage(t *testing.T) {
	dir := t.TempDir()

	file := filepath.Join(dir, "vectors.bin")
	if err := os.WriteFile(file, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := DiskUsage(file)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("single file: got %d bytes, want 5", got)
	}

	bleveDir := filepath.Join(dir, "bleve", "store")
	if err := os.MkdirAll(bleveDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bleveDir, "root.bolt"), []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = DiskUsage(file, filepath.Join(dir, "bleve"), filepath.Join(dir, "missing"), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != 8 {
		t.Errorf("combined: got %d bytes, want 8", got)
	}
}
