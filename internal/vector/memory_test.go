package vector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryIndex_AddSearch(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	if err := idx.Add(ctx, []string{"a", "b", "c"}, vecs); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "b" {
		t.Errorf("order = %s, %s; want a, b", results[0].ID, results[1].ID)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("scores not descending: %v", results)
	}
}

func TestMemoryIndex_SearchEdgeCases(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()

	res, err := idx.Search(ctx, []float32{1, 0}, 3)
	if err != nil || len(res) != 0 {
		t.Fatalf("empty index: %v %v", res, err)
	}
	_ = idx.Add(ctx, []string{"x"}, [][]float32{{1, 0}})
	if res, _ := idx.Search(ctx, []float32{1, 0}, 0); len(res) != 0 {
		t.Errorf("k=0 returned %d results", len(res))
	}
	if res, _ := idx.Search(ctx, []float32{1, 0}, 10); len(res) != 1 {
		t.Errorf("k beyond size returned %d results", len(res))
	}
	if _, err := idx.Search(ctx, []float32{1, 0, 0}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("wrong query dim: got %v", err)
	}
}

func TestMemoryIndex_AddReplaces(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"x"}, [][]float32{{1, 0}})
	_ = idx.Add(ctx, []string{"x"}, [][]float32{{0, 1}})
	if idx.Size() != 1 {
		t.Fatalf("Size=%d, want 1", idx.Size())
	}
	res, _ := idx.Search(ctx, []float32{0, 1}, 1)
	if res[0].Score < 0.99 {
		t.Errorf("vector not replaced, score %v", res[0].Score)
	}
}

func TestMemoryIndex_AddValidation(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	if err := idx.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0}}); err == nil {
		t.Error("expected error for length mismatch")
	}
	if err := idx.Add(ctx, []string{"a"}, [][]float32{{1, 0, 0}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
	if _, err := NewMemoryIndex(0); err == nil {
		t.Error("expected error for zero dimensions")
	}
}

func TestMemoryIndex_Remove(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"x", "y", "z"}, [][]float32{{1, 0}, {0, 1}, {0.7, 0.7}})
	if err := idx.Remove(ctx, []string{"x", "missing"}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 2 {
		t.Errorf("expected size 2, got %d", idx.Size())
	}
	res, _ := idx.Search(ctx, []float32{1, 0}, 5)
	for _, r := range res {
		if r.ID == "x" {
			t.Error("removed id still returned")
		}
	}
	// z moved into x's slot; replacing it must not touch y.
	_ = idx.Add(ctx, []string{"z"}, [][]float32{{1, 0}})
	res, _ = idx.Search(ctx, []float32{1, 0}, 1)
	if res[0].ID != "z" {
		t.Errorf("top = %s, want z", res[0].ID)
	}
}

func TestMemoryIndex_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "vectors.bin")
	ctx := context.Background()

	idx, _ := NewMemoryIndex(2)
	_ = idx.Add(ctx, []string{"chunk-1", "chunk-2"}, [][]float32{{1, 0}, {0, 1}})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, _ := NewMemoryIndex(2)
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != 2 {
		t.Fatalf("loaded Size=%d", loaded.Size())
	}
	res, _ := loaded.Search(ctx, []float32{0, 1}, 1)
	if res[0].ID != "chunk-2" {
		t.Errorf("top = %s, want chunk-2", res[0].ID)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestMemoryIndex_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	idx, _ := NewMemoryIndex(2)

	if err := idx.Load(filepath.Join(dir, "missing.bin")); err != nil {
		t.Errorf("missing file: %v", err)
	}

	bad := filepath.Join(dir, "bad.bin")
	_ = os.WriteFile(bad, []byte("not an index"), 0644)
	if err := idx.Load(bad); err == nil {
		t.Error("expected error for garbage file")
	}

	other, _ := NewMemoryIndex(3)
	_ = other.Add(context.Background(), []string{"a"}, [][]float32{{1, 0, 0}})
	path := filepath.Join(dir, "three.bin")
	_ = other.Save(path)
	if err := idx.Load(path); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
}
