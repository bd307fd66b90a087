package keyword

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "bleve"))
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestBleveIndex_SearchFindsContent(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	entries := map[string]Entry{
		"c1": {Title: "ISSN protein position stand", Content: "Daily protein intakes of 1.4 to 2.0 g per kg body weight are sufficient for most exercising individuals."},
		"c2": {Title: "Hydration basics", Content: "Drink water before, during and after training sessions."},
	}
	if err := idx.IndexBatch(ctx, entries); err != nil {
		t.Fatalf("IndexBatch: %v", err)
	}
	if n, _ := idx.DocCount(); n != 2 {
		t.Errorf("DocCount = %d, want 2", n)
	}

	results, err := idx.Search(ctx, "protein intake", 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 || results[0].ID != "c1" {
		t.Fatalf("expected c1 first, got %+v", results)
	}

	results, _ = idx.Search(ctx, "hydration", 5, nil)
	if len(results) == 0 || results[0].ID != "c2" {
		t.Errorf("title match: got %+v", results)
	}
}

func TestBleveIndex_StemmedQuery(t *testing.T) {
	idx, err := NewMemoryBleveIndex()
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()
	_ = idx.Index(ctx, "c1", Entry{Title: "Hydration basics", Content: "Drink water during training sessions."})

	for _, q := range []string{"hydration", "trained", "session"} {
		results, err := idx.Search(ctx, q, 5, nil)
		if err != nil {
			t.Fatalf("Search(%q): %v", q, err)
		}
		if len(results) != 1 || results[0].ID != "c1" {
			t.Errorf("Search(%q) = %+v, want c1", q, results)
		}
	}
}

func TestBleveIndex_TitleBoost(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_ = idx.Index(ctx, "body", Entry{Title: "notes", Content: "creatine creatine loading phase"})
	_ = idx.Index(ctx, "title", Entry{Title: "Creatine guide", Content: "loading phase guidance"})

	results, err := idx.Search(ctx, "creatine", 5, &SearchOptions{TitleBoost: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "title" {
		t.Errorf("boosted title match should rank first, got %s", results[0].ID)
	}
}

func TestBleveIndex_Fuzzy(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_ = idx.Index(ctx, "c1", Entry{Content: "hypertrophy requires progressive overload"})

	if results, _ := idx.Search(ctx, "overlod", 5, nil); len(results) != 0 {
		t.Errorf("exact search matched a typo: %+v", results)
	}
	results, err := idx.Search(ctx, "overlod", 5, &SearchOptions{Fuzziness: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("fuzzy search: got %+v", results)
	}
}

func TestBleveIndex_DeleteAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bleve")
	ctx := context.Background()

	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = idx.Index(ctx, "a", Entry{Content: "carbohydrate timing"})
	_ = idx.Index(ctx, "b", Entry{Content: "carbohydrate loading"})
	if err := idx.Delete(ctx, []string{"a"}); err != nil {
		t.Fatal(err)
	}
	_ = idx.Close()

	idx, err = NewBleveIndex(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	results, _ := idx.Search(ctx, "carbohydrate", 5, nil)
	if len(results) != 1 || results[0].ID != "b" {
		t.Errorf("after delete and reopen: %+v", results)
	}
}

func TestBleveIndex_EmptyQuery(t *testing.T) {
	idx, err := NewMemoryBleveIndex()
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if res, err := idx.Search(context.Background(), "   ", 5, nil); err != nil || res != nil {
		t.Errorf("empty query: %v %v", res, err)
	}
}
