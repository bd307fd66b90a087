package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/omny/internal/models"
)

type fakeSearcher struct {
	results []*models.SearchResult
	err     error
	gotK    int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, k int) ([]*models.SearchResult, error) {
	f.gotK = k
	return f.results, f.err
}

func result(content string) *models.SearchResult {
	return &models.SearchResult{Chunk: &models.DocumentChunk{Content: content}}
}

func TestGateway_Context(t *testing.T) {
	tests := []struct {
		name     string
		searcher Searcher
		want     string
	}{
		{
			name:     "joins chunks with a blank line",
			searcher: &fakeSearcher{results: []*models.SearchResult{result("Protein 1.6 g/kg."), result("Sleep 7-9 h.")}},
			want:     "Protein 1.6 g/kg.\n\nSleep 7-9 h.",
		},
		{
			name:     "searcher error",
			searcher: &fakeSearcher{err: errors.New("index missing")},
			want:     FallbackContext,
		},
		{
			name:     "empty result",
			searcher: &fakeSearcher{},
			want:     FallbackContext,
		},
		{
			name:     "only blank chunks",
			searcher: &fakeSearcher{results: []*models.SearchResult{result("   ")}},
			want:     FallbackContext,
		},
		{
			name:     "no index",
			searcher: nil,
			want:     FallbackContext,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGateway(tt.searcher, 0)
			if got := g.Context(context.Background(), "how much protein?"); got != tt.want {
				t.Errorf("Context() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGateway_Lookup(t *testing.T) {
	f := &fakeSearcher{err: errors.New("boom")}
	g := NewGateway(f, 5)
	res := g.Lookup(context.Background(), "q")
	if res.Err == nil || len(res.Chunks) != 0 {
		t.Errorf("Lookup() = %+v, want error", res)
	}
	if f.gotK != 5 {
		t.Errorf("k = %d, want 5", f.gotK)
	}

	if res := NewGateway(&fakeSearcher{}, 0).Lookup(context.Background(), "q"); !errors.Is(res.Err, ErrNoResults) {
		t.Errorf("empty: got %v, want ErrNoResults", res.Err)
	}
	if res := NewGateway(nil, 0).Lookup(context.Background(), "q"); !errors.Is(res.Err, ErrUnavailable) {
		t.Errorf("nil searcher: got %v, want ErrUnavailable", res.Err)
	}
}

func TestGateway_DefaultK(t *testing.T) {
	f := &fakeSearcher{}
	NewGateway(f, 0).Lookup(context.Background(), "q")
	if f.gotK != models.DefaultTopK {
		t.Errorf("k = %d, want %d", f.gotK, models.DefaultTopK)
	}
}
