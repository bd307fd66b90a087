package embedding

import (
	"context"
	"errors"
	"testing"
)

type countingEmbedder struct {
	*HashEmbedder
	batches int
	texts   int
	fail    bool
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if c.fail {
		return nil, errors.New("boom")
	}
	c.batches++
	c.texts += len(texts)
	return c.HashEmbedder.EmbedBatch(ctx, texts)
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func TestCachedEmbedder(t *testing.T) {
	inner := &countingEmbedder{HashEmbedder: NewHashEmbedder(16)}
	c, err := NewCachedEmbedder(inner, 2)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := c.Embed(ctx, "protein"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Embed(ctx, "protein"); err != nil {
		t.Fatal(err)
	}
	if inner.texts != 1 {
		t.Errorf("inner embedded %d texts, want 1", inner.texts)
	}

	vecs, err := c.EmbedBatch(ctx, []string{"protein", "sleep", "protein"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 3 || vecs[0] == nil || vecs[1] == nil || vecs[2] == nil {
		t.Fatalf("EmbedBatch = %v", vecs)
	}
	// Only "sleep" is a miss.
	if inner.texts != 2 {
		t.Errorf("inner embedded %d texts, want 2", inner.texts)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	c.Embed(ctx, "creatine") // evicts the least recently used entry
	if c.Len() != 2 {
		t.Errorf("Len() after eviction = %d, want 2", c.Len())
	}
	if c.Dimensions() != 16 {
		t.Errorf("Dimensions() = %d", c.Dimensions())
	}
}

func TestCachedEmbedder_PropagatesErrors(t *testing.T) {
	c, _ := NewCachedEmbedder(&countingEmbedder{HashEmbedder: NewHashEmbedder(8), fail: true}, 10)
	if _, err := c.EmbedBatch(context.Background(), []string{"x"}); err == nil {
		t.Error("expected error")
	}
	if c.Len() != 0 {
		t.Error("failed embeddings must not be cached")
	}
}
