package keyword

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// BleveIndex implements Index on a Bleve index directory.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex opens the index at path, creating it when absent.
// Changing the mapping requires removing the directory so it is rebuilt.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}
	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemoryBleveIndex creates an in-memory index, used when no path is configured.
func NewMemoryBleveIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	// Field-less queries hit _all, so they must be stemmed the same way.
	im.DefaultAnalyzer = en.AnalyzerName
	doc := bleve.NewDocumentMapping()
	// English analyzer so "proteins" matches "protein" in guideline text.
	text := bleve.NewTextFieldMapping()
	text.Analyzer = en.AnalyzerName
	doc.AddFieldMappingsAt("content", text)
	doc.AddFieldMappingsAt("title", text)
	im.DefaultMapping = doc
	return im
}

// Index adds or replaces one chunk.
func (b *BleveIndex) Index(_ context.Context, id string, entry Entry) error {
	return b.index.Index(id, entry)
}

// IndexBatch adds or replaces many chunks in one batch.
func (b *BleveIndex) IndexBatch(_ context.Context, entries map[string]Entry) error {
	batch := b.index.NewBatch()
	for id, e := range entries {
		if err := batch.Index(id, e); err != nil {
			return fmt.Errorf("batch index %s: %w", id, err)
		}
	}
	return b.index.Batch(batch)
}

// Search returns up to limit chunk IDs by descending score.
func (b *BleveIndex) Search(_ context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error) {
	if limit <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}
	var o SearchOptions
	if opts != nil {
		o = *opts
	}
	if o.TitleBoost <= 1 {
		return b.run(buildQuery(query, o.Fuzziness, ""), limit)
	}

	// Title and content are scored separately and summed so a title hit
	// lifts a chunk without hiding content-only matches.
	size := limit * 2
	if size < 20 {
		size = 20
	}
	titleHits, err := b.run(buildQuery(query, o.Fuzziness, "title"), size)
	if err != nil {
		return nil, err
	}
	contentHits, err := b.run(buildQuery(query, o.Fuzziness, "content"), size)
	if err != nil {
		return nil, err
	}
	scores := make(map[string]float64, len(titleHits)+len(contentHits))
	for _, h := range titleHits {
		scores[h.ID] += h.Score * o.TitleBoost
	}
	for _, h := range contentHits {
		scores[h.ID] += h.Score
	}
	merged := make([]*Result, 0, len(scores))
	for id, s := range scores {
		merged = append(merged, &Result{ID: id, Score: s})
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].ID < merged[j].ID
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

func (b *BleveIndex) run(q blevequery.Query, size int) ([]*Result, error) {
	req := bleve.NewSearchRequest(q)
	req.Size = size
	res, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(res.Hits))
	for i, hit := range res.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// buildQuery returns a match query, or a per-term disjunction of match and
// fuzzy queries when fuzziness > 0. An empty field searches all fields.
func buildQuery(query string, fuzziness int, field string) blevequery.Query {
	terms := strings.Fields(strings.ToLower(query))
	if fuzziness <= 0 || len(terms) == 0 {
		mq := bleve.NewMatchQuery(query)
		if field != "" {
			mq.SetField(field)
		}
		return mq
	}
	if fuzziness > 2 {
		fuzziness = 2
	}
	// Fuzzy terms are not analyzed, so each term also gets a match query
	// that reaches the stemmed form.
	queries := make([]blevequery.Query, 0, 2*len(terms))
	for _, term := range terms {
		mq := bleve.NewMatchQuery(term)
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		if field != "" {
			mq.SetField(field)
			fq.SetField(field)
		}
		queries = append(queries, mq, fq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Delete removes chunks by ID.
func (b *BleveIndex) Delete(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return b.index.Batch(batch)
}

// DocCount returns the number of indexed chunks.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
