package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/omny/internal/embedding"
	"github.com/hyperjump/omny/internal/keyword"
	"github.com/hyperjump/omny/internal/models"
	"github.com/hyperjump/omny/internal/storage"
	"github.com/hyperjump/omny/internal/vector"
	"github.com/hyperjump/omny/pkg/utils"
)

// Result sources.
const (
	SourceSemantic = "semantic"
	SourceKeyword  = "keyword"
)

// keywordFuzziness tolerates one typo per term in fallback lookups.
const keywordFuzziness = 1

// IndexSearcher answers queries from the vector index. When the query cannot
// be embedded it asks the keyword index instead.
type IndexSearcher struct {
	storage      storage.Storage
	embedder     embedding.Embedder
	vectorIndex  vector.Index
	keywordIndex keyword.Index
	logger       *zap.Logger
}

// SearcherOption configures an IndexSearcher.
type SearcherOption func(*IndexSearcher)

// WithSearchLogger sets the logger.
func WithSearchLogger(l *zap.Logger) SearcherOption {
	return func(s *IndexSearcher) { s.logger = utils.OrNop(l) }
}

// NewIndexSearcher creates a searcher. keywordIndex may be nil to disable the fallback.
func NewIndexSearcher(
	store storage.Storage,
	embedder embedding.Embedder,
	vectorIndex vector.Index,
	keywordIndex keyword.Index,
	opts ...SearcherOption,
) *IndexSearcher {
	s := &IndexSearcher{
		storage:      store,
		embedder:     embedder,
		vectorIndex:  vectorIndex,
		keywordIndex: keywordIndex,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns up to k chunks ranked by similarity to query.
func (s *IndexSearcher) Search(ctx context.Context, query string, k int) ([]*models.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	if s.vectorIndex == nil || s.vectorIndex.Size() == 0 {
		return nil, ErrUnavailable
	}

	qvec, embedErr := s.embedder.Embed(ctx, query)
	if embedErr == nil {
		hits, err := s.vectorIndex.Search(ctx, qvec, k)
		if err != nil {
			return nil, fmt.Errorf("vector search failed: %w", err)
		}
		ids := make([]string, len(hits))
		scores := make(map[string]float64, len(hits))
		for i, h := range hits {
			ids[i] = h.ID
			scores[h.ID] = h.Score
		}
		return s.resolve(ctx, ids, scores, SourceSemantic)
	}

	if s.keywordIndex == nil || errors.Is(embedErr, context.Canceled) {
		return nil, fmt.Errorf("embedding failed: %w", embedErr)
	}
	s.logger.Warn("query embedding failed, using keyword index", zap.Error(embedErr))
	hits, err := s.keywordIndex.Search(ctx, query, k, &keyword.SearchOptions{Fuzziness: keywordFuzziness})
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w; keyword search failed: %v", embedErr, err)
	}
	ids := make([]string, len(hits))
	scores := make(map[string]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
		scores[h.ID] = h.Score
	}
	return s.resolve(ctx, ids, scores, SourceKeyword)
}

// resolve loads chunk text and document titles for ranked chunk IDs.
func (s *IndexSearcher) resolve(ctx context.Context, ids []string, scores map[string]float64, source string) ([]*models.SearchResult, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	chunks, err := s.storage.GetChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	titles := make(map[string]string)
	out := make([]*models.SearchResult, 0, len(chunks))
	for _, ch := range chunks {
		title, ok := titles[ch.DocumentID]
		if !ok {
			if doc, err := s.storage.GetDocument(ctx, ch.DocumentID); err == nil {
				title = doc.Title
			}
			titles[ch.DocumentID] = title
		}
		out = append(out, &models.SearchResult{
			Chunk:         ch,
			DocumentTitle: title,
			Score:         scores[ch.ID],
			Rank:          len(out) + 1,
			Source:        source,
		})
	}
	return out, nil
}

// Query runs a validated knowledge query and wraps the hits in a SearchResponse.
func (s *IndexSearcher) Query(ctx context.Context, q *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	results, err := s.Search(ctx, q.Query, q.K)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []*models.SearchResult{}
	}
	return &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
		Query:     q.Query,
	}, nil
}
