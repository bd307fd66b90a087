// Package retrieval looks up knowledge-base context for general questions.
package retrieval

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/omny/internal/models"
	"github.com/hyperjump/omny/pkg/utils"
)

// FallbackContext is returned in place of retrieved text whenever retrieval
// fails or finds nothing.
const FallbackContext = "No specific scientific context available."

// queryLogLimit bounds the query text written to logs, in runes.
const queryLogLimit = 80

// contextSeparator joins retrieved chunks.
const contextSeparator = "\n\n"

var (
	// ErrUnavailable is returned when no knowledge index is loaded.
	ErrUnavailable = errors.New("knowledge index unavailable")
	// ErrNoResults is returned when a lookup matched nothing.
	ErrNoResults = errors.New("no matching knowledge")
)

// Searcher finds the k chunks nearest to a query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]*models.SearchResult, error)
}

// Result is the outcome of one lookup. Err is set when the lookup failed or
// matched nothing, in which case Chunks is empty.
type Result struct {
	Chunks []*models.SearchResult
	Err    error
}

// Text joins the chunk contents, or returns FallbackContext when there are none.
func (r Result) Text() string {
	parts := make([]string, 0, len(r.Chunks))
	for _, c := range r.Chunks {
		if c.Chunk == nil {
			continue
		}
		if s := strings.TrimSpace(c.Chunk.Content); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return FallbackContext
	}
	return strings.Join(parts, contextSeparator)
}

// Gateway issues one nearest-neighbor query per question.
type Gateway struct {
	searcher Searcher
	k        int
	logger   *zap.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for retrieval warnings.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) { g.logger = utils.OrNop(l) }
}

// NewGateway creates a gateway. searcher may be nil when no index has been
// built; every lookup then falls back. k <= 0 uses models.DefaultTopK.
func NewGateway(searcher Searcher, k int, opts ...Option) *Gateway {
	if k <= 0 {
		k = models.DefaultTopK
	}
	g := &Gateway{searcher: searcher, k: k, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Lookup runs the query and reports failures in Result.Err.
func (g *Gateway) Lookup(ctx context.Context, query string) Result {
	if g == nil || g.searcher == nil {
		return Result{Err: ErrUnavailable}
	}
	chunks, err := g.searcher.Search(ctx, query, g.k)
	if err != nil {
		return Result{Err: err}
	}
	if len(chunks) == 0 {
		return Result{Err: ErrNoResults}
	}
	return Result{Chunks: chunks}
}

// Context returns the retrieved text for query, or FallbackContext after
// logging a warning. It never returns an empty string.
func (g *Gateway) Context(ctx context.Context, query string) string {
	res := g.Lookup(ctx, query)
	if res.Err != nil {
		if g != nil {
			g.logger.Warn("knowledge retrieval failed, using fallback context",
				zap.String("query", utils.Truncate(query, queryLogLimit)), zap.Error(res.Err))
		}
		return FallbackContext
	}
	g.logger.Debug("knowledge retrieved",
		zap.String("query", utils.Truncate(query, queryLogLimit)), zap.Int("chunks", len(res.Chunks)))
	return res.Text()
}
