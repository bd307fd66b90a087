package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/omny/pkg/utils"
)

// ContentEmbedder is the hosted embedding API; *llm.Client implements it.
type ContentEmbedder interface {
	EmbedContents(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// GeminiEmbedder embeds text with the Gemini embedding model.
type GeminiEmbedder struct {
	api        ContentEmbedder
	model      string
	dimensions int
	logger     *zap.Logger
}

// GeminiOption configures a GeminiEmbedder.
type GeminiOption func(*GeminiEmbedder)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) GeminiOption {
	return func(e *GeminiEmbedder) { e.logger = utils.OrNop(l) }
}

// NewGeminiEmbedder returns an embedder for model producing vectors of the given dimension.
func NewGeminiEmbedder(api ContentEmbedder, model string, dimensions int, opts ...GeminiOption) *GeminiEmbedder {
	e := &GeminiEmbedder{api: api, model: model, dimensions: dimensions, logger: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Embed embeds a single text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts and checks every vector has the configured dimension.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := e.api.EmbedContents(ctx, e.model, texts)
	if err != nil {
		return nil, err
	}
	for i, v := range vecs {
		if len(v) != e.dimensions {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), e.dimensions)
		}
	}
	e.logger.Debug("Embedded texts", zap.String("model", e.model), zap.Int("count", len(texts)))
	return vecs, nil
}

// Dimensions returns the embedding dimension.
func (e *GeminiEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the API client is owned by the caller.
func (e *GeminiEmbedder) Close() error {
	return nil
}
