// Package embedding turns text into vectors for the knowledge-base index.
// Providers: Gemini (hosted), ONNX (local model, cgo) and a hashing embedder
// that needs neither network nor model files.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/omny/internal/config"
	"github.com/hyperjump/omny/pkg/utils"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Provider names accepted in configuration.
const (
	ProviderGemini = "gemini"
	ProviderONNX   = "onnx"
	ProviderHash   = "hash"
)

// ErrUnknownProvider is returned by New for an unsupported provider name.
var ErrUnknownProvider = errors.New("unknown embedding provider")

// New builds the configured embedder wrapped in an LRU cache. api is only
// used by the gemini provider.
func New(cfg config.EmbeddingConfig, api ContentEmbedder, logger *zap.Logger) (Embedder, error) {
	var (
		inner Embedder
		err   error
	)
	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini, "":
		if api == nil {
			return nil, fmt.Errorf("gemini embedding provider needs an API client")
		}
		inner = NewGeminiEmbedder(api, cfg.Model, cfg.Dimensions, WithLogger(utils.OrNop(logger)))
	case ProviderONNX:
		inner, err = NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
	case ProviderHash:
		inner = NewHashEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	cached, err := NewCachedEmbedder(inner, cfg.CacheSize)
	if err != nil {
		_ = inner.Close()
		return nil, err
	}
	return cached, nil
}
