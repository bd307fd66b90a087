package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/hyperjump/omny/pkg/utils"
)

// HashEmbedder is a deterministic bag-of-words embedder using feature hashing.
// Texts sharing words land close together, which is enough for offline use and tests.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns a hashing embedder of the given dimension.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the unit-length hashed term vector of text.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, e.dimensions)
	for _, w := range Words(text) {
		h := fnv.New32a()
		h.Write([]byte(w))
		sum := h.Sum32()
		sign := float32(1)
		if sum&0x80000000 != 0 {
			sign = -1
		}
		v[int(sum%uint32(e.dimensions))] += sign
	}
	utils.NormalizeL2(v)
	return v, nil
}

// EmbedBatch embeds each text in turn.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *HashEmbedder) Close() error {
	return nil
}

// Words lower-cases text and splits it on anything that is not a letter or digit.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
