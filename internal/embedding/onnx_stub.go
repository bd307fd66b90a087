//go:build !cgo

package embedding

import (
	"context"
	"errors"
)

// ErrONNXUnavailable is returned when the binary was built without cgo.
var ErrONNXUnavailable = errors.New("onnx embedder requires cgo; build with CGO_ENABLED=1 and onnxruntime")

// ONNXEmbedder is unavailable without cgo.
type ONNXEmbedder struct{}

// NewONNXEmbedder always fails without cgo.
func NewONNXEmbedder(_ string, _, _ int) (*ONNXEmbedder, error) {
	return nil, ErrONNXUnavailable
}

func (e *ONNXEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrONNXUnavailable
}

func (e *ONNXEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, ErrONNXUnavailable
}

func (e *ONNXEmbedder) Dimensions() int { return 0 }

func (e *ONNXEmbedder) Close() error { return nil }
