package llm

import (
	"context"
	"fmt"
	"strings"
)

// maxEmbedBatch is the API limit on requests per batchEmbedContents call.
const maxEmbedBatch = 100

type embedRequest struct {
	Model   string  `json:"model"`
	Content Content `json:"content"`
}

type batchEmbedRequest struct {
	Requests []embedRequest `json:"requests"`
}

type batchEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

// EmbedContents returns one embedding per text using batchEmbedContents.
func (c *Client) EmbedContents(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	path := "/v1beta/" + model + ":batchEmbedContents"

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))
		req := batchEmbedRequest{Requests: make([]embedRequest, 0, end-start)}
		for _, t := range texts[start:end] {
			req.Requests = append(req.Requests, embedRequest{
				Model:   model,
				Content: Content{Parts: []Part{TextPart(t)}},
			})
		}
		var resp batchEmbedResponse
		if err := c.Do(ctx, path, req, &resp); err != nil {
			return nil, fmt.Errorf("embedding batch: %w", err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrInvalidResponse, len(resp.Embeddings), end-start)
		}
		for _, e := range resp.Embeddings {
			out = append(out, e.Values)
		}
	}
	return out, nil
}
