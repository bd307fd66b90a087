// Package indexer ingests knowledge-base files into storage, the vector index
// and the keyword index.
package indexer

import (
	"strings"
	"unicode"

	"github.com/hyperjump/omny/internal/models"
	"github.com/hyperjump/omny/internal/sourceid"
)

// Default chunk geometry, in characters.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// separators are tried in order when looking for a chunk boundary.
var separators = [][]rune{[]rune("\n\n"), []rune("\n"), []rune(" ")}

// Chunker splits text into overlapping character windows, ending each window
// on a paragraph, line or word boundary when one is available.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. Invalid values fall back to the defaults;
// overlap must be smaller than size.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split returns the chunk texts for text. Every chunk is at most size runes.
func (c *Chunker) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	n := len(runes)
	var out []string
	for start := 0; start < n; {
		end := start + c.size
		if end >= n {
			end = n
		} else {
			end = c.boundary(runes, start, end)
		}
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			out = append(out, piece)
		}
		if end >= n {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = end
		}
		// Start the overlap on a word.
		for next < end && !unicode.IsSpace(runes[next-1]) {
			next++
		}
		start = next
	}
	return out
}

// boundary returns the best cut in (start+overlap, end]: just after the last
// separator of the highest priority found, or end for a hard cut.
func (c *Chunker) boundary(runes []rune, start, end int) int {
	lo := start + c.overlap + 1
	for _, sep := range separators {
		for i := end - len(sep); i >= lo; i-- {
			if hasPrefixAt(runes, i, sep) {
				return i + len(sep)
			}
		}
	}
	return end
}

func hasPrefixAt(runes []rune, i int, sep []rune) bool {
	if i+len(sep) > len(runes) {
		return false
	}
	for j, r := range sep {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}

// Chunk splits text into DocumentChunks belonging to docID.
func (c *Chunker) Chunk(docID, text string) []*models.DocumentChunk {
	pieces := c.Split(text)
	chunks := make([]*models.DocumentChunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = &models.DocumentChunk{
			ID:         sourceid.Chunk(docID, i),
			DocumentID: docID,
			Content:    p,
			ChunkIndex: i,
		}
	}
	return chunks
}
