// Package keyword provides the full-text fallback over knowledge chunks.
package keyword

import "context"

// Entry is what gets indexed for one chunk.
type Entry struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SearchOptions tunes a keyword search. Nil means a plain match query.
type SearchOptions struct {
	// TitleBoost multiplies the score of matches in the source title. Values <= 1 disable it.
	TitleBoost float64
	// Fuzziness is the Levenshtein edit distance allowed per term (1 or 2). 0 disables fuzzy matching.
	Fuzziness int
}

// Index is a keyword index keyed by chunk ID.
type Index interface {
	Index(ctx context.Context, id string, entry Entry) error
	IndexBatch(ctx context.Context, entries map[string]Entry) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error)
	Delete(ctx context.Context, ids []string) error
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword hit.
type Result struct {
	ID    string
	Score float64
}
