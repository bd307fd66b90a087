package models

import "fmt"

const (
	// DefaultTopK is the number of chunks retrieved for a question when none is given.
	DefaultTopK = 3
	// MaxTopK caps how many chunks a single knowledge query may return.
	MaxTopK = 20
)

// SearchQuery is a nearest-neighbor lookup against the knowledge base.
type SearchQuery struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// Validate rejects an empty query and clamps K into [1, MaxTopK], defaulting to DefaultTopK.
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.K <= 0 {
		q.K = DefaultTopK
	}
	if q.K > MaxTopK {
		q.K = MaxTopK
	}
	return nil
}
