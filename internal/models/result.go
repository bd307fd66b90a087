package models

// SearchResult is a single retrieved chunk with its similarity score.
type SearchResult struct {
	Chunk         *DocumentChunk `json:"chunk"`
	DocumentTitle string         `json:"document_title,omitempty"`
	Score         float64        `json:"score"`
	Rank          int            `json:"rank"`
	// Source is "semantic" for vector hits and "keyword" when the keyword index answered.
	Source string `json:"source"`
}

// SearchResponse is the response for a knowledge-base lookup.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
}
