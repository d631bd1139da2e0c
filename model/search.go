package model

// SearchMatch is a single ranked archive in a search response.
// The JSON key "md5" is kept for existing dashboard clients.
type SearchMatch struct {
	Document string  `json:"md5"`
	Score    float64 `json:"score"`
}

// SearchResult is the response body of both search endpoints.
type SearchResult struct {
	Matches []SearchMatch `json:"matches"`
	Total   int           `json:"total"`    // Number of matches returned, after filtering and limiting
	Time    int64         `json:"time"`     // milliseconds
	QueryID string        `json:"query_id"` // unique UUID for this search query
}

// IndexStats summarises the index currently being served.
type IndexStats struct {
	Documents    int     `json:"documents"`
	Terms        int     `json:"terms"`
	Pairs        int     `json:"term_document_pairs"`
	AvgDocLength float64 `json:"avg_doc_length"`
	Generation   uint64  `json:"generation"`
	LoadedAt     string  `json:"loaded_at"`
}
