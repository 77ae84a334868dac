package domain

import "sort"

// SearchResult represents a single scored match from one namespace.
type SearchResult struct {
	// ID is the original document ID from the stored payload.
	ID string `json:"id"`

	// Text is the matched content.
	Text string `json:"text"`

	// Score is the similarity score, higher is better.
	Score float64 `json:"score"`

	// Context is the metadata stored with the document.
	Context Context `json:"context,omitempty"`

	// Namespace is the namespace the match came from.
	Namespace string `json:"namespace"`
}

// SortResultsByScore orders results by score descending. The sort is
// stable: ties keep their discovery order.
func SortResultsByScore(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
