// Package models defines data structures for the scraper.
package models

import "time"

// Product represents one listing extracted from a search results page.
type Product struct {
	ID       int    `csv:"id" json:"id"`
	Title    string `csv:"title" json:"title"`
	Rating   string `csv:"rating" json:"rating"`
	Reviews  int    `csv:"reviews" json:"reviews"`
	ImageURL string `csv:"image_url" json:"imageUrl"`
}

// SearchResult holds the outcome of a single keyword search.
type SearchResult struct {
	ID        string
	Keyword   string
	URL       string
	Products  []*Product
	StartTime time.Time
	Timestamp time.Time

	RegionCount  int
	DroppedCount int
}

// TotalCount is always the number of products carried by the result.
func (r *SearchResult) TotalCount() int {
	if r == nil {
		return 0
	}
	return len(r.Products)
}

// Duration reports how long the search took end to end.
func (r *SearchResult) Duration() time.Duration {
	if r == nil || r.StartTime.IsZero() || r.Timestamp.IsZero() {
		return 0
	}
	return r.Timestamp.Sub(r.StartTime)
}
