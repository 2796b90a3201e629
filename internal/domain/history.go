// Package domain contains core domain types for cinemabot.
package domain

// HistoryRecord is one logged lookup: a user successfully resolved a title.
// Rows are append-only; Count is always 1 at insert and is summed at read time.
type HistoryRecord struct {
	UserID string
	Title  string
	Count  int
}

// TitleCount is an aggregated statistics row.
type TitleCount struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}
