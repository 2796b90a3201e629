package domain

import "time"

// OutcomeFailed marks a lookup that ended in a transport or storage error.
// It only appears in lookup events, never in a Resolution.
const OutcomeFailed Outcome = "error"

// LookupEvent describes one finished free-text lookup. It is published to
// operator dashboards and written to conversation logs.
type LookupEvent struct {
	LookupID  string    `json:"lookup_id"`
	UserID    string    `json:"user_id"`
	Query     string    `json:"query"`
	Outcome   Outcome   `json:"outcome"`
	Kind      Kind      `json:"kind,omitempty"`
	CatalogID string    `json:"catalog_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	At        time.Time `json:"at"`
}
