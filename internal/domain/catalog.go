package domain

import (
	"strconv"
	"strings"
)

// Kind tells whether a catalog identifier points at a film or a series.
type Kind string

const (
	KindFilm   Kind = "film"
	KindSeries Kind = "series"
	// KindNone is the sentinel carried by unresolved lookups.
	KindNone Kind = "none"
)

// Ref identifies a title in the catalog.
type Ref struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// NoRef is the value returned by failed identifier resolutions.
var NoRef = Ref{Kind: KindNone}

// Resolved reports whether the reference carries a real identifier.
func (r Ref) Resolved() bool {
	return r.Kind != KindNone && r.Kind != "" && r.ID != ""
}

// Metadata is the catalog payload. Every field is optional: pointers and
// nil slices keep "absent" and "null" observable.
type Metadata struct {
	Name         *string       `json:"name"`
	Poster       *Poster       `json:"poster"`
	Rating       *Rating       `json:"rating"`
	Description  *string       `json:"description"`
	Watchability *Watchability `json:"watchability"`
}

// Poster holds the poster image location.
type Poster struct {
	URL *string `json:"url"`
}

// Rating holds the two ratings shown to users.
type Rating struct {
	KP   *float64 `json:"kp"`
	IMDB *float64 `json:"imdb"`
}

// Watchability lists official viewing links. Items is nil when the catalog
// has none, which is a normal state.
type Watchability struct {
	Items []WatchLink `json:"items"`
}

// WatchLink is a single official, legal viewing link.
type WatchLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// MissingFields returns the names of the fields a render cannot do without.
func (m *Metadata) MissingFields() []string {
	if m == nil {
		return []string{"name", "poster.url", "description"}
	}
	var missing []string
	if m.Name == nil || strings.TrimSpace(*m.Name) == "" {
		missing = append(missing, "name")
	}
	if m.Poster == nil || m.Poster.URL == nil || *m.Poster.URL == "" {
		missing = append(missing, "poster.url")
	}
	if m.Description == nil {
		missing = append(missing, "description")
	}
	return missing
}

// Title returns the name or an empty string.
func (m *Metadata) Title() string {
	if m == nil || m.Name == nil {
		return ""
	}
	return *m.Name
}

// WatchLinks returns the official links, nil when there are none.
func (m *Metadata) WatchLinks() []WatchLink {
	if m == nil || m.Watchability == nil {
		return nil
	}
	return m.Watchability.Items
}

// FormatRating renders an optional rating value.
func FormatRating(v *float64) string {
	if v == nil {
		return "—"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Outcome classifies a resolution attempt.
type Outcome string

const (
	OutcomeFound     Outcome = "found"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeMalformed Outcome = "malformed"
)

// Resolution is the result of resolving a free-text query. Ref is always
// set: NoRef for not-found results, the resolved identifier otherwise.
type Resolution struct {
	Outcome  Outcome   `json:"outcome"`
	Ref      Ref       `json:"ref"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}

// Found builds a successful resolution.
func Found(ref Ref, md *Metadata) Resolution {
	return Resolution{Outcome: OutcomeFound, Ref: ref, Metadata: md}
}

// NotFound builds a not-found resolution carrying a user-facing reason.
func NotFound(reason string) Resolution {
	return Resolution{Outcome: OutcomeNotFound, Ref: NoRef, Reason: reason}
}

// Malformed builds a resolution for a catalog payload that cannot be rendered.
func Malformed(ref Ref, md *Metadata, reason string) Resolution {
	return Resolution{Outcome: OutcomeMalformed, Ref: ref, Metadata: md, Reason: reason}
}
