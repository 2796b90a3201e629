package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ashureev/cinemabot/internal/domain"
)

// identifierWindow is how many bytes after the start of a marker are
// inspected for the identifier segment.
const identifierWindow = 40

// ErrNotFound is returned when the search page holds no usable catalog link.
var ErrNotFound = errors.New("catalog identifier not found")

// markerOrder is the order in which path markers are searched for.
// A series link anywhere in the page wins over any film link.
var markerOrder = []domain.Kind{domain.KindSeries, domain.KindFilm}

// Scraper finds catalog identifiers by searching the web for the query
// restricted to the catalog site and scanning the raw result markup.
type Scraper struct {
	fetcher   fetcher
	searchURL string
	site      string
}

// NewScraper creates a search-page scraper.
func NewScraper(httpc *http.Client, searchURL, site string, attempts int, logger *slog.Logger) *Scraper {
	return &Scraper{
		fetcher:   newFetcher(httpc, attempts, logger),
		searchURL: searchURL,
		site:      site,
	}
}

// ResolveIdentifier searches for query and returns the first catalog
// reference found in the results. It returns domain.NoRef and ErrNotFound
// when no marker is present or the identifier is not numeric.
func (s *Scraper) ResolveIdentifier(ctx context.Context, query string) (domain.Ref, error) {
	u, err := url.Parse(s.searchURL)
	if err != nil {
		return domain.NoRef, fmt.Errorf("parse search url: %w", err)
	}
	q := u.Query()
	q.Set("q", query+" site:"+s.site)
	u.RawQuery = q.Encode()

	body, _, err := s.fetcher.get(ctx, "search", u.String())
	if err != nil {
		return domain.NoRef, err
	}

	ref, ok := ExtractIdentifier(string(body), s.site)
	if !ok {
		return domain.NoRef, ErrNotFound
	}
	return ref, nil
}

// ExtractIdentifier scans markup for "<site>/series/<id>" and then
// "<site>/film/<id>". Only the first occurrence of the first marker found is
// considered; if its identifier segment is not all digits the scan fails
// without falling back to the other marker.
func ExtractIdentifier(markup, site string) (domain.Ref, bool) {
	for _, kind := range markerOrder {
		marker := site + "/" + string(kind) + "/"
		idx := strings.Index(markup, marker)
		if idx == -1 {
			continue
		}

		start := idx + len(marker)
		end := min(idx+identifierWindow, len(markup))
		if end <= start {
			return domain.NoRef, false
		}
		candidate, _, _ := strings.Cut(markup[start:end], "/")
		if !isDigits(candidate) {
			return domain.NoRef, false
		}
		return domain.Ref{Kind: kind, ID: candidate}, true
	}
	return domain.NoRef, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
