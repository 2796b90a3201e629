package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ashureev/cinemabot/internal/domain"
)

// selectFields is the fixed field selection requested from the catalog API.
const selectFields = "name poster rating description watchability"

// ErrMalformedPayload is returned when the catalog answers with something
// that is not a JSON object.
var ErrMalformedPayload = errors.New("catalog payload is not a JSON object")

// Client fetches title metadata from the catalog API.
type Client struct {
	fetcher fetcher
	apiURL  string
	token   string
}

// NewClient creates a catalog API client.
func NewClient(httpc *http.Client, apiURL, token string, attempts int, logger *slog.Logger) *Client {
	return &Client{
		fetcher: newFetcher(httpc, attempts, logger),
		apiURL:  apiURL,
		token:   token,
	}
}

// FetchMetadata performs a single catalog lookup by identifier and returns
// the decoded payload without validating its shape.
func (c *Client) FetchMetadata(ctx context.Context, id string) (*domain.Metadata, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	q := u.Query()
	q.Set("token", c.token)
	q.Set("search", id)
	q.Set("field", "id")
	q.Set("selectFields", selectFields)
	u.RawQuery = q.Encode()

	body, _, err := c.fetcher.get(ctx, "catalog", u.String())
	if err != nil {
		return nil, err
	}

	var md domain.Metadata
	if err := json.Unmarshal(body, &md); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &md, nil
}
