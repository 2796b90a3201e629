package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/cinemabot/internal/domain"
)

// NotFoundMessage is the apology shown when a query resolves to nothing.
const NotFoundMessage = "Извините, я ничего не нашёл по этому запросу 😿"

// Resolver turns a free-text query into a resolution result.
type Resolver interface {
	Resolve(ctx context.Context, query string) (domain.Resolution, error)
}

// IdentifierResolver maps a query to a catalog reference.
type IdentifierResolver interface {
	ResolveIdentifier(ctx context.Context, query string) (domain.Ref, error)
}

// MetadataFetcher loads the catalog payload for an identifier.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, id string) (*domain.Metadata, error)
}

// Options configures the default scraper and API client.
type Options struct {
	SearchURL string
	Site      string
	APIURL    string
	Token     string
	Timeout   time.Duration
	Attempts  int
}

// Service composes identifier resolution and metadata fetching.
// It keeps no per-request state and is safe for concurrent use.
type Service struct {
	identifiers IdentifierResolver
	metadata    MetadataFetcher
	logger      *slog.Logger
}

// NewService creates a resolver from its two halves.
func NewService(identifiers IdentifierResolver, metadata MetadataFetcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{identifiers: identifiers, metadata: metadata, logger: logger}
}

// New builds a Service backed by the web search scraper and the catalog API,
// sharing one HTTP client.
func New(opts Options, logger *slog.Logger) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	httpc := &http.Client{Timeout: opts.Timeout}
	return NewService(
		NewScraper(httpc, opts.SearchURL, opts.Site, opts.Attempts, logger),
		NewClient(httpc, opts.APIURL, opts.Token, opts.Attempts, logger),
		logger,
	)
}

// Resolve finds the catalog entry for query. Expected misses are reported in
// the result (NotFound or Malformed); only transport and programming errors
// are returned as errors. Metadata is never fetched for unresolved queries.
func (s *Service) Resolve(ctx context.Context, query string) (domain.Resolution, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.NotFound(NotFoundMessage), nil
	}

	ref, err := s.identifiers.ResolveIdentifier(ctx, query)
	if errors.Is(err, ErrNotFound) {
		s.logger.Debug("No catalog identifier for query", "query", query)
		return domain.NotFound(NotFoundMessage), nil
	}
	if err != nil {
		return domain.Resolution{}, err
	}

	md, err := s.metadata.FetchMetadata(ctx, ref.ID)
	if errors.Is(err, ErrMalformedPayload) {
		s.logger.Warn("Catalog returned malformed payload", "kind", ref.Kind, "catalog_id", ref.ID, "error", err)
		return domain.Malformed(ref, nil, err.Error()), nil
	}
	if err != nil {
		return domain.Resolution{}, err
	}

	if missing := md.MissingFields(); len(missing) > 0 {
		s.logger.Warn("Catalog payload is missing fields",
			"kind", ref.Kind,
			"catalog_id", ref.ID,
			"missing", missing,
		)
		return domain.Malformed(ref, md, "missing fields: "+strings.Join(missing, ", ")), nil
	}

	return domain.Found(ref, md), nil
}
