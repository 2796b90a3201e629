// Package catalog resolves free-text queries to catalog titles: a search-page
// scraper finds the identifier, an API client fetches the metadata.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxBodyBytes     = 4 << 20
	retryBaseDelay   = 300 * time.Millisecond
)

// TransportError reports a failed call to the search engine or catalog API:
// a network failure or a server-side (5xx) answer that survived all retries.
type TransportError struct {
	Op         string // "search" or "catalog"
	Host       string
	StatusCode int // 0 for network failures
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.Host, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Host, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// fetcher performs GET requests with bounded retries on transport failures.
type fetcher struct {
	httpc     *http.Client
	userAgent string
	attempts  uint
	logger    *slog.Logger
}

func newFetcher(httpc *http.Client, attempts int, logger *slog.Logger) fetcher {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if attempts <= 0 {
		attempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return fetcher{
		httpc:     httpc,
		userAgent: defaultUserAgent,
		attempts:  uint(attempts),
		logger:    logger,
	}
}

// get returns the body of any answer below 500. Server errors and network
// failures are retried and finally reported as *TransportError.
func (f fetcher) get(ctx context.Context, op, rawURL string) ([]byte, int, error) {
	type result struct {
		body   []byte
		status int
	}

	res, err := retry.DoWithData(
		func() (result, error) {
			body, status, err := f.getOnce(ctx, op, rawURL)
			return result{body: body, status: status}, err
		},
		retry.Context(ctx),
		retry.Attempts(f.attempts),
		retry.Delay(retryBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var te *TransportError
			return errors.As(err, &te)
		}),
		retry.OnRetry(func(n uint, err error) {
			f.logger.Warn("catalog request failed, retrying", "op", op, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, 0, err
	}
	return res.body, res.status, nil
}

func (f fetcher) getOnce(ctx context.Context, op, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, retry.Unrecoverable(fmt.Errorf("build %s request: %w", op, err))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en;q=0.8")

	resp, err := f.httpc.Do(req)
	if err != nil {
		// *url.Error repeats the request URL, which carries the API token.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, 0, &TransportError{Op: op, Host: req.URL.Host, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.logger.Debug("failed to close response body", "op", op, "error", closeErr)
		}
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, resp.StatusCode, &TransportError{Op: op, Host: req.URL.Host, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, &TransportError{Op: op, Host: req.URL.Host, Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		f.logger.Warn("catalog request answered with client error", "op", op, "host", req.URL.Host, "status", resp.StatusCode)
	}
	return body, resp.StatusCode, nil
}
