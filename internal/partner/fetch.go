package partner

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pyankovzhe/market-backend/pkg/config"
)

// Fetcher retrieves a price-list document from a partner URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTPFetcher downloads price lists over HTTP with a deadline and a hard
// response-size cap.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPFetcher builds a fetcher from the sync configuration.
func NewHTTPFetcher(cfg config.SyncConfig) *HTTPFetcher {
	return &HTTPFetcher{
		client:   &http.Client{Timeout: cfg.FetchTimeout},
		maxBytes: cfg.MaxBodyBytes,
	}
}

// ValidateSourceURL checks the URL is absolute http(s).
func ValidateSourceURL(rawURL string) error {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("url host is required")
	}
	return nil
}

// Fetch downloads the document, refusing bodies over the configured cap.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/x-yaml, text/yaml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching price list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from partner url", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, f.maxBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("reading price list body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("price list exceeds %d bytes", f.maxBytes)
	}
	return data, nil
}
