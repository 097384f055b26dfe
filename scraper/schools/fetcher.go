package schools

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"medschool-scraper/extractor"
)

// Fetcher retrieves one page. Implementations must honour ctx.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (extractor.Document, error)
}

// HTTPFetcher fetches static pages over plain HTTP.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher returns a fetcher that identifies itself with userAgent and
// gives up on a single request after timeout. Retries are left to the caller.
func NewHTTPFetcher(userAgent string, timeout time.Duration) *HTTPFetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (extractor.Document, error) {
	res, err := f.client.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("http: get %s: %w", pageURL, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("http: get %s: unexpected status %d", pageURL, res.StatusCode())
	}

	// Record the address we ended up at after redirects.
	finalURL := pageURL
	if raw := res.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		finalURL = raw.Request.URL.String()
	}
	doc, err := extractor.ParseHTML(finalURL, res.Body())
	if err != nil {
		return nil, err
	}
	return doc, nil
}
