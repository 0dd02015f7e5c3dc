// ABOUTME: HTTP fetcher for feed documents and article pages with size and time limits
// ABOUTME: Classifies transport failures into structured error kinds instead of message sniffing

package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxResponseSize caps response bodies at 10MB.
const MaxResponseSize = 10 * 1024 * 1024

// userAgent is browser-like because some servers reject default Go agents
// or serve HTML instead of XML to unknown clients.
const userAgent = "Mozilla/5.0 (compatible; feedvault/1.0; +https://github.com/harper/feedvault)"

// acceptHeader prefers feed formats over HTML.
const acceptHeader = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/html;q=0.8"

// Result contains the response from an HTTP fetch operation.
type Result struct {
	Body        []byte
	ContentType string
}

var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

// Fetch retrieves a URL with feed-friendly headers. Non-200 statuses and
// oversized bodies return a *fetch.Error; so do transport failures, with
// the Kind classified from the underlying error chain.
func Fetch(ctx context.Context, urlStr string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Kind: KindInvalidURL, Err: err}
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Kind: Classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			URL:    urlStr,
			Kind:   KindHTTPStatus,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	limited := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, &Error{URL: urlStr, Kind: Classify(err), Err: err}
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, &Error{
			URL:  urlStr,
			Kind: KindTooLarge,
			Err:  fmt.Errorf("response exceeds %d bytes", MaxResponseSize),
		}
	}

	return &Result{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
