// Package http provides an HTTP-based implementation of poesaver.Fetcher
// that presents itself as a desktop browser and rejects pages that are
// unlikely to be a usable share page.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/fwojciec/poesaver"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 30 * time.Second

// Body sanity thresholds.
const (
	MinBodyLength      = 1000
	deniedWindow       = 500
	printableWindow    = 1000
	minPrintableRatio  = 0.8
	maxBodyBytes int64 = 32 << 20
)

// browserHeaders are sent with every request. Accept-Encoding is left to
// the transport so that compressed bodies are decoded transparently.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
	"Accept-Language":           "en-US,en;q=0.9",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Sec-Ch-Ua":                 `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
	"Sec-Ch-Ua-Mobile":          "?0",
	"Sec-Ch-Ua-Platform":        `"macOS"`,
	"Cache-Control":             "max-age=0",
}

// Ensure Fetcher implements poesaver.Fetcher at compile time.
var _ poesaver.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML content from URLs using plain HTTP requests.
// It does not execute JavaScript.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	headers map[string]string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (30s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithHeader overrides or adds a request header.
func WithHeader(key, value string) Option {
	return func(f *Fetcher) {
		f.headers[key] = value
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: DefaultFetchTimeout,
		headers: make(map[string]string, len(browserHeaders)),
	}
	for k, v := range browserHeaders {
		f.headers[k] = v
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the HTML content from the given URL.
// Transport failures and non-200 statuses are returned as plain errors.
// Bodies that fail the sanity checks are returned as EINVALID errors since
// retrying will not change them.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", poesaver.Errorf(poesaver.EINVALID, "invalid request for %s: %v", url, err)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}

	html := string(body)
	if err := CheckBody(html); err != nil {
		return "", poesaver.Errorf(poesaver.EINVALID, "%s: %s", url, poesaver.ErrorMessage(err))
	}
	return html, nil
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

// CheckBody reports whether html looks like a complete, readable page.
func CheckBody(html string) error {
	n := utf8.RuneCountInString(html)
	if n < MinBodyLength {
		return poesaver.Errorf(poesaver.EINVALID, "content too short: %d characters", n)
	}

	head := prefixRunes(html, deniedWindow)
	if strings.Contains(head, "403") || strings.Contains(head, "Access Denied") {
		return poesaver.Errorf(poesaver.EINVALID, "access denied by server")
	}

	window := prefixRunes(html, printableWindow)
	total, printable := 0, 0
	for _, r := range window {
		total++
		if r != utf8.RuneError && (unicode.IsPrint(r) || unicode.IsSpace(r)) {
			printable++
		}
	}
	if float64(printable)/float64(total) < minPrintableRatio {
		return poesaver.Errorf(poesaver.EINVALID, "content appears corrupted or encoded; try saving the page manually and using --local-file")
	}

	lower := strings.ToLower(html)
	if !strings.Contains(lower, "<html") || !strings.Contains(lower, "</html>") {
		return poesaver.Errorf(poesaver.EINVALID, "content does not look like a complete HTML document")
	}
	return nil
}

func prefixRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
