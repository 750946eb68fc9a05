package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Article is the extracted content of one fetched page.
type Article struct {
	URL   string
	Title string
	Text  string
}

// Fetcher retrieves and extracts one article. Implementations must be
// safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Article, error)
}

const (
	// maxFetchSize caps a response body at 5MB.
	maxFetchSize = int64(5 * 1024 * 1024)

	defaultFetchTimeout = 30 * time.Second

	userAgent = "secondbrain-research/1.0"
)

// HTTPFetcher fetches pages over HTTP and extracts the readable article
// text, falling back to a plain goquery text extraction when readability
// cannot find an article.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher. A nil client gets a default
// with a 30 second timeout.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &HTTPFetcher{client: client}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Article, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Article{}, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Article{}, fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Article{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Article{}, fmt.Errorf("fetch %q: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Article{}, fmt.Errorf("fetch %q: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return Article{}, fmt.Errorf("read body of %q: %w", rawURL, err)
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return Article{
			URL:   rawURL,
			Title: article.Title,
			Text:  strings.TrimSpace(article.TextContent),
		}, nil
	}

	return fallbackExtract(rawURL, string(body))
}

// fallbackExtract pulls the title and visible text straight out of the
// DOM for pages readability cannot handle.
func fallbackExtract(rawURL, html string) (Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Article{}, fmt.Errorf("parse html of %q: %w", rawURL, err)
	}

	doc.Find("script, style, noscript").Remove()
	text := strings.TrimSpace(doc.Find("body").Text())
	if text == "" {
		return Article{}, fmt.Errorf("no text content in %q", rawURL)
	}

	return Article{
		URL:   rawURL,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Text:  text,
	}, nil
}
