package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aryal0/secondbrain/internal/llm"
	"github.com/aryal0/secondbrain/internal/log"
)

// ErrNoResults indicates no URL produced a usable summary.
var ErrNoResults = errors.New("no research results")

// summarizeArticlePrompt condenses one article before the summaries are
// combined.
const summarizeArticlePrompt = `Summarize this article in 5 bullet points max.
Focus on key facts and insights. Skip ads and irrelevant content.

Content:
%s`

// entrySeparator joins per-article summaries in the combined output.
const entrySeparator = "\n\n---\n\n"

// defaultWorkers bounds concurrent fetch+summarize operations.
const defaultWorkers = 4

// Researcher fetches articles and produces a combined summary.
type Researcher struct {
	gen     llm.TextGenerator
	fetcher Fetcher
	workers int
	logger  log.Logger
}

// Option configures a Researcher.
type Option func(*Researcher)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(r *Researcher) {
		if n > 0 {
			r.workers = n
		}
	}
}

// New creates a Researcher over the given generator and fetcher.
func New(gen llm.TextGenerator, fetcher Fetcher, logger log.Logger, opts ...Option) *Researcher {
	if logger == nil {
		logger = log.NewNop()
	}
	r := &Researcher{
		gen:     gen,
		fetcher: fetcher,
		workers: defaultWorkers,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Research fetches and summarizes every URL, then joins the summaries in
// input order with each entry carrying its source URL. Individual URL
// failures are logged and skipped; Research fails with ErrNoResults only
// when nothing succeeded.
func (r *Researcher) Research(ctx context.Context, urls []string) (string, error) {
	if len(urls) == 0 {
		return "", fmt.Errorf("%w: no urls given", ErrNoResults)
	}

	summaries := make([]string, len(urls))
	errs := make([]error, len(urls))

	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			summaries[i], errs[i] = r.summarizeURL(ctx, u)
		}()
	}
	wg.Wait()

	// Join by input index so output order never depends on completion
	// order.
	var entries []string
	for i, s := range summaries {
		if errs[i] != nil {
			r.logger.Warn("skipping url", "url", urls[i], "error", errs[i])
			continue
		}
		entries = append(entries, s)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("%w: all %d urls failed, last error: %w",
			ErrNoResults, len(urls), errs[len(errs)-1])
	}

	r.logger.Info("research complete", "urls", len(urls), "summarized", len(entries))
	return strings.Join(entries, entrySeparator), nil
}

func (r *Researcher) summarizeURL(ctx context.Context, url string) (string, error) {
	article, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	summary, err := r.gen.Generate(ctx, fmt.Sprintf(summarizeArticlePrompt, article.Text))
	if err != nil {
		return "", fmt.Errorf("summarize %q: %w", url, err)
	}
	return fmt.Sprintf("%s\n(Source: %s)", strings.TrimSpace(summary), url), nil
}
