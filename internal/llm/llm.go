// Package llm wraps the language-model dependency behind a small generation
// interface so the pipeline, query engine and research components stay
// testable with a deterministic fake.
//
// The production implementation (Client) sits on Genkit with the provider
// plugin chosen in config, rate-limits each call, and applies a bounded
// exponential-backoff retry policy to transient failures.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/aryal0/secondbrain/internal/log"
)

// ErrEmptyResponse indicates the model returned no text content.
var ErrEmptyResponse = errors.New("empty response from model")

// TextGenerator is the capability consumed by every component that needs a
// model completion. Implementations must be safe for concurrent use.
type TextGenerator interface {
	// Generate returns the model's text completion for prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client is the production TextGenerator over Genkit.
type Client struct {
	g           *genkit.Genkit
	modelName   string
	temperature float32
	limiter     *rate.Limiter
	retry       RetryConfig
	logger      log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit installs a limiter applied to every attempt (including
// retries), expressed as requests per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetryConfig overrides the default retry policy.
func WithRetryConfig(rc RetryConfig) Option {
	return func(c *Client) {
		c.retry = rc
	}
}

// WithTemperature sets the sampling temperature. Default is 0 so that
// summarization and classification stay as stable as the provider allows.
func WithTemperature(t float32) Option {
	return func(c *Client) {
		c.temperature = t
	}
}

// NewClient creates a Client for the given Genkit instance and model name.
// The model name is provider-prefixed, e.g. "googleai/gemini-2.5-flash".
func NewClient(g *genkit.Genkit, modelName string, logger log.Logger, opts ...Option) (*Client, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	c := &Client{
		g:         g,
		modelName: modelName,
		retry:     DefaultRetryConfig(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate implements TextGenerator with rate limiting and bounded retry.
// Transient provider errors and empty responses are retried up to the
// configured attempt budget; the last error is surfaced when the budget
// is exhausted.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	delay := c.retry.InitialInterval
	start := time.Now()

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("rate limit wait: %w", err)
			}
		}

		text, err := c.generateOnce(ctx, prompt)
		if err == nil {
			c.logger.Debug("generation succeeded",
				"attempts", attempt,
				"elapsed", time.Since(start),
			)
			return text, nil
		}
		lastErr = err

		// Empty responses are treated as transient; anything the
		// provider marks permanent fails immediately.
		if !retryableError(err) && !errors.Is(err, ErrEmptyResponse) {
			return "", fmt.Errorf("generate: %w", err)
		}
		if attempt == c.retry.MaxAttempts {
			break
		}

		c.logger.Debug("retrying after error",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, c.retry.MaxInterval)
		}
	}

	return "", fmt.Errorf("generate after %d attempts (elapsed: %v): %w",
		c.retry.MaxAttempts, time.Since(start), lastErr)
}

func (c *Client) generateOnce(ctx context.Context, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithPrompt(prompt),
		ai.WithConfig(map[string]any{"temperature": c.temperature}),
	)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
