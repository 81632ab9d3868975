// Package llm provides domain.TextGenerator implementations backed by hosted models.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"skillswap/internal/adapters/observability"
	"skillswap/internal/domain"
)

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"

	defaultGeminiModel    = "gemini-1.5-pro"
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
)

type Config struct {
	Provider       string
	GeminiKey      string
	GeminiModel    string
	AnthropicKey   string
	AnthropicModel string
	BaseURL        string // overrides the provider endpoint; tests point it at httptest
	RPS            int
	MaxRetries     int
	Timeout        time.Duration
}

// New builds the configured generator wrapped with rate limiting, retries and metrics.
// A missing credential or unknown provider is a configuration error.
func New(ctx context.Context, cfg Config) (domain.TextGenerator, error) {
	var (
		base caller
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("%w: gemini API key is required", domain.ErrGeneratorNotConfigured)
		}
		base, err = newGemini(ctx, cfg.GeminiKey, orDefault(cfg.GeminiModel, defaultGeminiModel), cfg.BaseURL)
	case ProviderAnthropic:
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("%w: anthropic API key is required", domain.ErrGeneratorNotConfigured)
		}
		base = newAnthropic(cfg.AnthropicKey, orDefault(cfg.AnthropicModel, defaultAnthropicModel), cfg.BaseURL)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrGeneratorNotConfigured, cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneratorNotConfigured, err)
	}
	return newClient(base, cfg), nil
}

// caller is a single provider round trip with no retry policy of its own.
type caller interface {
	name() string
	call(ctx context.Context, prompt string) (string, error)
}

// Client applies client-side rate limiting, per-attempt timeouts and retries
// around a provider caller.
type Client struct {
	base       caller
	rl         *rate.Limiter
	maxRetries int
	timeout    time.Duration
	backoff    func(attempt int) time.Duration
}

func newClient(base caller, cfg Config) *Client {
	rps := cfg.RPS
	if rps <= 0 {
		rps = 5
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		base:       base,
		rl:         rate.NewLimiter(rate.Limit(rps), rps),
		maxRetries: retries,
		timeout:    timeout,
		backoff:    backoff,
	}
}

func (c *Client) Name() string { return c.base.name() }

// Generate retries on 429, transient 5xx and network errors, honoring Retry-After when provided.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if err := c.rl.Wait(ctx); err != nil {
			return "", err
		}

		start := time.Now()
		actx, cancel := context.WithTimeout(ctx, c.timeout)
		text, err := c.base.call(actx, prompt)
		cancel()
		observability.ObserveExternal(c.base.name(), "generate", statusOf(err), time.Since(start))
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
		if !retryable(err) || i == c.maxRetries {
			break
		}

		wait := retryAfterOf(err)
		if wait == 0 {
			wait = c.backoff(i)
		}
		if !sleepCtx(ctx, wait) {
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

// StatusError carries the provider's HTTP status for retry classification.
type StatusError struct {
	Code       int
	RetryAfter time.Duration
	Err        error
}

func (e *StatusError) Error() string { return fmt.Sprintf("remote %d: %v", e.Code, e.Err) }
func (e *StatusError) Unwrap() error { return e.Err }

var errEmptyResponse = errors.New("llm: empty model response")

func statusOf(err error) int {
	if err == nil {
		return 200
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func retryable(err error) bool {
	if errors.Is(err, errEmptyResponse) {
		return false
	}
	switch code := statusOf(err); {
	case code == 0:
		return true // network error or per-attempt timeout
	case code == 429, code >= 500:
		return true
	default:
		return false
	}
}

func retryAfterOf(err error) time.Duration {
	var se *StatusError
	if errors.As(err, &se) {
		return se.RetryAfter
	}
	return 0
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
