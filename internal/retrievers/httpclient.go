package retrievers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/retry"
)

// maxResponseSize caps how much of a provider response is decoded.
const maxResponseSize = 10 << 20

// DefaultUserAgent is sent when no User-Agent is configured.
const DefaultUserAgent = "ResearchDesk/1.0"

// HTTPClientConfig configures the HTTP client.
type HTTPClientConfig struct {
	// Source names the provider in errors and logs.
	Source string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// RateLimit is the maximum requests per second. Ignored when MinInterval is set.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MinInterval enforces a pause between the end of one request and the
	// start of the next, instead of a token rate.
	MinInterval time.Duration

	// Retry is the backoff policy. A zero policy uses retry.Default().
	Retry retry.Policy

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// APIKey is an optional API key for authentication.
	APIKey string

	// APIKeyHeader is the header carrying the key (e.g. "x-api-key", "Authorization").
	APIKeyHeader string

	// APIKeyPrefix is prepended to the key, e.g. "Bearer ".
	APIKeyPrefix string

	Logger zerolog.Logger
}

// HTTPClient wraps http.Client with rate limiting and retries.
// It is safe for concurrent use.
type HTTPClient struct {
	client      *http.Client
	rateLimiter *RateLimiter
	config      HTTPClientConfig
}

// NewHTTPClient creates a new HTTP client with rate limiting.
// The limiter is consulted before every attempt, so retries are paced too.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 10
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = 10
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.Default()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Source == "" {
		cfg.Source = "provider"
	}

	limiter := NewRateLimiter(cfg.RateLimit, cfg.BurstSize)
	if cfg.MinInterval > 0 {
		limiter = NewIntervalLimiter(cfg.MinInterval)
	}

	return &HTTPClient{
		client:      &http.Client{Timeout: cfg.Timeout},
		rateLimiter: limiter,
		config:      cfg,
	}
}

// Policy returns the retry policy in effect.
func (c *HTTPClient) Policy() retry.Policy {
	return c.config.Retry
}

// Do executes an HTTP request with rate limiting and retries.
//
// Statuses the policy treats as retryable (429 and 5xx by default) are retried
// with exponential backoff, preferring Retry-After on 429 and 503. Terminal
// statuses are returned as *domain.ExternalAPIError with the response body
// already consumed. On success the caller owns resp.Body.
//
// Requests with a body must set GetBody to be resent on retry;
// http.NewRequest does this for bytes and strings readers.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.APIKey != "" && c.config.APIKeyHeader != "" {
		req.Header.Set(c.config.APIKeyHeader, c.config.APIKeyPrefix+c.config.APIKey)
	}

	ctx := req.Context()
	policy := c.config.Retry
	attempts := policy.Attempts()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := c.resetRequestBody(req); err != nil {
				return nil, fmt.Errorf("cannot retry request: %w", err)
			}
		}
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			c.rateLimiter.Done()
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
			}
			lastErr = domain.NewExternalAPIError(c.config.Source, 0, "request failed", err)
			if attempt < attempts-1 {
				if err := c.backoff(ctx, attempt, policy.Delay(attempt, ""), lastErr); err != nil {
					return nil, err
				}
				continue
			}
			break
		}

		resp.Body = &doneOnClose{ReadCloser: resp.Body, done: c.rateLimiter.Done}

		switch policy.Decide(resp.StatusCode) {
		case retry.Succeeded:
			return resp, nil

		case retry.Terminal:
			return nil, c.errorFromResponse(resp)

		default:
			retryAfter := ""
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
				retryAfter = resp.Header.Get("Retry-After")
			}
			lastErr = c.errorFromResponse(resp)
			if attempt < attempts-1 {
				if err := c.backoff(ctx, attempt, policy.Delay(attempt, retryAfter), lastErr); err != nil {
					return nil, err
				}
				continue
			}
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no response received")
	}
	return nil, fmt.Errorf("max retries exhausted after %d attempts: %w", attempts, lastErr)
}

// GetJSON issues a GET request and decodes the JSON body into out.
func (c *HTTPClient) GetJSON(ctx context.Context, rawURL string, header http.Header, out any) error {
	return c.SendJSON(ctx, http.MethodGet, rawURL, header, nil, out)
}

// SendJSON issues a request with an optional JSON body and decodes the JSON response into out.
func (c *HTTPClient) SendJSON(ctx context.Context, method, rawURL string, header http.Header, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return domain.NewExternalAPIError(c.config.Source, resp.StatusCode, "malformed response", err)
	}
	return nil
}

func (c *HTTPClient) backoff(ctx context.Context, attempt int, delay time.Duration, cause error) error {
	c.config.Logger.Debug().
		Err(cause).
		Str("source", c.config.Source).
		Int("attempt", attempt+1).
		Dur("delay", delay).
		Msg("retrying provider request")
	return retry.Wait(ctx, delay)
}

func (c *HTTPClient) errorFromResponse(resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		d, _ := retry.ParseRetryAfter(resp.Header.Get("Retry-After"))
		return domain.NewExternalAPIError(c.config.Source, resp.StatusCode, msg, domain.NewRateLimitError(c.config.Source, d))
	}
	return domain.NewExternalAPIError(c.config.Source, resp.StatusCode, msg, nil)
}

// resetRequestBody resets the request body for retry if possible.
func (c *HTTPClient) resetRequestBody(req *http.Request) error {
	if req.Body == nil || req.GetBody == nil {
		return nil
	}

	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("failed to get request body for retry: %w", err)
	}
	req.Body = body
	return nil
}
