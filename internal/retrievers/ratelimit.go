package retrievers

import (
	"context"
	"io"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/helixir/research-desk/internal/retry"
)

// RateLimiter paces requests to a single provider. It is safe for concurrent
// use.
type RateLimiter struct {
	limiter     *rate.Limiter
	minInterval time.Duration

	mu       sync.Mutex
	lastDone time.Time
}

// NewRateLimiter creates a token bucket limiter.
// ratePerSecond is the sustained rate; burst is the number of requests that
// may be issued back to back. A non-positive rate disables limiting.
//
// Example configurations:
//   - NCBI without a key: NewRateLimiter(3, 1)
//   - OpenAlex polite pool: NewRateLimiter(10, 10)
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(ratePerSecond)
	if ratePerSecond <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// NewIntervalLimiter keeps at least minInterval between the end of one
// request and the start of the next. Semantic Scholar uses it to pause one
// second after every page and query.
func NewIntervalLimiter(minInterval time.Duration) *RateLimiter {
	if minInterval <= 0 {
		return NewRateLimiter(0, 1)
	}
	return &RateLimiter{
		limiter:     rate.NewLimiter(rate.Every(minInterval), 1),
		minInterval: minInterval,
	}
}

// Wait blocks until a request is allowed or the context is canceled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	if r.minInterval <= 0 {
		return nil
	}

	r.mu.Lock()
	gap := time.Until(r.lastDone.Add(r.minInterval))
	r.mu.Unlock()
	if gap <= 0 {
		return nil
	}
	return retry.Wait(ctx, gap)
}

// Done marks the end of a request. An interval limiter measures its next
// pause from this point.
func (r *RateLimiter) Done() {
	r.mu.Lock()
	r.lastDone = time.Now()
	r.mu.Unlock()
}

// doneOnClose calls done once the response body is closed.
type doneOnClose struct {
	io.ReadCloser
	once sync.Once
	done func()
}

func (b *doneOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.done)
	return err
}
