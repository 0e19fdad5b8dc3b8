package vertrans

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures a RateLimiter.
type RateLimitConfig struct {
	RequestsPerMinute int // Request budget (default 60)
	BurstSize         int // Requests available at once (default: RequestsPerMinute)

	// CharactersPerMinute additionally caps the volume of source text sent.
	// DeepL quotas are counted in characters. 0 disables the cap.
	CharactersPerMinute int
}

// RateLimiter keeps provider calls within a request budget and, when
// configured, a character budget. One limiter may be shared by several
// providers so they draw from the same quota.
type RateLimiter struct {
	mu       sync.Mutex
	requests *rate.Limiter
	chars    *rate.Limiter // nil when characters are not limited
	now      func() time.Time
}

// NewRateLimiter creates a rate limiter with full buckets.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = rpm
	}

	r := &RateLimiter{requests: rate.NewLimiter(perMinute(rpm), burst), now: time.Now}
	if cfg.CharactersPerMinute > 0 {
		r.chars = rate.NewLimiter(perMinute(cfg.CharactersPerMinute), cfg.CharactersPerMinute)
	}
	return r
}

func perMinute(n int) rate.Limit {
	return rate.Limit(float64(n) / 60)
}

// shortfall returns how long until lim holds n tokens at now.
func shortfall(lim *rate.Limiter, n int, now time.Time) time.Duration {
	missing := float64(n) - lim.TokensAt(now)
	if missing <= 0 {
		return 0
	}
	d := time.Duration(missing / float64(lim.Limit()) * float64(time.Second))
	return max(d, time.Millisecond)
}

// reserve takes one request and chars characters if both are available.
// Otherwise it returns how long to wait before trying again.
func (r *RateLimiter) reserve(chars int) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	wait := shortfall(r.requests, 1, now)

	var need int
	if r.chars != nil {
		// A text larger than the whole budget waits for a full bucket
		need = min(chars, r.chars.Burst())
		wait = max(wait, shortfall(r.chars, need, now))
	}
	if wait > 0 {
		return wait, false
	}

	r.requests.AllowN(now, 1)
	if r.chars != nil && need > 0 {
		r.chars.AllowN(now, need)
	}
	return 0, true
}

// Wait blocks until a request carrying chars characters may be sent, or
// ctx is done.
func (r *RateLimiter) Wait(ctx context.Context, chars int) error {
	for {
		wait, ok := r.reserve(chars)
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire takes budget for a request of chars characters without blocking.
func (r *RateLimiter) TryAcquire(chars int) bool {
	_, ok := r.reserve(chars)
	return ok
}

// Available returns the number of requests that could be sent right now.
func (r *RateLimiter) Available() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests.TokensAt(r.now())
}

// RateLimitedProvider wraps a Provider with rate limiting.
type RateLimitedProvider struct {
	provider Provider
	limiter  *RateLimiter
}

// NewRateLimitedProvider creates a provider with its own limiter.
func NewRateLimitedProvider(provider Provider, cfg RateLimitConfig) *RateLimitedProvider {
	return NewRateLimitedProviderWithLimiter(provider, NewRateLimiter(cfg))
}

// NewRateLimitedProviderWithLimiter wraps provider with an existing limiter,
// so several providers can share one request budget.
func NewRateLimitedProviderWithLimiter(provider Provider, limiter *RateLimiter) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  limiter,
	}
}

// Translate waits for budget covering the request text, then calls the
// wrapped provider.
func (p *RateLimitedProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	if err := p.limiter.Wait(ctx, utf8.RuneCountInString(req.Text)); err != nil {
		return "", &ProviderError{
			Message: "rate limit wait cancelled",
			Cause:   err,
		}
	}

	return p.provider.Translate(ctx, req)
}

// Limiter returns the underlying rate limiter for inspection.
func (p *RateLimitedProvider) Limiter() *RateLimiter {
	return p.limiter
}
