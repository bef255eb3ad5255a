package transport

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidMaxAttempts  = errors.New("max attempts must be at least 1")
	ErrNegativeDelay       = errors.New("delays must not be negative")
	ErrInvalidMultiplier   = errors.New("backoff multiplier must be at least 1")
	ErrInvalidJitterFactor = errors.New("jitter factor must be within [0, 1]")
)

// RetryPolicy controls how failed requests are retried.
type RetryPolicy struct {
	// MaxAttempts counts the first attempt. 1 disables retries.
	MaxAttempts          int
	InitialDelay         time.Duration
	Multiplier           float64
	MaxDelay             time.Duration
	RetryableStatuses    []int
	RetryOnNetworkErrors bool
	// JitterFactor adds up to this fraction of the delay at random.
	JitterFactor float64
}

// DefaultRetryPolicy retries transient statuses and network errors up to
// three attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		Multiplier:   2,
		MaxDelay:     5 * time.Second,
		RetryableStatuses: []int{
			http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
		RetryOnNetworkErrors: true,
	}
}

// NoRetry performs every request exactly once.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1, Multiplier: 1}
}

type RetryOption func(*RetryPolicy)

func WithMaxAttempts(n int) RetryOption {
	return func(p *RetryPolicy) { p.MaxAttempts = n }
}

func WithInitialDelay(d time.Duration) RetryOption {
	return func(p *RetryPolicy) { p.InitialDelay = d }
}

func WithMaxDelay(d time.Duration) RetryOption {
	return func(p *RetryPolicy) { p.MaxDelay = d }
}

func WithMultiplier(m float64) RetryOption {
	return func(p *RetryPolicy) { p.Multiplier = m }
}

func WithRetryableStatuses(statuses ...int) RetryOption {
	return func(p *RetryPolicy) { p.RetryableStatuses = slices.Clone(statuses) }
}

func WithNetworkErrorRetries(enabled bool) RetryOption {
	return func(p *RetryPolicy) { p.RetryOnNetworkErrors = enabled }
}

func WithJitter(factor float64) RetryOption {
	return func(p *RetryPolicy) { p.JitterFactor = factor }
}

// NewRetryPolicy applies opts over DefaultRetryPolicy and validates the result.
func NewRetryPolicy(opts ...RetryOption) (RetryPolicy, error) {
	p := DefaultRetryPolicy()
	for _, opt := range opts {
		opt(&p)
	}
	if err := p.Validate(); err != nil {
		return RetryPolicy{}, err
	}
	return p, nil
}

func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if p.InitialDelay < 0 || p.MaxDelay < 0 {
		return ErrNegativeDelay
	}
	if p.Multiplier < 1 {
		return ErrInvalidMultiplier
	}
	if p.JitterFactor < 0 || p.JitterFactor > 1 {
		return ErrInvalidJitterFactor
	}
	return nil
}

// Delay returns the wait before retry number attempt (1-indexed).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if base > float64(p.MaxDelay) {
		base = float64(p.MaxDelay)
	}
	d := time.Duration(base)
	if p.JitterFactor > 0 && d > 0 {
		if span := int64(float64(d) * p.JitterFactor); span > 0 {
			d += time.Duration(rand.Int64N(span))
		}
	}
	return d
}

func (p RetryPolicy) retryableStatus(code int) bool {
	return slices.Contains(p.RetryableStatuses, code)
}

// shouldRetry reports whether err, returned by one attempt, may be retried.
func (p RetryPolicy) shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if IsRetryable(err) {
		return true
	}
	var netErr *NetworkError
	return p.RetryOnNetworkErrors && errors.As(err, &netErr)
}

// wait returns the delay before retry number attempt given the last error.
// A 429 with Retry-After uses the server's value, capped at MaxDelay.
func (p RetryPolicy) wait(attempt int, err error) time.Duration {
	var retryErr *RetryableError
	if errors.As(err, &retryErr) && retryErr.StatusCode == http.StatusTooManyRequests && retryErr.RetryAfter > 0 {
		return min(retryErr.RetryAfter, p.MaxDelay)
	}
	return p.Delay(attempt)
}

// parseRetryAfter accepts delay-seconds or an HTTP date. It returns 0 when
// the value is absent, malformed or in the past.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d.Truncate(time.Second)
		}
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
