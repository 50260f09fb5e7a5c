// Package retrylimit paces calls to flaky upstreams with an adaptive rate
// limit and retries failed calls with exponential backoff.
//
// Example usage:
//
//	lim := retrylimit.New(retrylimit.Config{Rate: 2})
//	err := retrylimit.Do(ctx, lim, retrylimit.DefaultPolicy(), func(ctx context.Context) error {
//	    return search(ctx, q)
//	})
package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// Limiter
// =============================================================================

// Config describes an adaptive limiter. Zero fields take defaults derived
// from Rate.
type Config struct {
	Rate     rate.Limit    // starting calls per second
	Min      rate.Limit    // floor after repeated throttling
	Max      rate.Limit    // ceiling after repeated success
	StepUp   rate.Limit    // added after a success
	StepDown float64       // multiplier applied when throttled
	Cooldown time.Duration // no step up for this long after throttling
}

// Limiter is a rate limit that rises on success and drops when the
// upstream pushes back. Safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	lim      *rate.Limiter
	cfg      Config
	lastFail time.Time
}

func New(cfg Config) *Limiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Min <= 0 {
		cfg.Min = cfg.Rate / 4
	}
	if cfg.Max < cfg.Rate {
		cfg.Max = cfg.Rate * 2
	}
	if cfg.StepUp <= 0 {
		cfg.StepUp = cfg.Rate / 10
	}
	if cfg.StepDown <= 0 || cfg.StepDown >= 1 {
		cfg.StepDown = 0.5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 10 * time.Second
	}
	return &Limiter{
		lim: rate.NewLimiter(cfg.Rate, burstFor(cfg.Rate)),
		cfg: cfg,
	}
}

// Wait blocks until the limiter admits a call or ctx is done. A nil
// Limiter admits everything.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.lim.Wait(ctx)
}

// Succeeded nudges the rate up unless the upstream throttled recently.
func (l *Limiter) Succeeded() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if time.Since(l.lastFail) > l.cfg.Cooldown {
		l.setLocked(l.lim.Limit() + l.cfg.StepUp)
	}
}

// Throttled cuts the rate after the upstream pushed back.
func (l *Limiter) Throttled() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastFail = time.Now()
	l.setLocked(rate.Limit(float64(l.lim.Limit()) * l.cfg.StepDown))
}

// Limit returns the current calls per second.
func (l *Limiter) Limit() float64 {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return float64(l.lim.Limit())
}

func (l *Limiter) setLocked(next rate.Limit) {
	next = min(max(next, l.cfg.Min), l.cfg.Max)
	if next != l.lim.Limit() {
		l.lim.SetLimit(next)
		l.lim.SetBurst(burstFor(next))
	}
}

func burstFor(r rate.Limit) int {
	return max(1, int(r))
}

// =============================================================================
// Errors
// =============================================================================

// StatusCoder is implemented by errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

func statusOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

// Throttling reports whether err means the upstream wants us to slow down.
func Throttling(err error) bool {
	code := statusOf(err)
	return code == http.StatusTooManyRequests || (code >= 500 && code < 600)
}

// =============================================================================
// Retry
// =============================================================================

// Policy configures retries.
type Policy struct {
	Attempts   int
	Delay      time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     bool
}

// DefaultPolicy suits interactive calls: a few quick attempts.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   3,
		Delay:      300 * time.Millisecond,
		MaxDelay:   3 * time.Second,
		Multiplier: 2,
		Jitter:     true,
	}
}

// Do runs fn until it succeeds, returns a Permanent error, runs out of
// attempts, or ctx is done. Each attempt waits on lim first.
func Do(ctx context.Context, lim *Limiter, p Policy, fn func(context.Context) error) error {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}

	delay := p.Delay
	var last error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := lim.Wait(ctx); err != nil {
			return err
		}

		last = fn(ctx)
		if last == nil {
			lim.Succeeded()
			if attempt > 1 {
				log.Printf("[Retry] Success after %d attempts. Limiter=%.2f rps", attempt, lim.Limit())
			}
			return nil
		}
		if IsPermanent(last) || ctx.Err() != nil {
			return last
		}
		if Throttling(last) {
			lim.Throttled()
		}
		if attempt == p.Attempts {
			break
		}

		wait := delay
		if p.Jitter && wait > 0 {
			wait += time.Duration(rand.Int64N(int64(wait)/4 + 1))
		}
		log.Printf("[Retry] Attempt %d failed: %v. Sleeping %v", attempt, last, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
		if p.MaxDelay > 0 {
			delay = min(delay, p.MaxDelay)
		}
	}
	return fmt.Errorf("after %d attempts: %w", p.Attempts, last)
}
