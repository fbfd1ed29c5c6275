package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
)

// Limit type names, also persisted as the limit_type column of the
// fallback counter table.
const (
	TypeSustained = "sustained"
	TypeBurst     = "burst"
)

// CounterStore increments a fixed-window counter. The first increment of
// a window starts its expiry clock. Implementations return the count
// after increment and the time remaining until the window resets.
type CounterStore interface {
	Increment(ctx context.Context, identifier, limitType string, window time.Duration) (count int64, remaining time.Duration, err error)
}

// Window is one fixed-window limit.
type Window struct {
	Type     string
	Max      int64
	Duration time.Duration
}

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed    bool
	Violated   string
	RetryAfter time.Duration
}

// Limiter enforces a sustained and a burst window per identifier.
// Counters are incremented before the limits are compared and are never
// rolled back on rejection, so probing while limited extends the block.
type Limiter struct {
	primary   CounterStore
	fallback  CounterStore
	sustained Window
	burst     Window
	log       zerolog.Logger
}

// Config holds the two window definitions.
type Config struct {
	SustainedMax    int64
	SustainedWindow time.Duration
	BurstMax        int64
	BurstWindow     time.Duration
}

// NewLimiter builds a limiter. fallback may be nil; when present it is
// consulted only if the primary store fails.
func NewLimiter(primary, fallback CounterStore, cfg Config, log zerolog.Logger) *Limiter {
	return &Limiter{
		primary:   primary,
		fallback:  fallback,
		sustained: Window{Type: TypeSustained, Max: cfg.SustainedMax, Duration: cfg.SustainedWindow},
		burst:     Window{Type: TypeBurst, Max: cfg.BurstMax, Duration: cfg.BurstWindow},
		log:       log.With().Str("component", "rate-limiter").Logger(),
	}
}

// Check increments both windows for the identifier and reports whether
// the request may proceed. When both windows are exceeded the longer
// retry-after wins.
func (l *Limiter) Check(ctx context.Context, identifier string) (Decision, error) {
	decision := Decision{Allowed: true}

	for _, window := range []Window{l.sustained, l.burst} {
		count, remaining, err := l.increment(ctx, identifier, window)
		if err != nil {
			return Decision{}, err
		}
		if count <= window.Max {
			continue
		}
		// Any over-limit window rejects, even when the store reports no
		// remaining wait. The longer retry-after wins when both violate.
		if decision.Allowed || remaining > decision.RetryAfter {
			decision.Violated = window.Type
			decision.RetryAfter = remaining
		}
		decision.Allowed = false
	}

	if !decision.Allowed {
		l.log.Warn().
			Str("identifier", identifier).
			Str("window", decision.Violated).
			Dur("retry_after", decision.RetryAfter).
			Msg("rate limit exceeded")
	}
	return decision, nil
}

// WaitAndCheck retries a rejected check up to maxAttempts times, sleeping
// for the reported retry-after between attempts. Each attempt increments
// the counters again. The loop is bounded and honors ctx cancellation.
func (l *Limiter) WaitAndCheck(ctx context.Context, identifier string, maxAttempts int) (Decision, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var decision Decision
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		decision, err = l.Check(ctx, identifier)
		if err != nil || decision.Allowed {
			return decision, err
		}
		if attempt == maxAttempts-1 {
			break
		}

		timer := time.NewTimer(decision.RetryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Decision{}, apperrors.Wrap(apperrors.KindRateLimit, "wait for rate limit window", ctx.Err())
		case <-timer.C:
		}
	}
	return decision, nil
}

func (l *Limiter) increment(ctx context.Context, identifier string, window Window) (int64, time.Duration, error) {
	count, remaining, err := l.primary.Increment(ctx, identifier, window.Type, window.Duration)
	if err == nil {
		return count, remaining, nil
	}
	if l.fallback == nil {
		return 0, 0, err
	}

	l.log.Warn().Err(err).
		Str("identifier", identifier).
		Str("window", window.Type).
		Msg("primary counter store failed, using fallback")

	count, remaining, err = l.fallback.Increment(ctx, identifier, window.Type, window.Duration)
	if err != nil {
		return 0, 0, apperrors.Wrap(apperrors.KindRateLimit, "increment fallback counter", err)
	}
	return count, remaining, nil
}
