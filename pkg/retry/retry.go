// pkg/retry/retry.go
package retry

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Policy describes a capped exponential backoff schedule.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultPolicy is the schedule used by both the connection-acquire and
// chunk-load paths: 5 attempts, 2s initial delay, doubling, capped at 60s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  5,
		InitialDelay: 2 * time.Second,
		MaxDelay:     60 * time.Second,
	}
}

// transientSignatures is the fixed whitelist of error-message fragments that
// identify retryable infrastructure failures. Anything else propagates
// immediately.
var transientSignatures = []string{
	"lost connection",
	"connection",
	"timeout",
	"gone away",
	"server has gone away",
	"broken pipe",
	"network",
}

// IsTransient reports whether an error matches the transient whitelist.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// Retrier runs operations under a shared backoff policy and transient
// classifier.
type Retrier struct {
	policy      Policy
	isTransient func(error) bool
	sleep       func(time.Duration)
	logger      *zap.Logger
}

// New creates a Retrier with the default policy and transient classifier.
func New(logger *zap.Logger) *Retrier {
	return &Retrier{
		policy:      DefaultPolicy(),
		isTransient: IsTransient,
		sleep:       time.Sleep,
		logger:      logger,
	}
}

// WithPolicy overrides the backoff schedule.
func (r *Retrier) WithPolicy(policy Policy) *Retrier {
	r.policy = policy
	return r
}

// WithClassifier overrides the transient-error predicate.
func (r *Retrier) WithClassifier(isTransient func(error) bool) *Retrier {
	r.isTransient = isTransient
	return r
}

// WithSleep overrides the sleep function. Tests use this to make the backoff
// schedule observable without waiting.
func (r *Retrier) WithSleep(sleep func(time.Duration)) *Retrier {
	r.sleep = sleep
	return r
}

// Do runs fn up to MaxAttempts times, sleeping with capped exponential
// backoff between attempts. Only errors matching the transient classifier are
// retried; a non-transient error is returned immediately.
func (r *Retrier) Do(op string, fn func() error) error {
	delay := r.policy.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 && r.logger != nil {
				r.logger.Info("Operation succeeded after retry",
					zap.String("operation", op),
					zap.Int("attempt", attempt))
			}
			return nil
		}
		lastErr = err

		if !r.isTransient(err) {
			return err
		}

		if attempt == r.policy.MaxAttempts {
			break
		}

		if r.logger != nil {
			r.logger.Warn("Transient failure, backing off",
				zap.String("operation", op),
				zap.Int("attempt", attempt),
				zap.Int("maxAttempts", r.policy.MaxAttempts),
				zap.Duration("delay", delay),
				zap.Error(err))
		}

		r.sleep(delay)
		delay *= 2
		if delay > r.policy.MaxDelay {
			delay = r.policy.MaxDelay
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, r.policy.MaxAttempts, lastErr)
}
