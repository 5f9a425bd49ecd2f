package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/ivgo/docinsight/internal/core/domain"
)

// Executor wraps one fallible remote call with timeout enforcement, bounded
// retry and class-aware backoff. It holds no state across calls apart from
// the per-operation circuit breakers.
type Executor struct {
	breaker BreakerConfig

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewExecutor(breaker BreakerConfig) *Executor {
	return &Executor{
		breaker:  breaker.normalize(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Execute runs fn under the policy and returns the number of attempts made
// together with the final classified error, if any. Guarantees: at most
// policy.MaxAttempts invocations; validation failures cost exactly one;
// a parent-context cancellation aborts immediately with ctx.Err().
func (e *Executor) Execute(
	ctx context.Context,
	operation string,
	policy Policy,
	fn func(context.Context) error,
) (int, error) {
	if fn == nil {
		return 0, fmt.Errorf("resilience: operation callback is nil")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	policy = policy.normalize()

	if !e.breaker.Enabled {
		return e.executeWithRetry(ctx, op, policy, fn)
	}

	attempts := 0
	breaker := e.circuitBreaker(op)
	_, err := breaker.Execute(func() (any, error) {
		var retryErr error
		attempts, retryErr = e.executeWithRetry(ctx, op, policy, fn)
		return nil, retryErr
	})
	if IsCircuitOpen(err) {
		// The rejected call still counts as one attempt against the stage.
		if attempts == 0 {
			attempts = 1
		}
		return attempts, domain.WrapError(domain.ErrTransient, op, err)
	}
	return attempts, err
}

func (e *Executor) executeWithRetry(
	ctx context.Context,
	operation string,
	policy Policy,
	fn func(context.Context) error,
) (int, error) {
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		err := e.attempt(ctx, operation, policy, fn)
		if err == nil {
			return attempt, nil
		}
		if ctx.Err() != nil {
			// Cancellation is not a stage failure; surface it untouched.
			return attempt, ctx.Err()
		}

		class := domain.Classify(err)
		if !class.Retryable() || attempt == policy.MaxAttempts {
			return attempt, err
		}

		wait := backoffFor(policy, class, attempt)
		slog.Warn("retry_attempt",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"class", string(class),
			"backoff_ms", wait.Milliseconds(),
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}

	return policy.MaxAttempts, domain.WrapError(domain.ErrTransient, operation, errors.New("retry budget exhausted"))
}

// attempt runs fn under the per-attempt timeout budget and normalizes a
// budget overrun into a timeout-classified error.
func (e *Executor) attempt(ctx context.Context, operation string, policy Policy, fn func(context.Context) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
	defer cancel()

	err := fn(attemptCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !domain.IsKind(err, domain.ErrTimeout) {
		return domain.WrapError(domain.ErrTimeout, operation, err)
	}
	return err
}

// backoffFor computes the wait before the next attempt. Rate-limit failures
// wait longer: provider-side throttling needs more slack than an ordinary
// transient fault.
func backoffFor(policy Policy, class domain.FailureClass, attempt int) time.Duration {
	switch class {
	case domain.FailureRateLimited:
		return policy.BaseBackoff * time.Duration(policy.RateLimitMultiplier*float64(int64(1)<<attempt))
	default:
		return policy.BaseBackoff * time.Duration(int64(1)<<(attempt-1))
	}
}

func (e *Executor) circuitBreaker(operation string) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if breaker, ok := e.breakers[operation]; ok {
		return breaker
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: e.breaker.HalfOpenMaxCalls,
		Timeout:     e.breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.breaker.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= e.breaker.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return true
			}
			// Validation failures are the caller's fault, not the service's.
			return !domain.Classify(err).Retryable()
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	}

	breaker := gobreaker.NewCircuitBreaker[any](settings)
	e.breakers[operation] = breaker
	return breaker
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
