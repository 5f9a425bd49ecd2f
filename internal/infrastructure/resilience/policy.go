package resilience

import "time"

// Policy bounds one resilient call: attempt count, per-attempt timeout and
// backoff shape. Each stage carries its own policy.
type Policy struct {
	MaxAttempts         int
	BaseBackoff         time.Duration
	Timeout             time.Duration
	RateLimitMultiplier float64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:         3,
		BaseBackoff:         500 * time.Millisecond,
		Timeout:             30 * time.Second,
		RateLimitMultiplier: 4,
	}
}

func (p Policy) normalize() Policy {
	out := p
	def := DefaultPolicy()

	if out.MaxAttempts <= 0 {
		out.MaxAttempts = def.MaxAttempts
	}
	if out.BaseBackoff <= 0 {
		out.BaseBackoff = def.BaseBackoff
	}
	if out.Timeout <= 0 {
		out.Timeout = def.Timeout
	}
	if out.RateLimitMultiplier < 1 {
		out.RateLimitMultiplier = def.RateLimitMultiplier
	}
	return out
}

// BreakerConfig controls the optional per-operation circuit breaker.
type BreakerConfig struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		MinRequests:      10,
		FailureRatio:     0.5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxCalls: 2,
	}
}

func (c BreakerConfig) normalize() BreakerConfig {
	out := c
	def := DefaultBreakerConfig()

	if out.MinRequests == 0 {
		out.MinRequests = def.MinRequests
	}
	if out.FailureRatio <= 0 || out.FailureRatio > 1 {
		out.FailureRatio = def.FailureRatio
	}
	if out.OpenTimeout <= 0 {
		out.OpenTimeout = def.OpenTimeout
	}
	if out.HalfOpenMaxCalls == 0 {
		out.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	return out
}
