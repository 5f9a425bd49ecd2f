package domain

import (
	"context"
	"errors"
	"fmt"
)

// FailureClass is the closed taxonomy every remote failure is normalized into.
// Classification drives retry policy: validation failures are never retried,
// rate-limit failures wait longer between attempts.
type FailureClass string

const (
	FailureValidation  FailureClass = "validation"
	FailureRateLimited FailureClass = "rate_limited"
	FailureTimeout     FailureClass = "timeout"
	FailureTransient   FailureClass = "transient"
)

var (
	ErrValidation  = errors.New("validation failure")
	ErrRateLimited = errors.New("rate limited")
	ErrTimeout     = errors.New("timeout")
	ErrTransient   = errors.New("transient failure")

	ErrBatchNotFound  = errors.New("batch not found")
	ErrFileNotFound   = errors.New("file not found")
	ErrBatchRunning   = errors.New("batch run already in progress")
	ErrStageNotFailed = errors.New("stage is not in a failed state")
)

// WrapError preserves typed failure kinds with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// Classify maps an error onto the failure taxonomy. Classification happens
// once, at the remote-call boundary; everything downstream switches on the
// class instead of sniffing message text.
func Classify(err error) FailureClass {
	switch {
	case errors.Is(err, ErrValidation):
		return FailureValidation
	case errors.Is(err, ErrRateLimited):
		return FailureRateLimited
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	default:
		return FailureTransient
	}
}

// Retryable reports whether another attempt may help. Validation failures are
// terminal until the input changes.
func (c FailureClass) Retryable() bool {
	return c != FailureValidation
}
