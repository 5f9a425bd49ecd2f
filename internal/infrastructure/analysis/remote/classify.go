package remote

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/ivgo/docinsight/internal/core/domain"
)

// classifyCallError normalizes a raw transport error into the failure
// taxonomy at the boundary, so no caller ever matches on message text.
func classifyCallError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrTimeout, operation, err)
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return domain.WrapError(kindForStatus(statusErr.StatusCode), operation, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.WrapError(domain.ErrTimeout, operation, err)
	}

	return domain.WrapError(domain.ErrTransient, operation, err)
}

func kindForStatus(statusCode int) error {
	switch statusCode {
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return domain.ErrTimeout
	case http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType,
		http.StatusUnprocessableEntity:
		return domain.ErrValidation
	default:
		return domain.ErrTransient
	}
}
