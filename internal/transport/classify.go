package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"mirrorsync/pkg/circuitbreaker"
)

const (
	CauseTimeout     = "timeout"
	CauseNetwork     = "network"
	CauseHTTPStatus  = "http_status"
	CauseBreakerOpen = "breaker_open"
	CauseCanceled    = "canceled"
	CauseStorage     = "storage"
	CausePanic       = "panic"
	CauseUnknown     = "unknown"
)

// Classify maps a transport error to a stable cause and whether a caller
// retrying later has a chance of success.
func Classify(err error) (cause string, retryable bool) {
	if err == nil {
		return "", false
	}

	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		return CauseBreakerOpen, true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CauseTimeout, true
	}
	if errors.Is(err, context.Canceled) {
		return CauseCanceled, false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return CauseHTTPStatus, statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}

	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return CausePanic, false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CauseTimeout, true
	}

	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return CauseStorage, true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return CauseNetwork, true
	}
	if netErr != nil {
		return CauseNetwork, true
	}

	return CauseUnknown, false
}
