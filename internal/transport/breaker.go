package transport

import (
	"context"
	"errors"

	"mirrorsync/internal/model"
	"mirrorsync/pkg/circuitbreaker"
	"mirrorsync/pkg/metrics"
)

type breakerTransport struct {
	next Transport
	cb   *circuitbreaker.CircuitBreaker
}

// WithBreaker short-circuits next while cb is open. Rejected calls fail with
// circuitbreaker.ErrCircuitBreakerOpen and never reach next.
func WithBreaker(next Transport, cb *circuitbreaker.CircuitBreaker) Transport {
	return &breakerTransport{next: next, cb: cb}
}

func (b *breakerTransport) Name() string { return b.next.Name() }

func (b *breakerTransport) Send(ctx context.Context, rec model.SubmissionRecord) error {
	err := b.cb.Execute(func() error {
		return b.next.Send(ctx, rec)
	})
	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		metrics.IncrementBreakerRejection(b.next.Name())
	}
	return err
}
