// Package transport holds the pluggable strategies a waitlist record leaves
// the client through. Exactly one is selected at startup from configuration.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mirrorsync/internal/model"
)

// Transport delivers one record. A nil error means the record was accepted
// under the transport's acknowledgement mode.
type Transport interface {
	Send(ctx context.Context, rec model.SubmissionRecord) error
	Name() string
}

// Func adapts a function to Transport.
type Func func(ctx context.Context, rec model.SubmissionRecord) error

func (f Func) Send(ctx context.Context, rec model.SubmissionRecord) error { return f(ctx, rec) }
func (f Func) Name() string                                               { return "func" }

type Kind string

const (
	KindHTTP     Kind = "http"
	KindLocal    Kind = "local"
	KindRedis    Kind = "redis"
	KindPostgres Kind = "postgres"
	KindAMQP     Kind = "amqp"
)

var ErrUnknownKind = errors.New("unknown transport kind")

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindHTTP, KindLocal, KindRedis, KindPostgres, KindAMQP:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// StatusError is returned by acknowledged HTTP transports on a non-2xx reply.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("endpoint returned status %d", e.Code)
}

// StorageError wraps a failed write to a store-backed transport.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s write failed: %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PanicError carries a value recovered from a transport that panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("transport panicked: %v", e.Value)
}
