// Package waitlist owns the submit lifecycle of a waitlist form: validate the
// email, attach the wallet identity if one is connected right now, hand one
// record to the configured transport and report a single Outcome.
package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mirrorsync/internal/model"
	"mirrorsync/internal/transport"
	"mirrorsync/internal/wallet"
	"mirrorsync/pkg/logger"
	"mirrorsync/pkg/metrics"
	"mirrorsync/pkg/trace"
)

const DefaultIdentityTimeout = 500 * time.Millisecond

type Options struct {
	FormID    string
	Transport transport.Transport
	// Wallet may be nil; submissions then never carry an identity.
	Wallet wallet.Capability
	// Guard defaults to a LocalGuard.
	Guard           Guard
	IdentityTimeout time.Duration
	Logger          *zap.Logger

	Now   func() time.Time
	NewID func() string
}

// Submitter serves one form instance. It is safe for concurrent use, but at
// most one submission is in flight at a time; overlapping calls get
// AlreadyInFlight.
type Submitter struct {
	formID          string
	transport       transport.Transport
	wallet          wallet.Capability
	guard           Guard
	identityTimeout time.Duration
	logger          *zap.Logger
	now             func() time.Time
	newID           func() string
}

func NewSubmitter(opts Options) (*Submitter, error) {
	if opts.Transport == nil {
		return nil, errors.New("waitlist: transport is required")
	}

	s := &Submitter{
		formID:          opts.FormID,
		transport:       opts.Transport,
		wallet:          opts.Wallet,
		guard:           opts.Guard,
		identityTimeout: opts.IdentityTimeout,
		logger:          opts.Logger,
		now:             opts.Now,
		newID:           opts.NewID,
	}
	if s.formID == "" {
		s.formID = "waitlist"
	}
	if s.guard == nil {
		s.guard = &LocalGuard{}
	}
	if s.identityTimeout <= 0 {
		s.identityTimeout = DefaultIdentityTimeout
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s, nil
}

func (s *Submitter) FormID() string { return s.formID }

// InFlight reports whether a submission currently holds the guard.
func (s *Submitter) InFlight() bool {
	return s.guard.Held(context.Background())
}

// CurrentIdentity asks the wallet for its connected key. Anything short of a
// prompt, non-empty answer counts as absent: no wallet, not connected, an
// error, a panic, or no reply within the identity timeout.
func (s *Submitter) CurrentIdentity(ctx context.Context) (string, bool) {
	if s.wallet == nil {
		metrics.IncrementIdentityProbe("absent")
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, s.identityTimeout)
	defer cancel()

	type probe struct {
		key string
		err error
	}
	// buffered so a probe answering after the timeout does not block forever
	done := make(chan probe, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- probe{err: fmt.Errorf("wallet probe panicked: %v", r)}
			}
		}()
		if !s.wallet.Available() {
			done <- probe{err: wallet.ErrNotInstalled}
			return
		}
		key, err := s.wallet.PublicKey(ctx)
		done <- probe{key: key, err: err}
	}()

	select {
	case p := <-done:
		switch {
		case p.err == nil && p.key != "":
			metrics.IncrementIdentityProbe("connected")
			return p.key, true
		case p.err == nil, errors.Is(p.err, wallet.ErrNotConnected), errors.Is(p.err, wallet.ErrNotInstalled):
			metrics.IncrementIdentityProbe("absent")
		default:
			metrics.IncrementIdentityProbe("error")
			logger.WithTrace(ctx, s.logger).Debug("Wallet identity probe failed", zap.Error(p.err))
		}
		return "", false
	case <-ctx.Done():
		metrics.IncrementIdentityProbe("timeout")
		logger.WithTrace(ctx, s.logger).Debug("Wallet identity probe timed out",
			zap.Duration("timeout", s.identityTimeout),
		)
		return "", false
	}
}

// Submit runs one submission. It performs at most one transport call and
// never retries.
func (s *Submitter) Submit(ctx context.Context, email string) Outcome {
	ctx, traceID := trace.Ensure(ctx)
	log := logger.WithTrace(ctx, s.logger).With(zap.String("form", s.formID))

	if s.guard.Held(ctx) {
		log.Debug("Submission already in flight")
		return s.finish(inFlightOutcome())
	}

	email = Normalize(email)
	if err := Validate(email); err != nil {
		log.Debug("Rejected waitlist email", zap.String("email", logger.MaskEmail(email)))
		return s.finish(rejectedOutcome(err))
	}

	if !s.guard.TryAcquire(ctx) {
		log.Debug("Submission already in flight")
		return s.finish(inFlightOutcome())
	}
	defer s.guard.Release(ctx)

	identity, _ := s.CurrentIdentity(ctx)
	rec := model.SubmissionRecord{
		ID:          s.newID(),
		FormID:      s.formID,
		Email:       email,
		Identity:    identity,
		SubmittedAt: s.now(),
		TraceID:     traceID,
	}

	start := time.Now()
	err := s.send(ctx, rec)
	elapsed := time.Since(start)

	fields := []zap.Field{
		zap.String("record_id", rec.ID),
		zap.String("email", logger.MaskEmail(email)),
		zap.Bool("wallet", rec.HasIdentity()),
		zap.String("transport", s.transport.Name()),
		zap.Duration("took", elapsed),
	}

	if err != nil {
		cause, retryable := transport.Classify(err)
		metrics.RecordTransportDuration(s.transport.Name(), cause, elapsed)
		log.Warn("Waitlist submission failed", append(fields, zap.String("cause", cause), zap.Error(err))...)
		return s.finish(Outcome{
			Kind:      TransportFailure,
			Reason:    err.Error(),
			Cause:     cause,
			Retryable: retryable,
			Err:       err,
		})
	}

	metrics.RecordTransportDuration(s.transport.Name(), "ok", elapsed)
	log.Info("Waitlist submission accepted", fields...)
	return s.finish(acceptedOutcome())
}

// send shields Submit from a panicking transport.
func (s *Submitter) send(ctx context.Context, rec model.SubmissionRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &transport.PanicError{Value: r}
		}
	}()
	return s.transport.Send(ctx, rec)
}

func (s *Submitter) finish(o Outcome) Outcome {
	metrics.IncrementSubmission(s.formID, o.Kind.String())
	return o
}
