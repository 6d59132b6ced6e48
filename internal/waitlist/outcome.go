package waitlist

import "fmt"

// Kind tags an Outcome.
type Kind int

const (
	Accepted Kind = iota + 1
	Rejected
	TransportFailure
	AlreadyInFlight
)

func (k Kind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case TransportFailure:
		return "transport_failure"
	case AlreadyInFlight:
		return "already_in_flight"
	default:
		return "unknown"
	}
}

// Outcome is the result of one Submit call. Submit never returns an error;
// every failure is reported here.
type Outcome struct {
	Kind Kind
	// Reason is a human readable explanation for Rejected and
	// TransportFailure.
	Reason string
	// Cause is the transport.Classify cause of a TransportFailure.
	Cause string
	// Retryable hints whether submitting again later may succeed.
	Retryable bool
	Err       error
}

func (o Outcome) OK() bool { return o.Kind == Accepted }

func (o Outcome) String() string {
	if o.Reason == "" {
		return o.Kind.String()
	}
	return fmt.Sprintf("%s: %s", o.Kind, o.Reason)
}

func acceptedOutcome() Outcome {
	return Outcome{Kind: Accepted}
}

func rejectedOutcome(err error) Outcome {
	return Outcome{Kind: Rejected, Reason: err.Error(), Err: err}
}

func inFlightOutcome() Outcome {
	return Outcome{Kind: AlreadyInFlight}
}
