package transport

import (
	"context"

	"mirrorsync/internal/model"
)

// EventPublisher is satisfied by *mq.Publisher.
type EventPublisher interface {
	PublishWithContext(ctx context.Context, routingKey string, payload any) error
}

// AMQP publishes each record as a persistent event for downstream consumers.
type AMQP struct {
	pub        EventPublisher
	routingKey string
}

func NewAMQP(pub EventPublisher, routingKey string) *AMQP {
	if routingKey == "" {
		routingKey = "waitlist.joined"
	}
	return &AMQP{pub: pub, routingKey: routingKey}
}

func (a *AMQP) Name() string { return string(KindAMQP) }

func (a *AMQP) Send(ctx context.Context, rec model.SubmissionRecord) error {
	if err := a.pub.PublishWithContext(ctx, a.routingKey, rec.Payload()); err != nil {
		return &StorageError{Backend: "amqp", Err: err}
	}
	return nil
}
