package nats

import (
	"context"
	"fmt"
	"net/http"

	"github.com/abgdnv/online-orders/pkg/messaging"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var _ messaging.Publisher = (*NatsPublisher)(nil)

// JetStreamPublisher is the subset of jetstream.JetStream used for publishing.
type JetStreamPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

type NatsPublisher struct {
	js JetStreamPublisher
}

func NewNatsPublisher(js JetStreamPublisher) *NatsPublisher {
	return &NatsPublisher{js: js}
}

// Publish sends the event to JetStream and waits for the server ack.
// The trace context of ctx travels in the message headers.
func (p *NatsPublisher) Publish(ctx context.Context, event messaging.Event) error {
	data, err := event.Payload()
	if err != nil {
		return fmt.Errorf("failed to get event payload: %w", err)
	}
	msg := nats.NewMsg(event.Subject())
	msg.Data = data
	// the key on the wire is the canonical "Traceparent"
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(http.Header(msg.Header)))

	var opts []jetstream.PublishOpt
	if identifiable, ok := event.(messaging.Identifiable); ok && identifiable.EventID() != "" {
		opts = append(opts, jetstream.WithMsgID(identifiable.EventID()))
	}
	if _, err = p.js.PublishMsg(ctx, msg, opts...); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", event.Subject(), err)
	}
	return nil
}

// ExtractContext returns ctx enriched with the trace context carried by msg headers.
// nats.Header keys are case-sensitive, so keys are canonicalized first: Go
// publishers write "Traceparent", other clients may write "traceparent".
func ExtractContext(ctx context.Context, header nats.Header) context.Context {
	if header == nil {
		return ctx
	}
	carrier := make(http.Header, len(header))
	for k, values := range header {
		for _, v := range values {
			carrier.Add(k, v)
		}
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(carrier))
}
