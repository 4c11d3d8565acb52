package deadletter

import (
	"context"
	"fmt"

	pnats "github.com/abgdnv/online-orders/pkg/nats"
	"github.com/nats-io/nats.go"
)

// NATSQueue stores dead letters on a JetStream subject. Attributes travel as headers.
type NATSQueue struct {
	js      pnats.JetStreamPublisher
	subject string
}

func NewNATSQueue(js pnats.JetStreamPublisher, subject string) *NATSQueue {
	return &NATSQueue{js: js, subject: subject}
}

func (q *NATSQueue) Name() string {
	return q.subject
}

func (q *NATSQueue) Send(ctx context.Context, msg Message) error {
	m := nats.NewMsg(q.subject)
	m.Data = msg.Body
	for k, v := range msg.Attributes {
		m.Header.Set(k, v)
	}
	if _, err := q.js.PublishMsg(ctx, m); err != nil {
		return fmt.Errorf("failed to dead-letter to %s: %w", q.subject, err)
	}
	return nil
}
