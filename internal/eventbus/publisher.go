package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abgdnv/online-orders/pkg/config"
	"github.com/abgdnv/online-orders/pkg/messaging"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher emits envelopes on the configured bus.
type Publisher struct {
	pub messaging.Publisher
	cfg config.EventBusConfig
}

func NewPublisher(pub messaging.Publisher, cfg config.EventBusConfig) *Publisher {
	return &Publisher{pub: pub, cfg: cfg}
}

func (p *Publisher) Publish(ctx context.Context, env Envelope) error {
	return p.pub.Publish(ctx, busEvent{bus: p.cfg.Name, envelope: env})
}

// PublishCreateOrder wraps detail in a CreateOrder envelope tagged with the
// configured source and publishes it.
func (p *Publisher) PublishCreateOrder(ctx context.Context, detail json.RawMessage) (Envelope, error) {
	env := NewEnvelope(p.cfg.Source, p.cfg.DetailType, detail)
	if err := p.Publish(ctx, env); err != nil {
		return env, err
	}
	return env, nil
}

// EnsureStream creates or updates the stream backing the bus.
func EnsureStream(ctx context.Context, js jetstream.StreamManager, cfg config.EventBusConfig) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  StreamSubjects(cfg.Name),
		Retention: jetstream.WorkQueuePolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream %s: %w", cfg.Stream, err)
	}
	return nil
}
