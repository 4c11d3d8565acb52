// Package deadletter delivers failed work items to durable failure queues
// for later inspection.
package deadletter

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/abgdnv/online-orders/pkg/config"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/nats-io/nats.go/jetstream"
)

// Attribute keys attached to every dead-lettered message.
const (
	AttrError     = "error"
	AttrSource    = "source"
	AttrFailedAt  = "failed-at"
	AttrMessageID = "message-id"
)

// Message is a failed work item: the original payload plus why it failed.
type Message struct {
	Body       []byte
	Attributes map[string]string
}

// NewMessage builds a message stamped with the failure time.
func NewMessage(body []byte, source string, cause error) Message {
	attrs := map[string]string{
		AttrSource:   source,
		AttrFailedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if cause != nil {
		attrs[AttrError] = cause.Error()
	}
	return Message{Body: body, Attributes: attrs}
}

// With returns a copy of m with an extra attribute.
func (m Message) With(key, value string) Message {
	attrs := maps.Clone(m.Attributes)
	if attrs == nil {
		attrs = map[string]string{}
	}
	attrs[key] = value
	m.Attributes = attrs
	return m
}

type Queue interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// Queues are the two failure channels of the system. They never share a destination.
type Queues struct {
	Create Queue
	Cancel Queue
}

// New builds the queues of the configured driver.
// js is only used by the nats driver.
func New(ctx context.Context, cfg config.DeadLetterConfig, js jetstream.JetStream) (*Queues, error) {
	switch cfg.Driver {
	case config.DeadLetterDriverNATS:
		if err := EnsureStream(ctx, js, cfg); err != nil {
			return nil, err
		}
		return &Queues{
			Create: NewNATSQueue(js, cfg.Create),
			Cancel: NewNATSQueue(js, cfg.Cancel),
		}, nil
	case config.DeadLetterDriverSQS:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		client := sqs.NewFromConfig(awsCfg)
		return &Queues{
			Create: NewSQSQueue(client, cfg.Create),
			Cancel: NewSQSQueue(client, cfg.Cancel),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported dead-letter driver %q", cfg.Driver)
	}
}

// EnsureStream creates or updates the stream that stores NATS dead letters.
func EnsureStream(ctx context.Context, js jetstream.StreamManager, cfg config.DeadLetterConfig) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.Create, cfg.Cancel},
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure dead-letter stream %s: %w", cfg.Stream, err)
	}
	return nil
}
