package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/abgdnv/online-orders/internal/deadletter"
	ordererrors "github.com/abgdnv/online-orders/internal/errors"
	"github.com/abgdnv/online-orders/internal/metrics"
	"github.com/abgdnv/online-orders/pkg/config"
	"github.com/abgdnv/online-orders/pkg/logger"
	pnats "github.com/abgdnv/online-orders/pkg/nats"
	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

// deadLetterAttempts bounds the sends of one dead letter within a delivery.
const deadLetterAttempts = 3

var errDeliveriesExhausted = errors.New("delivery attempts exhausted")

// Handler processes one routed event.
type Handler interface {
	Handle(ctx context.Context, event Envelope) error
}

// ackableMsg is the part of jetstream.Msg the subscriber relies on.
type ackableMsg interface {
	Data() []byte
	Subject() string
	Headers() nats.Header
	Metadata() (*jetstream.MsgMetadata, error)
	Ack() error
	NakWithDelay(delay time.Duration) error
	Term() error
}

// Subscriber delivers events filtered by source to a single handler.
// Messages that keep failing, or can never succeed, are moved to the
// dead-letter queue bound to this subscription.
type Subscriber struct {
	js      jetstream.StreamConsumerManager
	bus     config.EventBusConfig
	cfg     config.SubscriberConfig
	handler Handler
	dlq     deadletter.Queue
	metrics *metrics.Recorder
	logger  *slog.Logger
}

func NewSubscriber(js jetstream.StreamConsumerManager, bus config.EventBusConfig, cfg config.SubscriberConfig,
	handler Handler, dlq deadletter.Queue, m *metrics.Recorder, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		js:      js,
		bus:     bus,
		cfg:     cfg,
		handler: handler,
		dlq:     dlq,
		metrics: m,
		logger:  logger.With("component", "subscriber"),
	}
}

// Run creates the durable consumer and processes messages until ctx is done.
func (s *Subscriber) Run(ctx context.Context) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, s.bus.Stream, jetstream.ConsumerConfig{
		Durable:       s.cfg.Consumer,
		FilterSubject: SourceFilter(s.bus.Name, s.bus.Source),
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       s.cfg.AckWait,
		MaxDeliver:    s.cfg.MaxDeliver,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", s.cfg.Consumer, err)
	}
	s.logger.InfoContext(ctx, "Subscriber started",
		"stream", s.bus.Stream,
		"filter", SourceFilter(s.bus.Name, s.bus.Source),
		"workers", s.cfg.Workers)

	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.cfg.Workers; i++ {
		g.Go(func() error {
			return s.runWorker(gCtx, consumer)
		})
	}
	return g.Wait()
}

// runWorker fetches messages from the consumer and processes them one at a time.
func (s *Subscriber) runWorker(ctx context.Context, consumer jetstream.Consumer) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(s.cfg.FetchTimeout))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				s.logger.ErrorContext(ctx, "Failed to fetch messages", "error", err)
				time.Sleep(s.cfg.Interval)
				continue
			}
			for msg := range batch.Messages() {
				s.handleMessage(ctx, msg)
			}
		}
	}
}

func (s *Subscriber) handleMessage(ctx context.Context, msg ackableMsg) {
	if msg == nil {
		s.logger.ErrorContext(ctx, "Received nil message")
		return
	}
	ctx = pnats.ExtractContext(ctx, msg.Headers())
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AckWait)
	defer cancel()

	var event Envelope
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to unmarshal message", "error", err, "subject", msg.Subject())
		s.deadLetter(ctx, msg, "", fmt.Errorf("%w: %w", ordererrors.ErrInvalidPayload, err))
		return
	}
	if event.ID != "" {
		ctx = logger.WithCorrelationID(ctx, event.ID)
	}
	// the final delivery is kept for dead-lettering a message whose previous
	// dead-letter attempt failed
	if s.finalDelivery(msg) && s.reservesFinalDelivery() {
		s.logger.WarnContext(ctx, "Final delivery, dead-lettering without handling", "max_deliver", s.cfg.MaxDeliver)
		s.deadLetter(ctx, msg, event.ID, errDeliveriesExhausted)
		return
	}

	err := s.handler.Handle(ctx, event)
	if err == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			s.logger.ErrorContext(ctx, "Failed to ack message", "error", ackErr)
		}
		return
	}
	if ordererrors.IsPermanent(err) {
		s.logger.WarnContext(ctx, "Permanent failure", "error", err)
		s.deadLetter(ctx, msg, event.ID, err)
		return
	}
	if s.handlerAttemptsExhausted(msg) {
		s.logger.WarnContext(ctx, "Delivery attempts exhausted", "error", err, "max_deliver", s.cfg.MaxDeliver)
		s.deadLetter(ctx, msg, event.ID, fmt.Errorf("%w: %w", errDeliveriesExhausted, err))
		return
	}
	s.logger.WarnContext(ctx, "Handler failed, message will be redelivered", "error", err)
	if nakErr := msg.NakWithDelay(s.cfg.NakDelay); nakErr != nil {
		s.logger.ErrorContext(ctx, "Failed to nak message", "error", nakErr)
	}
}

func (s *Subscriber) numDelivered(msg ackableMsg) (uint64, bool) {
	meta, err := msg.Metadata()
	if err != nil || s.cfg.MaxDeliver <= 0 {
		return 0, false
	}
	return meta.NumDelivered, true
}

func (s *Subscriber) reservesFinalDelivery() bool {
	return s.cfg.MaxDeliver > 1
}

// finalDelivery reports whether the server will not redeliver msg again.
func (s *Subscriber) finalDelivery(msg ackableMsg) bool {
	n, ok := s.numDelivered(msg)
	return ok && n >= uint64(s.cfg.MaxDeliver)
}

// handlerAttemptsExhausted reports whether msg has used every delivery the
// handler may get. With more than one delivery the last one is not counted.
func (s *Subscriber) handlerAttemptsExhausted(msg ackableMsg) bool {
	n, ok := s.numDelivered(msg)
	if !ok {
		return false
	}
	budget := s.cfg.MaxDeliver
	if s.reservesFinalDelivery() {
		budget--
	}
	return n >= uint64(budget)
}

// deadLetter forwards the original payload to the DLQ and terminates the
// message. Sends are retried with backoff. If forwarding still fails the
// message is left for redelivery, unless this was its final delivery.
func (s *Subscriber) deadLetter(ctx context.Context, msg ackableMsg, eventID string, cause error) {
	dl := deadletter.NewMessage(msg.Data(), "create-order", cause).With("subject", msg.Subject())
	if eventID != "" {
		dl = dl.With(deadletter.AttrMessageID, eventID)
	}
	if meta, err := msg.Metadata(); err == nil {
		dl = dl.With("delivery-count", strconv.FormatUint(meta.NumDelivered, 10))
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.AckWait)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.NakDelay
	b.MaxElapsedTime = 0
	err := backoff.Retry(func() error {
		return s.dlq.Send(sendCtx, dl)
	}, backoff.WithContext(backoff.WithMaxRetries(b, deadLetterAttempts-1), sendCtx))
	if err != nil {
		if s.finalDelivery(msg) {
			s.logger.ErrorContext(ctx, "Failed to dead-letter message on its final delivery, it stays in the stream unacknowledged",
				"error", err, "queue", s.dlq.Name(), "event_id", eventID, "subject", msg.Subject())
			return
		}
		s.logger.ErrorContext(ctx, "Failed to dead-letter message", "error", err, "queue", s.dlq.Name())
		if nakErr := msg.NakWithDelay(s.cfg.NakDelay); nakErr != nil {
			s.logger.ErrorContext(ctx, "Failed to nak message", "error", nakErr)
		}
		return
	}
	s.metrics.DeadLettered(ctx, s.dlq.Name())
	s.logger.InfoContext(ctx, "Message dead-lettered", "queue", s.dlq.Name())
	if err := msg.Term(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to terminate message", "error", err)
	}
}
