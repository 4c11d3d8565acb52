package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/abgdnv/online-orders/internal/deadletter"
	ordererrors "github.com/abgdnv/online-orders/internal/errors"
	"github.com/abgdnv/online-orders/internal/metrics"
	"github.com/abgdnv/online-orders/pkg/config"
	pnats "github.com/abgdnv/online-orders/pkg/nats"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
	"golang.org/x/sync/errgroup"
)

// skipIntegrationTests is the environment variable that controls whether to skip integration tests.
const skipIntegrationTests = "ORDERS_SKIP_INTEGRATION_TESTS"
const natsImg = "nats:2.11.6-alpine"

// recordingHandler remembers the usernames it has seen and rejects "taken".
type recordingHandler struct {
	mu    sync.Mutex
	seen  []string
	calls int
}

func (h *recordingHandler) Handle(_ context.Context, event Envelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	var detail struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		return err
	}
	if detail.Username == "taken" {
		return fmt.Errorf("%w: %w", ordererrors.ErrCreateOrder, ordererrors.ErrOrderAlreadyExists)
	}
	h.seen = append(h.seen, detail.Username)
	return nil
}

func (h *recordingHandler) usernames() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.seen...)
}

// EventBusSuite exercises publish, routing and dead-lettering against a real NATS server.
type EventBusSuite struct {
	suite.Suite
	ctx           context.Context
	logger        *slog.Logger
	natsContainer *nats.NATSContainer
	nc            *natsgo.Conn
	js            jetstream.JetStream
}

func (s *EventBusSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.natsContainer, err = nats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)
	s.nc, err = pnats.NewClient(config.NATSConfig{Url: natsURL, Name: "eventbus-test", Timeout: 5 * time.Second})
	require.NoError(s.T(), err, "Failed to connect to NATS")
	s.js, err = pnats.NewJetStreamContext(s.nc)
	require.NoError(s.T(), err, "Failed to get JetStream context")
}

func (s *EventBusSuite) TearDownSuite() {
	if s.nc != nil {
		s.nc.Close()
	}
	if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
		s.logger.Error("Failed to terminate NATS container", "error", err)
	}
}

func TestEventBusIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(EventBusSuite))
}

func (s *EventBusSuite) TestRouting() {
	// given
	suffix := uuid.NewString()[:8]
	bus := config.EventBusConfig{
		Name:       "Bus" + suffix,
		Stream:     "BUS_" + suffix,
		Source:     DefaultSource,
		DetailType: DetailTypeCreate,
	}
	dlqCfg := config.DeadLetterConfig{
		Driver:  config.DeadLetterDriverNATS,
		Stream:  "DLQ_" + suffix,
		Create:  "dlq." + suffix + ".create",
		Cancel:  "dlq." + suffix + ".cancel",
		Timeout: time.Second,
	}
	subCfg := testSubscriberCfg
	subCfg.Consumer = "create-order-" + suffix
	subCfg.FetchTimeout = 200 * time.Millisecond

	require.NoError(s.T(), EnsureStream(s.ctx, s.js, bus))
	queues, err := deadletter.New(s.ctx, dlqCfg, s.js)
	require.NoError(s.T(), err)

	h := &recordingHandler{}
	sub := NewSubscriber(s.js, bus, subCfg, h, queues.Create, metrics.Noop(), s.logger)

	testCtx, cancel := context.WithTimeout(s.ctx, 15*time.Second)
	g, gCtx := errgroup.WithContext(testCtx)
	g.Go(func() error { return sub.Run(gCtx) })
	s.T().Cleanup(func() {
		cancel()
		_ = g.Wait()
	})

	publisher := NewPublisher(pnats.NewNatsPublisher(s.js), bus)

	// when
	_, err = publisher.PublishCreateOrder(s.ctx, json.RawMessage(`{"username":"alice"}`))
	require.NoError(s.T(), err)
	_, err = publisher.PublishCreateOrder(s.ctx, json.RawMessage(`{"username":"taken"}`))
	require.NoError(s.T(), err)
	// another source on the same bus is not routed to this subscriber
	foreign := NewEnvelope("com.other.shop", DetailTypeCreate, json.RawMessage(`{"username":"mallory"}`))
	require.NoError(s.T(), publisher.Publish(s.ctx, foreign))

	// then
	s.Eventually(func() bool {
		return len(h.usernames()) == 1
	}, 10*time.Second, 100*time.Millisecond)
	s.Equal([]string{"alice"}, h.usernames())

	s.Eventually(func() bool {
		stream, err := s.js.Stream(s.ctx, dlqCfg.Stream)
		if err != nil {
			return false
		}
		info, err := stream.Info(s.ctx)
		return err == nil && info.State.Msgs == 1
	}, 10*time.Second, 100*time.Millisecond)

	stream, err := s.js.Stream(s.ctx, dlqCfg.Stream)
	s.Require().NoError(err)
	dead, err := stream.GetLastMsgForSubject(s.ctx, dlqCfg.Create)
	s.Require().NoError(err)
	var env Envelope
	s.Require().NoError(json.Unmarshal(dead.Data, &env))
	s.JSONEq(`{"username":"taken"}`, string(env.Detail))
	s.Contains(dead.Header.Get(deadletter.AttrError), "order already exists")
	h.mu.Lock()
	defer h.mu.Unlock()
	s.Equal(2, h.calls)
}
