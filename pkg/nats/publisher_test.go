package nats

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type mockJetStream struct {
	mock.Mock
}

func (m *mockJetStream) PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	args := m.Called(ctx, msg, opts)
	ack, _ := args.Get(0).(*jetstream.PubAck)
	return ack, args.Error(1)
}

type testEvent struct {
	id      string
	payload []byte
	err     error
}

func (e testEvent) Subject() string          { return "bus.source.Type" }
func (e testEvent) Payload() ([]byte, error) { return e.payload, e.err }
func (e testEvent) EventID() string          { return e.id }

func TestNatsPublisher_Publish(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	tests := []struct {
		name      string
		event     testEvent
		pubErr    error
		wantOpts  int
		wantError bool
	}{
		{name: "with message id", event: testEvent{id: "evt-1", payload: []byte(`{}`)}, wantOpts: 1},
		{name: "without message id", event: testEvent{payload: []byte(`{}`)}, wantOpts: 0},
		{name: "publish failure", event: testEvent{id: "evt-2", payload: []byte(`{}`)}, pubErr: errors.New("no responders"), wantOpts: 1, wantError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			js := new(mockJetStream)
			js.On("PublishMsg", mock.Anything, mock.MatchedBy(func(msg *nats.Msg) bool {
				return msg.Subject == "bus.source.Type" &&
					string(msg.Data) == `{}` &&
					http.Header(msg.Header).Get("traceparent") != ""
			}), mock.MatchedBy(func(opts []jetstream.PublishOpt) bool {
				return len(opts) == tt.wantOpts
			})).Return(&jetstream.PubAck{Stream: "S"}, tt.pubErr).Once()
			p := NewNatsPublisher(js)

			// when
			err := p.Publish(ctx, tt.event)

			// then
			if tt.wantError {
				assert.ErrorIs(t, err, tt.pubErr)
			} else {
				require.NoError(t, err)
			}
			js.AssertExpectations(t)
		})
	}
}

func TestNatsPublisher_PayloadError(t *testing.T) {
	// given
	js := new(mockJetStream)
	p := NewNatsPublisher(js)
	want := errors.New("encode")

	// when
	err := p.Publish(context.Background(), testEvent{err: want})

	// then
	assert.ErrorIs(t, err, want)
	js.AssertNotCalled(t, "PublishMsg", mock.Anything, mock.Anything, mock.Anything)
}

func TestNatsPublisher_TraceHeaderKey(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	var sent *nats.Msg
	js := new(mockJetStream)
	js.On("PublishMsg", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*nats.Msg) }).
		Return(&jetstream.PubAck{}, nil).Once()

	require.NoError(t, NewNatsPublisher(js).Publish(ctx, testEvent{payload: []byte(`{}`)}))

	// nats.Header is case-sensitive and the http carrier writes canonical keys
	require.NotNil(t, sent)
	assert.Equal(t, "00-0102030405060708090a0b0c0d0e0f10-0102030405060708-01", sent.Header.Get("Traceparent"))
	assert.Empty(t, sent.Header.Get("traceparent"))
	assert.Equal(t, traceID, trace.SpanContextFromContext(ExtractContext(context.Background(), sent.Header)).TraceID())
}

func TestExtractContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	const traceparent = "00-0102030405060708090a0b0c0d0e0f10-0102030405060708-01"
	tests := []struct {
		name string
		key  string
	}{
		{"canonical key", "Traceparent"},
		{"lowercase key", "traceparent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			header := nats.Header{}
			header.Set(tt.key, traceparent)

			// when
			ctx := ExtractContext(context.Background(), header)

			// then
			sc := trace.SpanContextFromContext(ctx)
			assert.True(t, sc.IsValid())
			assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", sc.TraceID().String())
		})
	}
	assert.Equal(t, context.Background(), ExtractContext(context.Background(), nil))
}
