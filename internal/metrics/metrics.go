// Package metrics holds the order lifecycle counters.
package metrics

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/abgdnv/online-orders"

type Recorder struct {
	created      metric.Int64Counter
	cancelled    metric.Int64Counter
	failures     metric.Int64Counter
	deadLettered metric.Int64Counter
}

func New(provider metric.MeterProvider) (*Recorder, error) {
	meter := provider.Meter(meterName)
	created, err1 := meter.Int64Counter("orders_created", metric.WithDescription("Orders stored by the create handler"))
	cancelled, err2 := meter.Int64Counter("orders_cancelled", metric.WithDescription("Cancellation workflows that succeeded"))
	failures, err3 := meter.Int64Counter("workflow_failures", metric.WithDescription("Cancellation workflows that ended in the failure queue"))
	deadLettered, err4 := meter.Int64Counter("messages_dead_lettered", metric.WithDescription("Messages forwarded to a dead-letter queue"))
	if err := errors.Join(err1, err2, err3, err4); err != nil {
		return nil, err
	}
	return &Recorder{created: created, cancelled: cancelled, failures: failures, deadLettered: deadLettered}, nil
}

// Noop returns a recorder that discards everything.
func Noop() *Recorder {
	r, _ := New(noop.NewMeterProvider())
	return r
}

func (r *Recorder) OrderCreated(ctx context.Context) {
	r.created.Add(ctx, 1)
}

func (r *Recorder) OrderCancelled(ctx context.Context) {
	r.cancelled.Add(ctx, 1)
}

func (r *Recorder) WorkflowFailed(ctx context.Context, state string) {
	r.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}

func (r *Recorder) DeadLettered(ctx context.Context, queue string) {
	r.deadLettered.Add(ctx, 1, metric.WithAttributes(attribute.String("queue", queue)))
}
