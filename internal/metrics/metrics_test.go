package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func Test_Recorder(t *testing.T) {
	// given
	reader := sdkmetric.NewManualReader()
	r, err := New(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)
	ctx := context.Background()
	// when
	r.OrderCreated(ctx)
	r.OrderCreated(ctx)
	r.OrderCancelled(ctx)
	r.WorkflowFailed(ctx, "Catch")
	r.DeadLettered(ctx, "orders.dlq.create")
	// then
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	totals := map[string]int64{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		sum, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		for _, dp := range sum.DataPoints {
			totals[m.Name] += dp.Value
		}
	}
	assert.Equal(t, map[string]int64{
		"orders_created":         2,
		"orders_cancelled":       1,
		"workflow_failures":      1,
		"messages_dead_lettered": 1,
	}, totals)
}

func Test_Noop(t *testing.T) {
	r := Noop()
	assert.NotPanics(t, func() { r.OrderCreated(context.Background()) })
}
