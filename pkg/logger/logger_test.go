package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ContextHandler_Handle(t *testing.T) {
	testCases := []struct {
		name     string
		ctx      func() context.Context
		expected map[string]string
		absent   []string
	}{
		{
			name: "correlation and request ids",
			ctx: func() context.Context {
				ctx := WithCorrelationID(context.Background(), "corr-1")
				return context.WithValue(ctx, middleware.RequestIDKey, "req-1")
			},
			expected: map[string]string{"correlation_id": "corr-1", "request_id": "req-1"},
			absent:   []string{"trace_id"},
		},
		{
			name:   "empty context",
			ctx:    context.Background,
			absent: []string{"trace_id", "request_id", "correlation_id"},
		},
		{
			name:   "empty correlation id is ignored",
			ctx:    func() context.Context { return WithCorrelationID(context.Background(), "") },
			absent: []string{"correlation_id"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var buf bytes.Buffer
			log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))
			// when
			log.InfoContext(tc.ctx(), "message")
			// then
			var record map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			for key, value := range tc.expected {
				assert.Equal(t, value, record[key], key)
			}
			for _, key := range tc.absent {
				assert.NotContains(t, record, key)
			}
		})
	}
}

func Test_ContextHandler_WithAttrsKeepsEnrichment(t *testing.T) {
	// given
	var buf bytes.Buffer
	log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "test")
	ctx := WithCorrelationID(context.Background(), "corr-2")
	// when
	log.WarnContext(ctx, "message")
	// then
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "test", record["component"])
	assert.Equal(t, "corr-2", record["correlation_id"])
}
