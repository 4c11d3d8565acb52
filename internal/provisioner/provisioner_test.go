package provisioner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeMigrator struct {
	calls int
	err   error
}

func (f *fakeMigrator) Up(context.Context) error {
	f.calls++
	return f.err
}

func Test_Handle(t *testing.T) {
	testCases := []struct {
		name        string
		requestType string
		migrateErr  error
		wantStatus  string
		wantCalls   int
		wantReason  string
	}{
		{name: "create migrates", requestType: RequestCreate, wantStatus: StatusSuccess, wantCalls: 1},
		{name: "update migrates", requestType: RequestUpdate, wantStatus: StatusSuccess, wantCalls: 1},
		{name: "delete does nothing", requestType: RequestDelete, wantStatus: StatusSuccess, wantCalls: 0},
		{name: "unknown type fails", requestType: "Replace", wantStatus: StatusFailed, wantCalls: 0, wantReason: `unsupported request type "Replace"`},
		{name: "migration error fails", requestType: RequestCreate, migrateErr: errors.New("connection refused"), wantStatus: StatusFailed, wantCalls: 1, wantReason: "connection refused"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			m := &fakeMigrator{err: tc.migrateErr}
			p := New(m, slog.New(slog.NewJSONHandler(io.Discard, nil)))
			req := Request{
				RequestType:       tc.requestType,
				LogicalResourceID: "OrdersTable",
				RequestID:         "req-1",
				StackID:           "arn:stack/orders",
			}
			// when
			resp := p.Handle(context.Background(), req)
			// then
			assert.Equal(t, tc.wantStatus, resp.Status)
			assert.Equal(t, tc.wantReason, resp.Reason)
			assert.Equal(t, tc.wantCalls, m.calls)
			assert.Equal(t, "OrdersTable", resp.LogicalResourceID)
			assert.Equal(t, "req-1", resp.RequestID)
			assert.Equal(t, "arn:stack/orders", resp.StackID)
			assert.Equal(t, PhysicalResourceID, resp.PhysicalResourceID)
		})
	}
}
