// Package provisioner ensures the order table exists in response to
// deployment lifecycle events.
package provisioner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abgdnv/online-orders/pkg/logger"
	"github.com/google/uuid"
)

const PhysicalResourceID = "OnlineDatabaseTable"

const (
	RequestCreate = "Create"
	RequestUpdate = "Update"
	RequestDelete = "Delete"

	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Request is a lifecycle event. Identifier fields are opaque and echoed back.
type Request struct {
	RequestType        string         `json:"RequestType"`
	LogicalResourceID  string         `json:"LogicalResourceId"`
	RequestID          string         `json:"RequestId"`
	StackID            string         `json:"StackId"`
	ResponseURL        string         `json:"ResponseURL,omitempty"`
	ResourceProperties map[string]any `json:"ResourceProperties,omitempty"`
}

type Response struct {
	Status             string `json:"Status"`
	Reason             string `json:"Reason"`
	LogicalResourceID  string `json:"LogicalResourceId"`
	PhysicalResourceID string `json:"PhysicalResourceId"`
	RequestID          string `json:"RequestId"`
	StackID            string `json:"StackId"`
}

type Migrator interface {
	Up(ctx context.Context) error
}

type Provisioner struct {
	migrator Migrator
	logger   *slog.Logger
}

func New(migrator Migrator, logger *slog.Logger) *Provisioner {
	return &Provisioner{migrator: migrator, logger: logger.With("component", "provisioner")}
}

// Handle never returns an error: failures are reported in the response.
func (p *Provisioner) Handle(ctx context.Context, req Request) Response {
	ctx = logger.WithCorrelationID(ctx, uuid.NewString())
	p.logger.InfoContext(ctx, "Provisioning started", "request_type", req.RequestType, "request_id", req.RequestID)

	resp := Response{
		Status:             StatusSuccess,
		LogicalResourceID:  req.LogicalResourceID,
		PhysicalResourceID: PhysicalResourceID,
		RequestID:          req.RequestID,
		StackID:            req.StackID,
	}

	var err error
	switch req.RequestType {
	case RequestCreate, RequestUpdate:
		err = p.migrator.Up(ctx)
	case RequestDelete:
		// the table goes away with the database
	default:
		err = fmt.Errorf("unsupported request type %q", req.RequestType)
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "Provisioning failed", "error", err)
		resp.Status = StatusFailed
		resp.Reason = err.Error()
		return resp
	}
	p.logger.InfoContext(ctx, "Provisioning completed", "status", resp.Status)
	return resp
}
