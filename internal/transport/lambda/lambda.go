// Package lambda adapts the order handlers to serverless invocation events.
package lambda

import (
	"context"

	"github.com/abgdnv/online-orders/internal/eventbus"
	"github.com/abgdnv/online-orders/internal/handler"
	"github.com/abgdnv/online-orders/internal/provisioner"
	"github.com/abgdnv/online-orders/pkg/logger"
	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
)

type CreateHandler interface {
	Handle(ctx context.Context, event eventbus.Envelope) error
}

type CancelHandler interface {
	Handle(ctx context.Context, req handler.CancelRequest) error
}

type ListHandler interface {
	Handle(ctx context.Context) handler.Response
}

type ProvisionHandler interface {
	Handle(ctx context.Context, req provisioner.Request) provisioner.Response
}

// withInvocationID uses the invocation request id as correlation id when one is present.
func withInvocationID(ctx context.Context) context.Context {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return logger.WithCorrelationID(ctx, lc.AwsRequestID)
	}
	return ctx
}

// ToEnvelope converts a routed bus event into the envelope understood by the create handler.
func ToEnvelope(event events.CloudWatchEvent) eventbus.Envelope {
	return eventbus.Envelope{
		ID:         event.ID,
		Source:     event.Source,
		DetailType: event.DetailType,
		Time:       event.Time,
		Detail:     event.Detail,
	}
}

// CreateOrder returns the entrypoint for bus events carrying a new order.
func CreateOrder(h CreateHandler) func(context.Context, events.CloudWatchEvent) error {
	return func(ctx context.Context, event events.CloudWatchEvent) error {
		return h.Handle(withInvocationID(ctx), ToEnvelope(event))
	}
}

// CancelOrder returns the entrypoint invoked by the cancellation workflow.
func CancelOrder(h CancelHandler) func(context.Context, handler.CancelRequest) error {
	return func(ctx context.Context, req handler.CancelRequest) error {
		return h.Handle(withInvocationID(ctx), req)
	}
}

// ListOrders returns the gateway entrypoint for GET /orders.
func ListOrders(h ListHandler) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, _ events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		resp := h.Handle(withInvocationID(ctx))
		return events.APIGatewayProxyResponse{
			StatusCode: resp.StatusCode,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       resp.Body,
		}, nil
	}
}

// ToProvisionRequest converts a custom resource lifecycle event.
func ToProvisionRequest(event cfn.Event) provisioner.Request {
	return provisioner.Request{
		RequestType:        string(event.RequestType),
		LogicalResourceID:  event.LogicalResourceID,
		RequestID:          event.RequestID,
		StackID:            event.StackID,
		ResponseURL:        event.ResponseURL,
		ResourceProperties: event.ResourceProperties,
	}
}

// CreateTable returns the entrypoint for table lifecycle events.
// The provisioning outcome is always reported in the response, never as an invocation error.
func CreateTable(h ProvisionHandler) func(context.Context, cfn.Event) (provisioner.Response, error) {
	return func(ctx context.Context, event cfn.Event) (provisioner.Response, error) {
		return h.Handle(withInvocationID(ctx), ToProvisionRequest(event)), nil
	}
}
