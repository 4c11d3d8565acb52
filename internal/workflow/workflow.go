// Package workflow runs order cancellations as a small state machine:
//
//	Invoke -> Success
//	Invoke -> Catch -> ForwardToDLQ
//
// The invocation is retried on transient failures and bounded by a total timeout.
// Anything that does not end in Success is forwarded to the cancel failure queue.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/online-orders/internal/deadletter"
	ordererrors "github.com/abgdnv/online-orders/internal/errors"
	"github.com/abgdnv/online-orders/internal/handler"
	"github.com/abgdnv/online-orders/internal/metrics"
	"github.com/abgdnv/online-orders/pkg/config"
	"github.com/abgdnv/online-orders/pkg/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

const ActionCancel = "cancel"

const (
	StateInvoke       = "Invoke"
	StateSuccess      = "Success"
	StateCatch        = "Catch"
	StateForwardToDLQ = "ForwardToDLQ"

	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
)

// Error names reported in Result.Error.
const (
	ErrorTimeout      = "Timeout"
	ErrorTaskFailed   = "TaskFailed"
	ErrorInvalidInput = "InvalidInput"
)

type Input struct {
	ActionType string          `json:"actionType"`
	Body       json.RawMessage `json:"body"`
}

// Result is the terminal state of one execution.
type Result struct {
	ExecutionID string          `json:"executionId"`
	Status      string          `json:"status"`
	State       string          `json:"state"`
	Output      json.RawMessage `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
}

type Invoker interface {
	Handle(ctx context.Context, req handler.CancelRequest) error
}

type Workflow struct {
	invoker        Invoker
	dlq            deadletter.Queue
	cfg            config.WorkflowConfig
	forwardTimeout time.Duration
	metrics        *metrics.Recorder
	logger         *slog.Logger
}

func New(invoker Invoker, dlq deadletter.Queue, cfg config.WorkflowConfig, forwardTimeout time.Duration,
	m *metrics.Recorder, logger *slog.Logger) *Workflow {
	return &Workflow{
		invoker:        invoker,
		dlq:            dlq,
		cfg:            cfg,
		forwardTimeout: forwardTimeout,
		metrics:        m,
		logger:         logger.With("component", "cancel-workflow"),
	}
}

// Execute runs the workflow to a terminal state. The returned error is only
// set when the failure could not be forwarded to the failure queue.
func (w *Workflow) Execute(ctx context.Context, in Input) (*Result, error) {
	res := &Result{ExecutionID: uuid.NewString(), State: StateInvoke}
	ctx = logger.WithCorrelationID(ctx, res.ExecutionID)
	w.logger.InfoContext(ctx, "Workflow started", "action_type", in.ActionType)

	err := w.invoke(ctx, in)
	if err == nil {
		res.State = StateSuccess
		res.Status = StatusSucceeded
		res.Output = in.Body
		w.metrics.OrderCancelled(ctx)
		w.logger.InfoContext(ctx, "Workflow succeeded")
		return res, nil
	}

	res.State = StateCatch
	res.Status = StatusFailed
	res.Error = errorName(err)
	res.Output = cause(err, in)
	w.logger.WarnContext(ctx, "Workflow caught a failure", "error", err, "error_name", res.Error)
	w.metrics.WorkflowFailed(ctx, res.Error)

	// ctx may already be expired here
	fwdCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.forwardTimeout)
	defer cancel()
	msg := deadletter.NewMessage(res.Output, "cancel-workflow", err).
		With("execution-id", res.ExecutionID).
		With("error-name", res.Error)
	if sendErr := w.dlq.Send(fwdCtx, msg); sendErr != nil {
		w.logger.ErrorContext(ctx, "Failed to forward failure", "error", sendErr, "queue", w.dlq.Name())
		return res, fmt.Errorf("failed to forward cancellation failure: %w", sendErr)
	}
	res.State = StateForwardToDLQ
	w.metrics.DeadLettered(ctx, w.dlq.Name())
	w.logger.InfoContext(ctx, "Failure forwarded", "queue", w.dlq.Name())
	return res, nil
}

// invoke calls the cancel handler, retrying transient failures until the
// attempts or the timeout run out.
func (w *Workflow) invoke(ctx context.Context, in Input) error {
	if in.ActionType != ActionCancel {
		return fmt.Errorf("%w: %q", ordererrors.ErrUnsupportedAction, in.ActionType)
	}
	ctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.cfg.Retry.InitialBackoff
	b.MaxInterval = w.cfg.Retry.MaxBackoff
	b.MaxElapsedTime = 0
	var policy backoff.BackOff = b
	if w.cfg.Retry.MaxAttempts > 0 {
		policy = backoff.WithMaxRetries(policy, uint64(w.cfg.Retry.MaxAttempts-1))
	}

	attempt := 0
	var lastErr error
	err := backoff.Retry(func() error {
		attempt++
		err := w.call(ctx, handler.CancelRequest{Body: in.Body})
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil || !ordererrors.IsTransient(err) {
			return backoff.Permanent(err)
		}
		w.logger.WarnContext(ctx, "Transient failure, retrying", "attempt", attempt, "error", err)
		return err
	}, backoff.WithContext(policy, ctx))

	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if lastErr == nil {
			lastErr = ctx.Err()
		}
		return fmt.Errorf("%w after %s: %w", ordererrors.ErrWorkflowTimeout, w.cfg.Timeout, lastErr)
	}
	if lastErr != nil {
		return lastErr
	}
	return err
}

// call runs the handler but stops waiting for it once ctx is done, so a
// handler that ignores cancellation cannot hold the workflow past its timeout.
// A panicking handler is reported as a service exception.
func (w *Workflow) call(ctx context.Context, req handler.CancelRequest) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: handler panicked: %v", ordererrors.ErrServiceException, r)
			}
		}()
		done <- w.invoker.Handle(ctx, req)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cause is the payload forwarded on failure: the handler's failure payload
// when there is one, the request body otherwise.
func cause(err error, in Input) json.RawMessage {
	var failure *handler.Failure
	if errors.As(err, &failure) && len(failure.Payload) > 0 {
		return failure.Payload
	}
	if len(in.Body) > 0 {
		return in.Body
	}
	raw, _ := json.Marshal(in)
	return raw
}

func errorName(err error) string {
	switch {
	case errors.Is(err, ordererrors.ErrWorkflowTimeout):
		return ErrorTimeout
	case ordererrors.IsPermanent(err):
		return ErrorInvalidInput
	default:
		return ErrorTaskFailed
	}
}
