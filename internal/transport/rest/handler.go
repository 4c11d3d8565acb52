// Package rest provides the public HTTP surface for order operations.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	ordererrors "github.com/abgdnv/online-orders/internal/errors"
	"github.com/abgdnv/online-orders/internal/eventbus"
	"github.com/abgdnv/online-orders/internal/handler"
	"github.com/abgdnv/online-orders/internal/workflow"
	"github.com/abgdnv/online-orders/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	maxBodyBytes = 1 << 20

	bodyCreated   = "Created"
	bodyCancelled = "Cancelled"
	genericError  = "An error occurred"
)

type OrderPublisher interface {
	PublishCreateOrder(ctx context.Context, detail json.RawMessage) (eventbus.Envelope, error)
}

type CancelWorkflow interface {
	Execute(ctx context.Context, in workflow.Input) (*workflow.Result, error)
}

type OrderLister interface {
	Handle(ctx context.Context) handler.Response
}

type Handler struct {
	publisher OrderPublisher
	workflow  CancelWorkflow
	lister    OrderLister
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewHandler creates a new instance of the orders API.
func NewHandler(publisher OrderPublisher, wf CancelWorkflow, lister OrderLister, v *validator.Validate, logger *slog.Logger) *Handler {
	return &Handler{
		publisher: publisher,
		workflow:  wf,
		lister:    lister,
		validate:  v,
		logger:    logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the orders API.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.Create)
	r.Put("/orders", h.Cancel)
	r.Get("/orders", h.List)
	r.Get("/healthz", h.HealthCheck)
}

// Create publishes a CreateOrder event. The order is stored asynchronously,
// so success only means the event was accepted by the bus.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	detail, err := handler.DecodeDetail(h.validate, body)
	if err != nil {
		if errors.Is(err, ordererrors.ErrInvalidUsername) && web.RespondValidationError(w, h.logger, err) {
			return
		}
		h.logger.WarnContext(r.Context(), "Invalid create request", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	env, err := h.publisher.PublishCreateOrder(r.Context(), body)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to publish create order event", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, genericError)
		return
	}
	h.logger.InfoContext(r.Context(), "Create order event published", "event_id", env.ID, "username", detail.Username)
	web.RespondText(w, http.StatusOK, bodyCreated)
}

// Cancel runs the cancellation workflow synchronously. Failure details are
// only available in the failure queue.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	if !json.Valid(body) {
		h.logger.WarnContext(r.Context(), "Invalid cancel request body")
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.workflow.Execute(r.Context(), workflow.Input{ActionType: workflow.ActionCancel, Body: body})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Cancellation workflow failed", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, genericError)
		return
	}
	if res.Status != workflow.StatusSucceeded {
		h.logger.WarnContext(r.Context(), "Cancellation did not succeed",
			"execution_id", res.ExecutionID, "state", res.State, "error_name", res.Error)
		web.RespondError(w, h.logger, http.StatusInternalServerError, genericError)
		return
	}
	h.logger.InfoContext(r.Context(), "Order cancelled", "execution_id", res.ExecutionID)
	web.RespondText(w, http.StatusOK, bodyCancelled)
}

// List returns the list handler's response as is.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	resp := h.lister.Handle(r.Context())
	web.RespondRaw(w, resp.StatusCode, []byte(resp.Body))
}

func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.WarnContext(r.Context(), "Error reading request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	return body, true
}
