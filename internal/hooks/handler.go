// Package hooks exposes the record hook endpoints the platform calls.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/nabeeghrb/netsuite-rb/internal/accounting/transactions"
	"github.com/nabeeghrb/netsuite-rb/internal/messages"
	"github.com/nabeeghrb/netsuite-rb/internal/observability"
	"github.com/nabeeghrb/netsuite-rb/internal/platform/httpx"
	"github.com/nabeeghrb/netsuite-rb/internal/sales/orders"
	"github.com/nabeeghrb/netsuite-rb/internal/shared"
	"github.com/nabeeghrb/netsuite-rb/internal/workorders"
	"github.com/nabeeghrb/netsuite-rb/jobs"
)

// Hook names used in logs, audit rows and metrics.
const (
	HookSalesOrderBeforeSubmit = "sales_order.before_submit"
	HookSalesOrderValidateSave = "sales_order.validate_save"
	HookWorkOrderAfterSubmit   = "work_order.after_submit"
	HookTransactionDelete      = "transaction.before_delete"
	HookMessageBeforeLoad      = "message.before_load"
	HookMessageBeforeSubmit    = "message.before_submit"
	HookItemAfterSubmit        = "item.after_submit"
)

// SalesOrderService is the sales order hook logic.
type SalesOrderService interface {
	SplitShortLines(ctx context.Context, order orders.SalesOrder) (orders.SplitResult, error)
	SourceDeliveryFlags(ctx context.Context, order orders.SalesOrder) (orders.DeliveryFlags, bool)
	CheckDuplicatePO(ctx context.Context, order orders.SalesOrder) (orders.POCheck, error)
}

// TaskQueue enqueues after-submit work.
type TaskQueue interface {
	EnqueueWorkOrderBin(ctx context.Context, payload jobs.WorkOrderBinPayload) (*asynq.TaskInfo, error)
}

// DeleteGuard decides transaction deletes.
type DeleteGuard interface {
	GuardDelete(ctx context.Context, txn transactions.Transaction) error
}

// MessagePolicy adjusts email messages.
type MessagePolicy interface {
	StripReplyAll(d messages.Draft) ([]messages.Recipient, bool)
	EnforceTemplatePolicy(m messages.Message) (messages.Message, bool)
}

// ItemCache drops cached item data.
type ItemCache interface {
	InvalidateItems(ctx context.Context) error
}

// OutcomeRecorder counts hook outcomes.
type OutcomeRecorder interface {
	HookOutcome(hook, outcome string)
}

// Deps groups the services behind the hook endpoints.
type Deps struct {
	Orders       SalesOrderService
	Queue        TaskQueue
	Transactions DeleteGuard
	Messages     MessagePolicy
	Items        ItemCache
	Metrics      OutcomeRecorder
	Tokens       *shared.TokenVerifier
}

// Handler wires HTTP endpoints for record hooks.
type Handler struct {
	logger    *slog.Logger
	deps      Deps
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, deps Deps) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, deps: deps, validator: validator.New()}
}

// MountRoutes registers hook routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(RequireToken(h.deps.Tokens, h.logger))
	r.Use(Invocation)
	r.Post("/sales-orders/before-submit", h.salesOrderBeforeSubmit)
	r.Post("/sales-orders/validate-save", h.salesOrderValidateSave)
	r.Post("/work-orders/after-submit", h.workOrderAfterSubmit)
	r.Post("/transactions/before-delete", h.transactionBeforeDelete)
	r.Post("/messages/before-load", h.messageBeforeLoad)
	r.Post("/messages/before-submit", h.messageBeforeSubmit)
	r.Post("/items/after-submit", h.itemAfterSubmit)
}

func (h *Handler) decode(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return err
	}
	if err := h.validator.Struct(target); err != nil {
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	return nil
}

func (h *Handler) outcome(hook, outcome string) {
	if h.deps.Metrics != nil {
		h.deps.Metrics.HookOutcome(hook, outcome)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, hook string, err error) {
	h.outcome(hook, observability.OutcomeError)
	logger := h.logger.With(slog.String("hook", hook), slog.String("invocation_id", shared.InvocationFromContext(r.Context())))
	if errors.Is(err, httpx.ErrValidation) {
		logger.Warn("hook rejected", slog.Any("error", err))
	} else {
		logger.Error("hook failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func (h *Handler) salesOrderBeforeSubmit(w http.ResponseWriter, r *http.Request) {
	var req salesOrderRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, HookSalesOrderBeforeSubmit, err)
		return
	}
	ctx := r.Context()
	order := req.toOrder()
	resp := beforeSubmitResponse{InvocationID: shared.InvocationFromContext(ctx)}

	if flags, ok := h.deps.Orders.SourceDeliveryFlags(ctx, order); ok {
		resp.DeliveryFlags = &flags
	}

	result, err := h.deps.Orders.SplitShortLines(ctx, order)
	if err != nil {
		h.fail(w, r, HookSalesOrderBeforeSubmit, err)
		return
	}
	resp.Split = splitSummaryDTO{Applied: result.Applied, SkipReason: result.SkipReason, Splits: result.Splits()}
	if result.Applied {
		resp.Lines = make([]lineOutDTO, 0, len(result.Lines))
		for _, l := range result.Lines {
			resp.Lines = append(resp.Lines, lineOut(l))
		}
	}

	outcome := observability.OutcomeNoChange
	if resp.DeliveryFlags != nil || result.Applied {
		outcome = observability.OutcomeApplied
	}
	h.outcome(HookSalesOrderBeforeSubmit, outcome)
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) salesOrderValidateSave(w http.ResponseWriter, r *http.Request) {
	var req validateSaveRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, HookSalesOrderValidateSave, err)
		return
	}
	ctx := r.Context()
	resp := validateSaveResponse{InvocationID: shared.InvocationFromContext(ctx), Allow: true, Alerts: []orders.Alert{}}

	check, err := h.deps.Orders.CheckDuplicatePO(ctx, orders.SalesOrder{
		ID:         req.ID,
		Event:      orders.EventType(req.Event),
		CustomerID: req.CustomerID,
		PONumber:   req.PONumber,
	})
	if err != nil {
		h.fail(w, r, HookSalesOrderValidateSave, err)
		return
	}
	if check.Duplicate {
		resp.Allow = false
		resp.Alerts = append(resp.Alerts, check.Alert)
	}
	if alert, ok := orders.ShippingReminder(req.ItemsChanged); ok {
		resp.Alerts = append(resp.Alerts, alert)
	}

	switch {
	case !resp.Allow:
		h.outcome(HookSalesOrderValidateSave, observability.OutcomeBlocked)
	case len(resp.Alerts) > 0:
		h.outcome(HookSalesOrderValidateSave, observability.OutcomeApplied)
	default:
		h.outcome(HookSalesOrderValidateSave, observability.OutcomeNoChange)
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) workOrderAfterSubmit(w http.ResponseWriter, r *http.Request) {
	var req workOrderRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, HookWorkOrderAfterSubmit, err)
		return
	}
	ctx := r.Context()
	invocation := shared.InvocationFromContext(ctx)
	if !workorders.Eligible(req.Event) {
		h.outcome(HookWorkOrderAfterSubmit, observability.OutcomeNoChange)
		httpx.JSON(w, http.StatusOK, workOrderResponse{InvocationID: invocation})
		return
	}

	payload := jobs.WorkOrderBinPayload{InvocationID: invocation, WorkOrderID: req.ID}
	for _, c := range req.Components {
		payload.Components = append(payload.Components, jobs.WorkOrderComponent{ItemID: c.ItemID, ItemType: c.ItemType})
	}
	resp := workOrderResponse{InvocationID: invocation, Queued: true, TaskID: jobs.WorkOrderBinTaskID(invocation)}
	info, err := h.deps.Queue.EnqueueWorkOrderBin(ctx, payload)
	switch {
	case errors.Is(err, jobs.ErrAlreadyQueued):
		resp.Duplicate = true
	case err != nil:
		h.fail(w, r, HookWorkOrderAfterSubmit, fmt.Errorf("%w: enqueue: %v", httpx.ErrUnavailable, err))
		return
	case info != nil:
		resp.TaskID = info.ID
	}
	h.logger.Info("work order bin assignment queued",
		slog.String("invocation_id", invocation),
		slog.String("work_order_id", req.ID),
		slog.String("task_id", resp.TaskID),
		slog.Bool("duplicate", resp.Duplicate),
	)
	h.outcome(HookWorkOrderAfterSubmit, observability.OutcomeQueued)
	httpx.JSON(w, http.StatusAccepted, resp)
}

func (h *Handler) transactionBeforeDelete(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, HookTransactionDelete, err)
		return
	}
	ctx := r.Context()
	resp := deleteDecisionResponse{InvocationID: shared.InvocationFromContext(ctx), Allow: true}
	if req.Event != "delete" {
		h.outcome(HookTransactionDelete, observability.OutcomeNoChange)
		httpx.JSON(w, http.StatusOK, resp)
		return
	}

	err := h.deps.Transactions.GuardDelete(ctx, transactions.Transaction{ID: req.ID, TranID: req.TranID})
	var blocked *transactions.BlockedError
	switch {
	case errors.As(err, &blocked):
		resp.Allow = false
		resp.Title = blocked.Title
		resp.Message = blocked.Message
		h.outcome(HookTransactionDelete, observability.OutcomeBlocked)
		httpx.JSON(w, http.StatusConflict, resp)
	case err != nil:
		h.fail(w, r, HookTransactionDelete, err)
	default:
		h.outcome(HookTransactionDelete, observability.OutcomeNoChange)
		httpx.JSON(w, http.StatusOK, resp)
	}
}

func (h *Handler) messageBeforeLoad(w http.ResponseWriter, r *http.Request) {
	var req messageLoadRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, HookMessageBeforeLoad, err)
		return
	}
	kept, changed := h.deps.Messages.StripReplyAll(messages.Draft{
		Event:      req.Event,
		Compose:    req.Compose,
		Recipients: req.Recipients,
	})
	if kept == nil {
		kept = []messages.Recipient{}
	}
	h.outcome(HookMessageBeforeLoad, changedOutcome(changed))
	httpx.JSON(w, http.StatusOK, messageLoadResponse{
		InvocationID: shared.InvocationFromContext(r.Context()),
		Changed:      changed,
		Recipients:   kept,
	})
}

func (h *Handler) messageBeforeSubmit(w http.ResponseWriter, r *http.Request) {
	var req messageSubmitRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, HookMessageBeforeSubmit, err)
		return
	}
	msg, changed := h.deps.Messages.EnforceTemplatePolicy(messages.Message{
		TemplateID:         req.TemplateID,
		IncludeTransaction: req.IncludeTransaction,
	})
	h.outcome(HookMessageBeforeSubmit, changedOutcome(changed))
	httpx.JSON(w, http.StatusOK, messageSubmitResponse{
		InvocationID:       shared.InvocationFromContext(r.Context()),
		Changed:            changed,
		IncludeTransaction: msg.IncludeTransaction,
	})
}

func (h *Handler) itemAfterSubmit(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, HookItemAfterSubmit, err)
		return
	}
	if err := h.deps.Items.InvalidateItems(r.Context()); err != nil {
		h.fail(w, r, HookItemAfterSubmit, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err))
		return
	}
	h.outcome(HookItemAfterSubmit, observability.OutcomeApplied)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"invocation_id": shared.InvocationFromContext(r.Context()),
		"invalidated":   true,
	})
}

func changedOutcome(changed bool) string {
	if changed {
		return observability.OutcomeApplied
	}
	return observability.OutcomeNoChange
}
