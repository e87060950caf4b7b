package tool

import (
	"context"
	"encoding/json"
	"errors"
	"slices"

	contractx "github.com/tanpawarit/chative-support/agent/contract"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

type Call struct {
	Name           string
	RawParams      json.RawMessage
	ConversationID string
	UserID         string
}

// Invocation is one executed call: the params after identifier injection and the result.
// Tool is the name the model asked for; ID is set only when it resolved to a catalog entry.
type Invocation struct {
	Tool   string
	ID     ID
	Params map[string]any
	Result Result
}

// unknownTool labels calls whose name is not in the agent's catalog.
const unknownTool = "unknown"

// Label is a bounded name for the call, safe to use as a metric label.
func (i Invocation) Label() string {
	if i.ID == "" {
		return unknownTool
	}
	return string(i.ID)
}

func (i Invocation) Trace() storex.ToolCallTrace {
	return storex.ToolCallTrace{Tool: i.Tool, Params: i.Params, Result: i.Result}
}

// Executor runs the tools of one agent against the record store.
type Executor struct {
	agentType contractx.AgentType
	store     storex.Store
}

func NewExecutor(agentType contractx.AgentType, store storex.Store) *Executor {
	return &Executor{agentType: agentType, store: store}
}

// BuildForAgent returns the agent's tool descriptions together with its executor.
func BuildForAgent(agentType contractx.AgentType, store storex.Store) ([]contractx.Capability, *Executor) {
	return Capabilities(agentType), NewExecutor(agentType, store)
}

// Execute never returns an error: lookup, validation and store failures all
// come back as a failed Result.
func (e *Executor) Execute(ctx context.Context, call Call) Invocation {
	params, err := decodeParams(call.RawParams)
	inv := Invocation{Tool: call.Name, Params: params}

	spec, found := Lookup(e.agentType, call.Name)
	if !found {
		inv.Result = fail(errToolNotFound)
		return inv
	}
	inv.ID = spec.ID
	if err != nil {
		inv.Result = fail(err.Error())
		return inv
	}

	spec.inject(params, call.ConversationID, call.UserID)
	if err := spec.validate(params); err != nil {
		inv.Result = fail(err.Error())
		return inv
	}

	result, err := e.dispatch(ctx, spec.ID, params)
	if err != nil {
		inv.Result = fail(err.Error())
		return inv
	}
	inv.Result = result
	return inv
}

func (e *Executor) dispatch(ctx context.Context, id ID, params map[string]any) (Result, error) {
	switch id {
	case QueryConversationHistory:
		p, err := bind[historyParams](params)
		if err != nil {
			return Result{}, err
		}
		limit := int(p.Limit)
		if limit <= 0 {
			limit = storex.DefaultHistoryLimit
		}
		msgs, err := e.store.Messages().ListRecent(ctx, p.ConversationID, limit)
		if err != nil {
			return Result{}, err
		}
		slices.Reverse(msgs)
		return succeed("messages", nonNil(msgs)), nil

	case SearchFAQs:
		p, err := bind[faqParams](params)
		if err != nil {
			return Result{}, err
		}
		faqs, err := e.store.FAQs().Search(ctx, p.Query, p.Category)
		if err != nil {
			return Result{}, err
		}
		return succeed("faqs", nonNil(faqs)), nil

	case FetchOrderDetails:
		p, err := bind[orderNumberParams](params)
		if err != nil {
			return Result{}, err
		}
		order, err := e.store.Orders().GetByNumber(ctx, p.OrderNumber)
		if err != nil {
			return notFoundAs(err, "Order not found")
		}
		return succeed("order", order), nil

	case CheckDeliveryStatus:
		p, err := bind[orderNumberParams](params)
		if err != nil {
			return Result{}, err
		}
		order, err := e.store.Orders().GetByNumber(ctx, p.OrderNumber)
		if err != nil {
			return notFoundAs(err, "Order not found")
		}
		return succeedWith(map[string]any{
			"status":         order.Status,
			"trackingNumber": nullable(order.TrackingNumber),
			"shippingInfo":   order.ShippingInfo,
		}), nil

	case GetUserOrders:
		p, err := bind[userParams](params)
		if err != nil {
			return Result{}, err
		}
		orders, err := e.store.Orders().ListByUser(ctx, p.UserID)
		if err != nil {
			return Result{}, err
		}
		return succeed("orders", nonNil(orders)), nil

	case GetInvoiceDetails:
		p, err := bind[invoiceParams](params)
		if err != nil {
			return Result{}, err
		}
		invoice, err := e.store.Invoices().GetByNumber(ctx, p.InvoiceNumber)
		if err != nil {
			return notFoundAs(err, "Invoice not found")
		}
		return succeed("invoice", invoice), nil

	case CheckRefundStatus:
		p, err := bind[refundLookupParams](params)
		if err != nil {
			return Result{}, err
		}
		refund, err := e.store.Refunds().GetByNumber(ctx, p.RefundNumber)
		if err != nil {
			return notFoundAs(err, "Refund not found")
		}
		return succeed("refund", refund), nil

	case GetUserInvoices:
		p, err := bind[userParams](params)
		if err != nil {
			return Result{}, err
		}
		invoices, err := e.store.Invoices().ListByUser(ctx, p.UserID)
		if err != nil {
			return Result{}, err
		}
		return succeed("invoices", nonNil(invoices)), nil

	case RequestRefund:
		p, err := bind[refundRequestParams](params)
		if err != nil {
			return Result{}, err
		}
		refund, err := e.store.Refunds().Create(ctx, storex.NewRefund(p.UserID, p.OrderID, p.Amount, p.Reason))
		if err != nil {
			return Result{}, err
		}
		return succeed("refund", refund), nil

	default:
		return fail(errToolNotFound), nil
	}
}

func notFoundAs(err error, msg string) (Result, error) {
	if errors.Is(err, storex.ErrNotFound) {
		return fail(msg), nil
	}
	return Result{}, err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
