package bunstore

import (
	"time"

	storex "github.com/tanpawarit/chative-support/agent/store"
	"github.com/uptrace/bun"
)

type conversationRow struct {
	bun.BaseModel `bun:"table:conversations"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	Title     string    `bun:"title,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func (r conversationRow) model() storex.Conversation {
	return storex.Conversation{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type messageRow struct {
	bun.BaseModel `bun:"table:messages"`

	ID             string                 `bun:"id,pk"`
	ConversationID string                 `bun:"conversation_id,notnull"`
	Role           string                 `bun:"role,notnull"`
	Content        string                 `bun:"content,notnull"`
	AgentType      string                 `bun:"agent_type,nullzero"`
	Reasoning      string                 `bun:"reasoning,nullzero"`
	ToolCalls      []storex.ToolCallTrace `bun:"tool_calls,type:jsonb"`
	CreatedAt      time.Time              `bun:"created_at,notnull"`
}

func newMessageRow(m storex.Message) messageRow {
	return messageRow{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           string(m.Role),
		Content:        m.Content,
		AgentType:      m.AgentType,
		Reasoning:      m.Reasoning,
		ToolCalls:      m.ToolCalls,
		CreatedAt:      m.CreatedAt,
	}
}

func (r messageRow) model() storex.Message {
	return storex.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		Role:           storex.Role(r.Role),
		Content:        r.Content,
		AgentType:      r.AgentType,
		Reasoning:      r.Reasoning,
		ToolCalls:      r.ToolCalls,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

type orderRow struct {
	bun.BaseModel `bun:"table:orders"`

	ID             string               `bun:"id,pk"`
	OrderNumber    string               `bun:"order_number,unique,notnull"`
	UserID         string               `bun:"user_id,notnull"`
	Status         string               `bun:"status,notnull"`
	Items          []storex.OrderItem   `bun:"items,type:jsonb"`
	TotalAmount    float64              `bun:"total_amount,notnull"`
	TrackingNumber string               `bun:"tracking_number,nullzero"`
	ShippingInfo   *storex.ShippingInfo `bun:"shipping_info,type:jsonb"`
	CreatedAt      time.Time            `bun:"created_at,notnull"`
	UpdatedAt      time.Time            `bun:"updated_at,notnull"`
}

func newOrderRow(o storex.Order) orderRow {
	return orderRow{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		Status:         string(o.Status),
		Items:          o.Items,
		TotalAmount:    o.TotalAmount,
		TrackingNumber: o.TrackingNumber,
		ShippingInfo:   o.ShippingInfo,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func (r orderRow) model() storex.Order {
	items := r.Items
	if items == nil {
		items = []storex.OrderItem{}
	}
	return storex.Order{
		ID:             r.ID,
		OrderNumber:    r.OrderNumber,
		UserID:         r.UserID,
		Status:         storex.OrderStatus(r.Status),
		Items:          items,
		TotalAmount:    r.TotalAmount,
		TrackingNumber: r.TrackingNumber,
		ShippingInfo:   r.ShippingInfo,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

type invoiceRow struct {
	bun.BaseModel `bun:"table:invoices"`

	ID            string               `bun:"id,pk"`
	InvoiceNumber string               `bun:"invoice_number,unique,notnull"`
	UserID        string               `bun:"user_id,notnull"`
	OrderID       string               `bun:"order_id,nullzero"`
	Amount        float64              `bun:"amount,notnull"`
	Status        string               `bun:"status,notnull"`
	Items         []storex.InvoiceItem `bun:"items,type:jsonb"`
	DueDate       time.Time            `bun:"due_date,notnull"`
	PaidAt        *time.Time           `bun:"paid_at"`
	CreatedAt     time.Time            `bun:"created_at,notnull"`
}

func newInvoiceRow(v storex.Invoice) invoiceRow {
	return invoiceRow{
		ID:            v.ID,
		InvoiceNumber: v.InvoiceNumber,
		UserID:        v.UserID,
		OrderID:       v.OrderID,
		Amount:        v.Amount,
		Status:        string(v.Status),
		Items:         v.Items,
		DueDate:       v.DueDate,
		PaidAt:        v.PaidAt,
		CreatedAt:     v.CreatedAt,
	}
}

func (r invoiceRow) model() storex.Invoice {
	items := r.Items
	if items == nil {
		items = []storex.InvoiceItem{}
	}
	return storex.Invoice{
		ID:            r.ID,
		InvoiceNumber: r.InvoiceNumber,
		UserID:        r.UserID,
		OrderID:       r.OrderID,
		Amount:        r.Amount,
		Status:        storex.InvoiceStatus(r.Status),
		Items:         items,
		DueDate:       r.DueDate.UTC(),
		PaidAt:        utcPtr(r.PaidAt),
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

type refundRow struct {
	bun.BaseModel `bun:"table:refunds"`

	ID           string     `bun:"id,pk"`
	RefundNumber string     `bun:"refund_number,unique,notnull"`
	UserID       string     `bun:"user_id,notnull"`
	OrderID      string     `bun:"order_id,notnull"`
	Amount       float64    `bun:"amount,notnull"`
	Reason       string     `bun:"reason,notnull"`
	Status       string     `bun:"status,notnull"`
	RequestedAt  time.Time  `bun:"requested_at,notnull"`
	ProcessedAt  *time.Time `bun:"processed_at"`
}

func newRefundRow(r storex.Refund) refundRow {
	return refundRow{
		ID:           r.ID,
		RefundNumber: r.RefundNumber,
		UserID:       r.UserID,
		OrderID:      r.OrderID,
		Amount:       r.Amount,
		Reason:       r.Reason,
		Status:       string(r.Status),
		RequestedAt:  r.RequestedAt,
		ProcessedAt:  r.ProcessedAt,
	}
}

func (r refundRow) model() storex.Refund {
	return storex.Refund{
		ID:           r.ID,
		RefundNumber: r.RefundNumber,
		UserID:       r.UserID,
		OrderID:      r.OrderID,
		Amount:       r.Amount,
		Reason:       r.Reason,
		Status:       storex.RefundStatus(r.Status),
		RequestedAt:  r.RequestedAt.UTC(),
		ProcessedAt:  utcPtr(r.ProcessedAt),
	}
}

type faqRow struct {
	bun.BaseModel `bun:"table:faqs"`

	ID        string    `bun:"id,pk"`
	Question  string    `bun:"question,notnull"`
	Answer    string    `bun:"answer,notnull"`
	Category  string    `bun:"category,notnull"`
	Keywords  []string  `bun:"keywords,type:jsonb"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func newFAQRow(f storex.FAQ) faqRow {
	return faqRow{
		ID:        f.ID,
		Question:  f.Question,
		Answer:    f.Answer,
		Category:  f.Category,
		Keywords:  f.Keywords,
		CreatedAt: f.CreatedAt,
	}
}

func (r faqRow) model() storex.FAQ {
	return storex.FAQ{
		ID:        r.ID,
		Question:  r.Question,
		Answer:    r.Answer,
		Category:  r.Category,
		Keywords:  r.Keywords,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func mapRows[R any, M any](rows []R, fn func(R) M) []M {
	out := make([]M, 0, len(rows))
	for _, r := range rows {
		out = append(out, fn(r))
	}
	return out
}
