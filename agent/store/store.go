package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("record not found")

const (
	DefaultHistoryLimit = 10
	DefaultSearchLimit  = 10
	FAQSearchLimit      = 5
)

type Conversations interface {
	Create(ctx context.Context, userID, title string) (*Conversation, error)
	// Get returns the conversation with its messages in ascending creation order.
	Get(ctx context.Context, id string) (*Conversation, error)
	// ListByUser returns conversations newest-updated first, each carrying only its latest message.
	ListByUser(ctx context.Context, userID string) ([]Conversation, error)
	UpdateTitle(ctx context.Context, id, title string) error
	Delete(ctx context.Context, id string) error
}

type Messages interface {
	Create(ctx context.Context, msg Message) (*Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]Message, error)
	// ListRecent returns up to limit messages, newest first.
	ListRecent(ctx context.Context, conversationID string, limit int) ([]Message, error)
}

type Orders interface {
	GetByNumber(ctx context.Context, orderNumber string) (*Order, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status OrderStatus) (*Order, error)
	SearchByNumberOrTracking(ctx context.Context, query string, limit int) ([]Order, error)
}

type Invoices interface {
	GetByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)
	ListByUser(ctx context.Context, userID string) ([]Invoice, error)
}

type Refunds interface {
	GetByNumber(ctx context.Context, refundNumber string) (*Refund, error)
	ListByOrder(ctx context.Context, orderID string) ([]Refund, error)
	// Create assigns the next refund number and persists the request as pending.
	Create(ctx context.Context, refund Refund) (*Refund, error)
	// UpdateStatus sets ProcessedAt only when the new status is completed.
	UpdateStatus(ctx context.Context, id string, status RefundStatus) (*Refund, error)
}

type FAQs interface {
	// Search returns at most FAQSearchLimit entries matching query, optionally within category.
	Search(ctx context.Context, query, category string) ([]FAQ, error)
	ListAll(ctx context.Context) ([]FAQ, error)
	ListByCategory(ctx context.Context, category string) ([]FAQ, error)
}

type Store interface {
	Conversations() Conversations
	Messages() Messages
	Orders() Orders
	Invoices() Invoices
	Refunds() Refunds
	FAQs() FAQs
}

// RefundNumber formats the n-th refund number.
func RefundNumber(n int) string {
	return fmt.Sprintf("RFN-%06d", n)
}

// MatchFAQ reports whether faq matches query: case-insensitive substring of the
// question or answer, or a keyword equal to the lowercased query.
func MatchFAQ(faq FAQ, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(faq.Question), q) || strings.Contains(strings.ToLower(faq.Answer), q) {
		return true
	}
	for _, kw := range faq.Keywords {
		if kw == q {
			return true
		}
	}
	return false
}

// MatchOrder reports whether the order number or tracking number contains query, case-insensitively.
func MatchOrder(o Order, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(o.OrderNumber), q) {
		return true
	}
	return o.TrackingNumber != "" && strings.Contains(strings.ToLower(o.TrackingNumber), q)
}

// NormalizeLimit falls back to def for non-positive limits.
func NormalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
