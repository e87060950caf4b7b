package store

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

const DefaultConversationTitle = "New Conversation"

type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  []Message `json:"messages,omitempty"`
}

// ToolCallTrace records one tool invocation made while producing an assistant message.
type ToolCallTrace struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
	Result any            `json:"result"`
}

type Message struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversationId"`
	Role           Role            `json:"role"`
	Content        string          `json:"content"`
	AgentType      string          `json:"agentType,omitempty"`
	Reasoning      string          `json:"reasoning,omitempty"`
	ToolCalls      []ToolCallTrace `json:"toolCalls,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// NewMessage builds an unsaved message with a fresh id.
func NewMessage(conversationID string, role Role, content string) Message {
	return Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type ShippingInfo struct {
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
}

type Order struct {
	ID             string        `json:"id"`
	OrderNumber    string        `json:"orderNumber"`
	UserID         string        `json:"userId"`
	Status         OrderStatus   `json:"status"`
	Items          []OrderItem   `json:"items"`
	TotalAmount    float64       `json:"totalAmount"`
	TrackingNumber string        `json:"trackingNumber,omitempty"`
	ShippingInfo   *ShippingInfo `json:"shippingInfo,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
)

type InvoiceItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type Invoice struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoiceNumber"`
	UserID        string        `json:"userId"`
	OrderID       string        `json:"orderId,omitempty"`
	Amount        float64       `json:"amount"`
	Status        InvoiceStatus `json:"status"`
	Items         []InvoiceItem `json:"items"`
	DueDate       time.Time     `json:"dueDate"`
	PaidAt        *time.Time    `json:"paidDate,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type RefundStatus string

const (
	RefundPending    RefundStatus = "pending"
	RefundProcessing RefundStatus = "processing"
	RefundCompleted  RefundStatus = "completed"
	RefundRejected   RefundStatus = "rejected"
)

type Refund struct {
	ID           string       `json:"id"`
	RefundNumber string       `json:"refundNumber"`
	UserID       string       `json:"userId"`
	OrderID      string       `json:"orderId"`
	Amount       float64      `json:"amount"`
	Reason       string       `json:"reason"`
	Status       RefundStatus `json:"status"`
	RequestedAt  time.Time    `json:"requestedAt"`
	ProcessedAt  *time.Time   `json:"processedDate,omitempty"`
}

// NewRefund builds a pending refund request; the store assigns the number.
func NewRefund(userID, orderID string, amount float64, reason string) Refund {
	return Refund{
		ID:      uuid.NewString(),
		UserID:  userID,
		OrderID: orderID,
		Amount:  amount,
		Reason:  reason,
		Status:  RefundPending,
	}
}

type FAQ struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Category  string    `json:"category"`
	Keywords  []string  `json:"keywords"`
	CreatedAt time.Time `json:"createdAt"`
}
