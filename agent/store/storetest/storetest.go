// Package storetest holds the behaviour checks every record store must pass.
package storetest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

// Factory returns a store loaded with the demo fixtures and no conversations.
type Factory func(t *testing.T) storex.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("Conversations", func(t *testing.T) { testConversations(t, newStore(t)) })
	t.Run("Messages", func(t *testing.T) { testMessages(t, newStore(t)) })
	t.Run("Orders", func(t *testing.T) { testOrders(t, newStore(t)) })
	t.Run("Invoices", func(t *testing.T) { testInvoices(t, newStore(t)) })
	t.Run("Refunds", func(t *testing.T) { testRefunds(t, newStore(t)) })
	t.Run("FAQs", func(t *testing.T) { testFAQs(t, newStore(t)) })
}

func testConversations(t *testing.T, s storex.Store) {
	ctx := context.Background()

	conv, err := s.Conversations().Create(ctx, "u1", "")
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, storex.DefaultConversationTitle, conv.Title)

	other, err := s.Conversations().Create(ctx, "u1", "Billing question")
	require.NoError(t, err)
	assert.Equal(t, "Billing question", other.Title)

	_, err = s.Messages().Create(ctx, storex.NewMessage(conv.ID, storex.RoleUser, "first"))
	require.NoError(t, err)
	_, err = s.Messages().Create(ctx, storex.NewMessage(conv.ID, storex.RoleAssistant, "second"))
	require.NoError(t, err)

	got, err := s.Conversations().Get(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "first", got.Messages[0].Content)
	assert.Equal(t, "second", got.Messages[1].Content)

	list, err := s.Conversations().ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, conv.ID, list[0].ID, "most recently updated first")
	require.Len(t, list[0].Messages, 1)
	assert.Equal(t, "second", list[0].Messages[0].Content)
	assert.Empty(t, list[1].Messages)

	empty, err := s.Conversations().ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.Conversations().UpdateTitle(ctx, conv.ID, "Where is my order..."))
	got, err = s.Conversations().Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Where is my order...", got.Title)

	require.NoError(t, s.Conversations().Delete(ctx, conv.ID))
	_, err = s.Conversations().Get(ctx, conv.ID)
	assert.ErrorIs(t, err, storex.ErrNotFound)
	msgs, err := s.Messages().ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.ErrorIs(t, s.Conversations().Delete(ctx, conv.ID), storex.ErrNotFound)
	assert.ErrorIs(t, s.Conversations().UpdateTitle(ctx, "missing", "x"), storex.ErrNotFound)
}

func testMessages(t *testing.T, s storex.Store) {
	ctx := context.Background()

	conv, err := s.Conversations().Create(ctx, "u1", "")
	require.NoError(t, err)

	for _, content := range []string{"m1", "m2", "m3", "m4"} {
		_, err := s.Messages().Create(ctx, storex.NewMessage(conv.ID, storex.RoleUser, content))
		require.NoError(t, err)
	}

	reply := storex.NewMessage(conv.ID, storex.RoleAssistant, "shipped")
	reply.AgentType = "order"
	reply.Reasoning = "Used tool: checkDeliveryStatus"
	reply.ToolCalls = []storex.ToolCallTrace{{
		Tool:   "checkDeliveryStatus",
		Params: map[string]any{"orderNumber": "ORD-000002"},
		Result: map[string]any{"success": true, "status": "shipped"},
	}}
	saved, err := s.Messages().Create(ctx, reply)
	require.NoError(t, err)
	assert.False(t, saved.CreatedAt.IsZero())

	all, err := s.Messages().ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "m1", all[0].Content)
	last := all[4]
	assert.Equal(t, "order", last.AgentType)
	assert.Equal(t, "Used tool: checkDeliveryStatus", last.Reasoning)
	require.Len(t, last.ToolCalls, 1)
	assert.Equal(t, "checkDeliveryStatus", last.ToolCalls[0].Tool)
	assert.Equal(t, "ORD-000002", last.ToolCalls[0].Params["orderNumber"])

	recent, err := s.Messages().ListRecent(ctx, conv.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "shipped", recent[0].Content)
	assert.Equal(t, "m4", recent[1].Content)

	_, err = s.Messages().Create(ctx, storex.NewMessage("missing", storex.RoleUser, "x"))
	assert.Error(t, err)
}

func testOrders(t *testing.T, s storex.Store) {
	ctx := context.Background()

	o, err := s.Orders().GetByNumber(ctx, "ORD-000002")
	require.NoError(t, err)
	assert.Equal(t, storex.OrderShipped, o.Status)
	assert.Equal(t, "TRK987654321", o.TrackingNumber)
	require.Len(t, o.Items, 2)
	require.NotNil(t, o.ShippingInfo)
	assert.Equal(t, "Los Angeles", o.ShippingInfo.City)

	byID, err := s.Orders().GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, byID.OrderNumber)

	_, err = s.Orders().GetByNumber(ctx, "ORD-999999")
	assert.ErrorIs(t, err, storex.ErrNotFound)

	list, err := s.Orders().ListByUser(ctx, storex.DemoUserID)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	found, err := s.Orders().SearchByNumberOrTracking(ctx, "trk9876", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "ORD-000002", found[0].OrderNumber)

	found, err = s.Orders().SearchByNumberOrTracking(ctx, "ORD-", 2)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	updated, err := s.Orders().UpdateStatus(ctx, o.ID, storex.OrderDelivered)
	require.NoError(t, err)
	assert.Equal(t, storex.OrderDelivered, updated.Status)

	_, err = s.Orders().UpdateStatus(ctx, "missing", storex.OrderDelivered)
	assert.ErrorIs(t, err, storex.ErrNotFound)
}

func testInvoices(t *testing.T, s storex.Store) {
	ctx := context.Background()

	inv, err := s.Invoices().GetByNumber(ctx, "INV-000001")
	require.NoError(t, err)
	assert.Equal(t, storex.InvoicePaid, inv.Status)
	assert.NotNil(t, inv.PaidAt)
	require.Len(t, inv.Items, 1)

	pending, err := s.Invoices().GetByNumber(ctx, "INV-000003")
	require.NoError(t, err)
	assert.Nil(t, pending.PaidAt)

	_, err = s.Invoices().GetByNumber(ctx, "INV-404")
	assert.ErrorIs(t, err, storex.ErrNotFound)

	list, err := s.Invoices().ListByUser(ctx, storex.DemoUserID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func testRefunds(t *testing.T, s storex.Store) {
	ctx := context.Background()

	existing, err := s.Refunds().GetByNumber(ctx, "RFN-000001")
	require.NoError(t, err)
	assert.Equal(t, storex.RefundCompleted, existing.Status)

	created, err := s.Refunds().Create(ctx, storex.NewRefund(storex.DemoUserID, "ORD-000001", 25, "arrived damaged"))
	require.NoError(t, err)
	assert.Equal(t, "RFN-000003", created.RefundNumber)
	assert.Equal(t, storex.RefundPending, created.Status)
	assert.Nil(t, created.ProcessedAt)

	next, err := s.Refunds().Create(ctx, storex.NewRefund(storex.DemoUserID, "ORD-000003", 10, "late"))
	require.NoError(t, err)
	assert.Equal(t, "RFN-000004", next.RefundNumber)
	assert.Less(t, created.RefundNumber, next.RefundNumber)

	byOrder, err := s.Refunds().ListByOrder(ctx, "ORD-000001")
	require.NoError(t, err)
	assert.Len(t, byOrder, 2)

	processing, err := s.Refunds().UpdateStatus(ctx, created.ID, storex.RefundProcessing)
	require.NoError(t, err)
	assert.Nil(t, processing.ProcessedAt)

	completed, err := s.Refunds().UpdateStatus(ctx, created.ID, storex.RefundCompleted)
	require.NoError(t, err)
	assert.NotNil(t, completed.ProcessedAt)

	_, err = s.Refunds().UpdateStatus(ctx, "missing", storex.RefundCompleted)
	assert.ErrorIs(t, err, storex.ErrNotFound)
}

func testFAQs(t *testing.T, s storex.Store) {
	ctx := context.Background()

	hits, err := s.FAQs().Search(ctx, "password", "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Contains(t, hits[0].Keywords, "password")

	hits, err = s.FAQs().Search(ctx, "Money Back", "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.True(t, strings.Contains(hits[0].Question, "refund"))

	hits, err = s.FAQs().Search(ctx, "order", "billing")
	require.NoError(t, err)
	for _, h := range hits {
		assert.Equal(t, "billing", h.Category)
	}

	hits, err = s.FAQs().Search(ctx, "e", "")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(hits), storex.FAQSearchLimit)

	all, err := s.FAQs().ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	orders, err := s.FAQs().ListByCategory(ctx, "orders")
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}
