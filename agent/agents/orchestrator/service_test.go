package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/chative-support/agent/contract"
	metricsx "github.com/tanpawarit/chative-support/agent/metrics"
	storex "github.com/tanpawarit/chative-support/agent/store"
	"github.com/tanpawarit/chative-support/agent/store/memstore"
)

type fakeRouter struct {
	mu       sync.Mutex
	result   contractx.Classification
	calls    int
	messages []string
	history  [][]*schema.Message
}

func (f *fakeRouter) Classify(ctx context.Context, message string, history []*schema.Message) contractx.Classification {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = append(f.messages, message)
	f.history = append(f.history, history)
	return f.result
}

type fakeSpecialist struct {
	mu        sync.Mutex
	agentType contractx.AgentType
	reply     contractx.AgentReply
	requests  []contractx.SpecialistRequest
}

func (f *fakeSpecialist) Type() contractx.AgentType { return f.agentType }

func (f *fakeSpecialist) Process(ctx context.Context, req contractx.SpecialistRequest) contractx.AgentReply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	reply := f.reply
	if reply.AgentType == "" {
		reply.AgentType = f.agentType
	}
	return reply
}

func (f *fakeSpecialist) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeRegistry struct {
	router      *fakeRouter
	specialists map[contractx.AgentType]*fakeSpecialist
}

func newFakeRegistry(route contractx.Classification) *fakeRegistry {
	r := &fakeRegistry{
		router:      &fakeRouter{result: route},
		specialists: make(map[contractx.AgentType]*fakeSpecialist),
	}
	for _, at := range contractx.SpecialistTypes {
		r.specialists[at] = &fakeSpecialist{
			agentType: at,
			reply:     contractx.AgentReply{Content: "reply from " + string(at)},
		}
	}
	return r
}

func (f *fakeRegistry) Router() contractx.Router { return f.router }

func (f *fakeRegistry) Specialist(t contractx.AgentType) (contractx.Specialist, bool) {
	s, ok := f.specialists[t]
	if !ok {
		return nil, false
	}
	return s, true
}

func (f *fakeRegistry) Agents() []contractx.AgentInfo {
	out := make([]contractx.AgentInfo, 0, len(contractx.SpecialistTypes))
	for _, at := range contractx.SpecialistTypes {
		out = append(out, contractx.AgentInfo{Type: at, Name: string(at)})
	}
	return out
}

func newTestOrchestrator(t *testing.T, store storex.Store, agents contractx.Registry, opts ...Option) *Orchestrator {
	t.Helper()

	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	o, err := New(store, agents, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func route(at contractx.AgentType, reasoning string) contractx.Classification {
	return contractx.Classification{AgentType: at, Reasoning: reasoning, Outcome: contractx.Ok()}
}

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, newFakeRegistry(route(contractx.AgentTypeSupport, ""))); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := New(memstore.New(), nil); err == nil {
		t.Fatal("expected error for nil registry")
	}
}

func TestHandleMessageInvalidInput(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	agents := newFakeRegistry(route(contractx.AgentTypeSupport, "x"))
	o := newTestOrchestrator(t, store, agents)

	for _, msg := range []string{"", "   \n"} {
		_, err := o.HandleMessage(context.Background(), contractx.TurnRequest{Message: msg})
		if !errors.Is(err, ErrInvalidMessage) {
			t.Fatalf("message %q: expected ErrInvalidMessage, got %v", msg, err)
		}
	}

	if agents.router.calls != 0 {
		t.Fatalf("router called %d times for invalid input", agents.router.calls)
	}
	convs, err := store.Conversations().ListByUser(context.Background(), storex.DemoUserID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(convs) != 0 {
		t.Fatalf("expected no conversations, got %d", len(convs))
	}
}

func TestHandleMessageUnknownConversation(t *testing.T) {
	t.Parallel()

	agents := newFakeRegistry(route(contractx.AgentTypeSupport, "x"))
	o := newTestOrchestrator(t, memstore.New(), agents)

	_, err := o.HandleMessage(context.Background(), contractx.TurnRequest{
		ConversationID: "missing",
		Message:        "hello",
	})
	if !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
	if agents.router.calls != 0 {
		t.Fatal("router must not run for an unknown conversation")
	}
}

func TestHandleMessageNewConversation(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	agents := newFakeRegistry(route(contractx.AgentTypeOrder, "The customer asks about an order."))
	trace := storex.ToolCallTrace{
		Tool:   "checkDeliveryStatus",
		Params: map[string]any{"orderNumber": "ORD-000002"},
		Result: map[string]any{"success": true, "status": "shipped"},
	}
	agents.specialists[contractx.AgentTypeOrder].reply = contractx.AgentReply{
		Content:   "Your order ORD-000002 has shipped.",
		Reasoning: "Used tool: checkDeliveryStatus",
		ToolCalls: []storex.ToolCallTrace{trace},
	}
	reg := prometheus.NewRegistry()
	metrics := metricsx.NewMetrics(reg)
	o := newTestOrchestrator(t, store, agents, WithMetrics(metrics))

	resp, err := o.HandleMessage(context.Background(), contractx.TurnRequest{
		Message: "Where is my order ORD-000002?",
	})
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if resp.ConversationID == "" {
		t.Fatal("expected a conversation id")
	}
	if resp.AgentType != contractx.AgentTypeOrder {
		t.Fatalf("AgentType = %s, want order", resp.AgentType)
	}
	if resp.Reasoning != "The customer asks about an order." {
		t.Fatalf("Reasoning = %q", resp.Reasoning)
	}
	if resp.Message == nil || resp.Message.Role != storex.RoleAssistant || resp.Message.Content != "Your order ORD-000002 has shipped." {
		t.Fatalf("Message = %+v", resp.Message)
	}
	if resp.Message.AgentType != "order" || len(resp.Message.ToolCalls) != 1 {
		t.Fatalf("Message = %+v", resp.Message)
	}

	order := agents.specialists[contractx.AgentTypeOrder]
	if order.calls() != 1 || agents.specialists[contractx.AgentTypeSupport].calls() != 0 {
		t.Fatal("expected exactly the order specialist to run")
	}
	req := order.requests[0]
	if req.ConversationID != resp.ConversationID || req.UserID != storex.DemoUserID {
		t.Fatalf("specialist request = %+v", req)
	}
	if len(req.History) != 1 || req.History[0].Role != schema.User || req.History[0].Content != "Where is my order ORD-000002?" {
		t.Fatalf("history = %+v", req.History)
	}

	conv, err := store.Conversations().Get(context.Background(), resp.ConversationID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if conv.Title != "Where is my order ORD-000002?" {
		t.Fatalf("Title = %q", conv.Title)
	}
	if conv.UserID != storex.DemoUserID {
		t.Fatalf("UserID = %q", conv.UserID)
	}
	if len(conv.Messages) != 2 || conv.Messages[0].Role != storex.RoleUser || conv.Messages[1].Role != storex.RoleAssistant {
		t.Fatalf("messages = %+v", conv.Messages)
	}
	if conv.Messages[1].Reasoning != "The customer asks about an order." {
		t.Fatalf("persisted reasoning = %q", conv.Messages[1].Reasoning)
	}

	if n := testutil.ToFloat64(metrics.Turns.WithLabelValues("order")); n != 1 {
		t.Fatalf("turn metric = %v", n)
	}
}

func TestHandleMessageTitleSetOnce(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	agents := newFakeRegistry(route(contractx.AgentTypeSupport, "General question."))
	o := newTestOrchestrator(t, store, agents)
	ctx := context.Background()

	first := strings.Repeat("a", 45) + " bbbbbbbbbb cccc"
	resp, err := o.HandleMessage(ctx, contractx.TurnRequest{Message: first, UserID: "u1"})
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	wantTitle := first[:50] + "..."
	conv, err := store.Conversations().Get(ctx, resp.ConversationID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if conv.Title != wantTitle {
		t.Fatalf("Title = %q, want %q", conv.Title, wantTitle)
	}

	if _, err := o.HandleMessage(ctx, contractx.TurnRequest{
		ConversationID: resp.ConversationID,
		Message:        "A different follow-up question",
		UserID:         "u1",
	}); err != nil {
		t.Fatalf("HandleMessage() second turn error = %v", err)
	}

	conv, err = store.Conversations().Get(ctx, resp.ConversationID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if conv.Title != wantTitle {
		t.Fatalf("title overwritten: %q", conv.Title)
	}
	if len(conv.Messages) != 4 {
		t.Fatalf("messages = %d, want 4", len(conv.Messages))
	}

	history := agents.specialists[contractx.AgentTypeSupport].requests[1].History
	if len(history) != 3 {
		t.Fatalf("second turn history = %d, want 3", len(history))
	}
}

func TestHandleMessageCustomTitleKept(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	ctx := context.Background()
	conv, err := store.Conversations().Create(ctx, "u1", "Shipping questions")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	o := newTestOrchestrator(t, store, newFakeRegistry(route(contractx.AgentTypeOrder, "x")))
	if _, err := o.HandleMessage(ctx, contractx.TurnRequest{ConversationID: conv.ID, Message: "hi", UserID: "u1"}); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	got, err := store.Conversations().Get(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Shipping questions" {
		t.Fatalf("Title = %q", got.Title)
	}
}

func TestHandleMessageReasoningFallsBackToSpecialist(t *testing.T) {
	t.Parallel()

	agents := newFakeRegistry(route(contractx.AgentTypeBilling, ""))
	agents.specialists[contractx.AgentTypeBilling].reply = contractx.AgentReply{
		Content:   "Refund submitted.",
		Reasoning: "Used tool: requestRefund",
	}
	o := newTestOrchestrator(t, memstore.New(), agents)

	resp, err := o.HandleMessage(context.Background(), contractx.TurnRequest{Message: "Refund ORD-000001 please"})
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if resp.Reasoning != "Used tool: requestRefund" || resp.Message.Reasoning != "Used tool: requestRefund" {
		t.Fatalf("reasoning = %q / %q", resp.Reasoning, resp.Message.Reasoning)
	}
}

func TestHandleMessageUnknownRouteUsesSupport(t *testing.T) {
	t.Parallel()

	agents := newFakeRegistry(route(contractx.AgentType("sales"), "?"))
	o := newTestOrchestrator(t, memstore.New(), agents)

	resp, err := o.HandleMessage(context.Background(), contractx.TurnRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if resp.AgentType != contractx.AgentTypeSupport {
		t.Fatalf("AgentType = %s, want support", resp.AgentType)
	}
}

func TestHandleMessageDegradedReplyIsNotAnError(t *testing.T) {
	t.Parallel()

	agents := newFakeRegistry(contractx.Classification{
		AgentType: contractx.AgentTypeSupport,
		Reasoning: "Defaulting to support agent due to classification error",
		Outcome:   contractx.Degraded(contractx.CauseClassification),
	})
	agents.specialists[contractx.AgentTypeSupport].reply = contractx.AgentReply{
		Content: "I apologize, but I encountered an error. Please try again.",
		Outcome: contractx.Degraded(contractx.CauseModelCall),
	}
	o := newTestOrchestrator(t, memstore.New(), agents)

	resp, err := o.HandleMessage(context.Background(), contractx.TurnRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if resp.Message.Content != "I apologize, but I encountered an error. Please try again." {
		t.Fatalf("Content = %q", resp.Message.Content)
	}
}

type failingMessages struct {
	storex.Messages
	err error
}

func (f failingMessages) Create(ctx context.Context, msg storex.Message) (*storex.Message, error) {
	if msg.Role == storex.RoleAssistant {
		return nil, f.err
	}
	return f.Messages.Create(ctx, msg)
}

type failingStore struct {
	*memstore.Store
	err error
}

func (f failingStore) Messages() storex.Messages {
	return failingMessages{Messages: f.Store.Messages(), err: f.err}
}

func TestHandleMessageStoreErrorPropagates(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("disk full")
	o := newTestOrchestrator(t, failingStore{Store: memstore.New(), err: saveErr}, newFakeRegistry(route(contractx.AgentTypeSupport, "x")))

	_, err := o.HandleMessage(context.Background(), contractx.TurnRequest{Message: "hello"})
	if !errors.Is(err, saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}
}

func TestConversationAccessors(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	o := newTestOrchestrator(t, store, newFakeRegistry(route(contractx.AgentTypeSupport, "x")))
	ctx := context.Background()

	if _, err := o.GetConversation(ctx, "nope"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("GetConversation() error = %v", err)
	}
	if err := o.DeleteConversation(ctx, "nope"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("DeleteConversation() error = %v", err)
	}

	resp, err := o.HandleMessage(ctx, contractx.TurnRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	convs, err := o.ListConversations(ctx, "")
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(convs) != 1 || convs[0].ID != resp.ConversationID {
		t.Fatalf("conversations = %+v", convs)
	}

	if err := o.DeleteConversation(ctx, resp.ConversationID); err != nil {
		t.Fatalf("DeleteConversation() error = %v", err)
	}
	if _, err := o.GetConversation(ctx, resp.ConversationID); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("GetConversation() after delete error = %v", err)
	}
	if len(o.Agents()) != 3 {
		t.Fatalf("Agents() = %d, want 3", len(o.Agents()))
	}
}
