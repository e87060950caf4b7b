package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/chative-support/agent/contract"
	metricsx "github.com/tanpawarit/chative-support/agent/metrics"
	nodex "github.com/tanpawarit/chative-support/agent/nodes/orchestrator"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

var (
	ErrInvalidMessage       = nodex.ErrInvalidMessage
	ErrConversationNotFound = nodex.ErrConversationNotFound
)

type Orchestrator struct {
	store  storex.Store
	agents contractx.Registry

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	logger  zerolog.Logger
	metrics *metricsx.Metrics
	now     func() time.Time
}

type Option func(*Orchestrator)

func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func WithMetrics(m *metricsx.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func New(store storex.Store, agents contractx.Registry, opts ...Option) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}
	if agents == nil {
		return nil, errors.New("agent registry is required")
	}

	o := &Orchestrator{
		store:  store,
		agents: agents,
		logger: log.Logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage runs one conversation turn. Only ErrInvalidMessage,
// ErrConversationNotFound and store failures are returned; agent failures
// come back as a degraded reply.
func (o *Orchestrator) HandleMessage(ctx context.Context, req contractx.TurnRequest) (contractx.TurnResponse, error) {
	out, err := o.graphRunner.Invoke(ctx, req)
	if err != nil {
		return contractx.TurnResponse{}, err
	}
	return out, nil
}

func (o *Orchestrator) GetConversation(ctx context.Context, id string) (*storex.Conversation, error) {
	conv, err := o.store.Conversations().Get(ctx, strings.TrimSpace(id))
	if errors.Is(err, storex.ErrNotFound) {
		return nil, fmt.Errorf("%w: id=%s", ErrConversationNotFound, id)
	}
	return conv, err
}

func (o *Orchestrator) ListConversations(ctx context.Context, userID string) ([]storex.Conversation, error) {
	if userID = strings.TrimSpace(userID); userID == "" {
		userID = storex.DemoUserID
	}
	return o.store.Conversations().ListByUser(ctx, userID)
}

func (o *Orchestrator) DeleteConversation(ctx context.Context, id string) error {
	err := o.store.Conversations().Delete(ctx, strings.TrimSpace(id))
	if errors.Is(err, storex.ErrNotFound) {
		return fmt.Errorf("%w: id=%s", ErrConversationNotFound, id)
	}
	return err
}

func (o *Orchestrator) Agents() []contractx.AgentInfo {
	return o.agents.Agents()
}

func (o *Orchestrator) observe(st *nodex.GraphState) {
	elapsed := o.now().Sub(st.Start)
	o.metrics.ObserveTurn(string(st.Reply.AgentType), elapsed)

	o.logger.Info().
		Str("conversation_id", st.Conversation.ID).
		Str("routed_to", string(st.Classification.AgentType)).
		Str("agent_type", string(st.Reply.AgentType)).
		Str("outcome", string(st.Reply.Outcome.Kind)).
		Int("tool_calls", len(st.Reply.ToolCalls)).
		Dur("elapsed", elapsed).
		Msg("turn completed")
}
