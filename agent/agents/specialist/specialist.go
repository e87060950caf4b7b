package specialist

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/chative-support/agent/contract"
	historyx "github.com/tanpawarit/chative-support/agent/history"
	llmx "github.com/tanpawarit/chative-support/agent/llm"
	metricsx "github.com/tanpawarit/chative-support/agent/metrics"
	storex "github.com/tanpawarit/chative-support/agent/store"
	toolx "github.com/tanpawarit/chative-support/agent/tool"
)

const specialistTokenLimit = 4000

// profile holds the fixed texts of one specialist.
type profile struct {
	agentType   contractx.AgentType
	name        string
	description string
	// closing ends the follow-up prompt that carries the tool result.
	closing string
	// emptyReply replaces a blank follow-up completion.
	emptyReply string
	apology    string
}

var profiles = map[contractx.AgentType]profile{
	contractx.AgentTypeSupport: {
		agentType:   contractx.AgentTypeSupport,
		name:        "Support Agent",
		description: "Handles general support inquiries, FAQs, and troubleshooting",
		closing:     "Now provide a helpful response to the customer based on this information.",
		emptyReply:  "I apologize, but I encountered an issue processing your request.",
		apology:     "I apologize, but I encountered an error. Please try again.",
	},
	contractx.AgentTypeOrder: {
		agentType:   contractx.AgentTypeOrder,
		name:        "Order Agent",
		description: "Manages order status, tracking, modifications, and cancellations",
		closing:     "Now provide a clear response to the customer about their order.",
		emptyReply:  "Unable to process order request.",
		apology:     "I apologize, but I encountered an error processing your order request.",
	},
	contractx.AgentTypeBilling: {
		agentType:   contractx.AgentTypeBilling,
		name:        "Billing Agent",
		description: "Handles payment issues, refunds, invoices, and subscription queries",
		closing:     "Now provide a professional response about the billing matter.",
		emptyReply:  "Unable to process billing request.",
		apology:     "I apologize, but I encountered an error processing your billing request.",
	},
}

type specialistImpl struct {
	profile      profile
	oracle       llmx.Oracle
	executor     *toolx.Executor
	preparer     *historyx.Preparer
	systemPrompt string
	temperature  float32
	logger       zerolog.Logger
	metrics      *metricsx.Metrics
	runner       compose.Runnable[contractx.SpecialistRequest, contractx.AgentReply]
}

func newSpecialist(
	ctx context.Context,
	p profile,
	oracle llmx.Oracle,
	executor *toolx.Executor,
	systemPrompt string,
	temperature float32,
	o options,
) (*specialistImpl, error) {
	s := &specialistImpl{
		profile:      p,
		oracle:       oracle,
		executor:     executor,
		preparer:     o.preparer,
		systemPrompt: systemPrompt,
		temperature:  temperature,
		logger:       o.logger.With().Str("agent_type", string(p.agentType)).Logger(),
		metrics:      o.metrics,
	}

	runner, err := compileSpecialistGraph(ctx, p.agentType, s.plan, s.answerDirect, s.runTool)
	if err != nil {
		return nil, fmt.Errorf("%w: compile %s graph: %v", contractx.ErrModelInvoke, p.agentType, err)
	}
	s.runner = runner

	return s, nil
}

func (s *specialistImpl) Type() contractx.AgentType {
	return s.profile.agentType
}

func (s *specialistImpl) Process(ctx context.Context, req contractx.SpecialistRequest) (reply contractx.AgentReply) {
	defer func() {
		if p := recover(); p != nil {
			reply = s.apology(contractx.CausePanic)
			s.report(req, reply.Outcome, fmt.Errorf("panic: %v", p))
		}
	}()

	out, err := s.runner.Invoke(ctx, req)
	if err != nil {
		out = s.apology(contractx.CauseInternal)
	}
	if out.Outcome.IsDegraded() {
		s.report(req, out.Outcome, err)
	}
	return out
}

func (s *specialistImpl) report(req contractx.SpecialistRequest, outcome contractx.Outcome, err error) {
	s.logger.Warn().
		Err(err).
		Str("cause", outcome.Cause).
		Str("conversation_id", req.ConversationID).
		Msg("specialist reply degraded")
	s.metrics.Degraded(string(s.profile.agentType), outcome.Cause)
}

// plan issues the first completion and reads the tool directive from it.
func (s *specialistImpl) plan(ctx context.Context, req contractx.SpecialistRequest) (*turnState, error) {
	st := &turnState{Req: req}

	msgs := s.preparer.Prepare(s.systemPrompt, req.History, req.Message, specialistTokenLimit)
	raw, err := s.complete(ctx, msgs)
	if err != nil {
		s.logger.Debug().Err(err).Msg("first completion failed")
		st.Err = err
		st.Cause = contractx.CauseModelCall
		return st, nil
	}

	st.Raw = raw
	st.Directive = toolx.ParseDirective(raw)
	return st, nil
}

func (s *specialistImpl) answerDirect(ctx context.Context, st *turnState) (contractx.AgentReply, error) {
	if st.Err != nil {
		return s.apology(st.Cause), nil
	}

	reply := contractx.AgentReply{
		Content:   st.Raw,
		AgentType: s.profile.agentType,
		Outcome:   contractx.Ok(),
	}
	if st.Directive.Kind == toolx.Unparsable {
		s.logger.Debug().Err(st.Directive.Err).Msg("tool directive unparsable, returning raw reply")
		reply.Outcome = contractx.Degraded(contractx.CauseUnparsable)
	}
	return reply, nil
}

// runTool executes the requested tool and asks the model for the final answer.
func (s *specialistImpl) runTool(ctx context.Context, st *turnState) (contractx.AgentReply, error) {
	req := st.Req
	inv := s.executor.Execute(ctx, toolx.Call{
		Name:           st.Directive.Name,
		RawParams:      st.Directive.RawParams,
		ConversationID: req.ConversationID,
		UserID:         req.UserID,
	})
	s.metrics.ToolCall(inv.Label(), inv.Result.Success)

	outcome := contractx.Ok()
	if !inv.Result.Success {
		s.logger.Debug().
			Str("tool", inv.Tool).
			Str("error", inv.Result.Error).
			Msg("tool call failed")
		outcome = contractx.Degraded(contractx.CauseToolFailed)
	}

	followUp := fmt.Sprintf("Previous response: %s\n\nTool result: %s. %s", st.Raw, inv.Result.String(), s.profile.closing)
	msgs := s.preparer.Prepare(s.systemPrompt, req.History, followUp, specialistTokenLimit)

	reply := contractx.AgentReply{
		AgentType: s.profile.agentType,
		Reasoning: "Used tool: " + inv.Tool,
		ToolCalls: []storex.ToolCallTrace{inv.Trace()},
		Outcome:   outcome,
	}

	content, err := s.complete(ctx, msgs)
	if err != nil {
		s.logger.Debug().Err(err).Str("tool", inv.Tool).Msg("follow-up completion failed")
		reply.Content = s.profile.apology
		reply.Outcome = contractx.Degraded(contractx.CauseFollowUp)
		return reply, nil
	}
	if strings.TrimSpace(content) == "" {
		content = s.profile.emptyReply
	}
	reply.Content = content
	return reply, nil
}

func (s *specialistImpl) complete(ctx context.Context, msgs []*schema.Message) (string, error) {
	return s.oracle.Complete(ctx, llmx.CompletionRequest{
		Messages:    msgs,
		Temperature: s.temperature,
	})
}

func (s *specialistImpl) apology(cause string) contractx.AgentReply {
	return contractx.AgentReply{
		Content:   s.profile.apology,
		AgentType: s.profile.agentType,
		Outcome:   contractx.Degraded(cause),
	}
}
