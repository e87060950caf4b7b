package specialist

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/chative-support/agent/contract"
	historyx "github.com/tanpawarit/chative-support/agent/history"
	llmx "github.com/tanpawarit/chative-support/agent/llm"
	metricsx "github.com/tanpawarit/chative-support/agent/metrics"
)

const (
	routerTokenLimit = 2000

	reasoningDefault  = "Classified based on query context"
	reasoningFallback = "Defaulting to support agent due to classification error"
)

type routerImpl struct {
	oracle       llmx.Oracle
	preparer     *historyx.Preparer
	parser       schema.MessageParser[routerLLMOutput]
	systemPrompt string
	temperature  float32
	logger       zerolog.Logger
	metrics      *metricsx.Metrics
}

type routerLLMOutput struct {
	AgentType string `json:"agentType"`
	Reasoning string `json:"reasoning"`
}

func newRouter(oracle llmx.Oracle, systemPrompt string, temperature float32, o options) *routerImpl {
	return &routerImpl{
		oracle:       oracle,
		preparer:     o.preparer,
		systemPrompt: systemPrompt,
		temperature:  temperature,
		logger:       o.logger.With().Str("agent_type", string(contractx.AgentTypeRouter)).Logger(),
		metrics:      o.metrics,
		parser: schema.NewMessageJSONParser[routerLLMOutput](&schema.MessageJSONParseConfig{
			ParseFrom: schema.MessageParseFromContent,
		}),
	}
}

func (r *routerImpl) Classify(ctx context.Context, message string, history []*schema.Message) (out contractx.Classification) {
	defer func() {
		if p := recover(); p != nil {
			out = r.fallback(fmt.Errorf("panic: %v", p))
		}
	}()

	msgs := r.preparer.Prepare(r.systemPrompt, history, message, routerTokenLimit)
	raw, err := r.oracle.Complete(ctx, llmx.CompletionRequest{
		Messages:    msgs,
		Temperature: r.temperature,
		JSONMode:    true,
	})
	if err != nil {
		return r.fallback(err)
	}
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}

	parsed, err := r.parser.Parse(ctx, &schema.Message{Role: schema.Assistant, Content: raw})
	if err != nil {
		return r.fallback(fmt.Errorf("%w: router reply: %v", contractx.ErrSchemaViolation, err))
	}

	agentType := contractx.AgentTypeSupport
	if name := strings.TrimSpace(parsed.AgentType); name != "" {
		t, ok := contractx.ParseAgentType(name)
		if !ok {
			return r.fallback(fmt.Errorf("%w: unknown agentType %q", contractx.ErrSchemaViolation, name))
		}
		agentType = t
	}

	reasoning := strings.TrimSpace(parsed.Reasoning)
	if reasoning == "" {
		reasoning = reasoningDefault
	}

	return contractx.Classification{
		AgentType: agentType,
		Reasoning: reasoning,
		Outcome:   contractx.Ok(),
	}
}

func (r *routerImpl) fallback(err error) contractx.Classification {
	r.logger.Warn().Err(err).Str("cause", contractx.CauseClassification).Msg("router classification failed")
	r.metrics.RouterFallback()
	r.metrics.Degraded(string(contractx.AgentTypeRouter), contractx.CauseClassification)

	return contractx.Classification{
		AgentType: contractx.AgentTypeSupport,
		Reasoning: reasoningFallback,
		Outcome:   contractx.Degraded(contractx.CauseClassification),
	}
}
