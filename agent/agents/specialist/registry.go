package specialist

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/chative-support/agent/contract"
	historyx "github.com/tanpawarit/chative-support/agent/history"
	llmx "github.com/tanpawarit/chative-support/agent/llm"
	metricsx "github.com/tanpawarit/chative-support/agent/metrics"
	promptx "github.com/tanpawarit/chative-support/agent/prompt"
	storex "github.com/tanpawarit/chative-support/agent/store"
	toolx "github.com/tanpawarit/chative-support/agent/tool"
)

type options struct {
	logger   zerolog.Logger
	metrics  *metricsx.Metrics
	preparer *historyx.Preparer
}

type Option func(*options)

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m *metricsx.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithPreparer(p *historyx.Preparer) Option {
	return func(o *options) {
		if p != nil {
			o.preparer = p
		}
	}
}

type registryImpl struct {
	router      contractx.Router
	specialists map[contractx.AgentType]contractx.Specialist
	agents      []contractx.AgentInfo
}

func (r *registryImpl) Router() contractx.Router {
	return r.router
}

func (r *registryImpl) Specialist(t contractx.AgentType) (contractx.Specialist, bool) {
	s, ok := r.specialists[t]
	return s, ok
}

func (r *registryImpl) Agents() []contractx.AgentInfo {
	out := make([]contractx.AgentInfo, len(r.agents))
	copy(out, r.agents)
	return out
}

// NewRegistry builds the router and the three specialists, each with its own
// completion backend from cfg.
func NewRegistry(ctx context.Context, cfg llmx.Config, store storex.Store, opts ...Option) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	agentTypes := append([]contractx.AgentType{contractx.AgentTypeRouter}, contractx.SpecialistTypes...)
	oracles := make(map[contractx.AgentType]llmx.Oracle, len(agentTypes))
	temperatures := make(map[contractx.AgentType]float32, len(agentTypes))
	for _, t := range agentTypes {
		oracle, err := cfg.OracleFor(ctx, t)
		if err != nil {
			return nil, err
		}
		oracles[t] = oracle
		temperatures[t] = cfg.TemperatureFor(t)
	}

	return newRegistry(ctx, oracles, temperatures, store, opts...)
}

func newRegistry(
	ctx context.Context,
	oracles map[contractx.AgentType]llmx.Oracle,
	temperatures map[contractx.AgentType]float32,
	store storex.Store,
	opts ...Option,
) (*registryImpl, error) {
	o := options{
		logger:   log.Logger,
		preparer: historyx.NewPreparer(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	temperature := func(t contractx.AgentType) float32 {
		if v, ok := temperatures[t]; ok {
			return v
		}
		return llmx.DefaultTemperature(t)
	}

	prompts := promptx.LoadPromptSet()

	routerOracle, ok := oracles[contractx.AgentTypeRouter]
	if !ok {
		return nil, fmt.Errorf("%w: no completion backend for agent=%s", contractx.ErrValidation, contractx.AgentTypeRouter)
	}
	routerPrompt, err := prompts.SystemPrompt(ctx, contractx.AgentTypeRouter, nil)
	if err != nil {
		return nil, err
	}

	reg := &registryImpl{
		router:      newRouter(routerOracle, routerPrompt, temperature(contractx.AgentTypeRouter), o),
		specialists: make(map[contractx.AgentType]contractx.Specialist, len(contractx.SpecialistTypes)),
	}

	for _, t := range contractx.SpecialistTypes {
		oracle, ok := oracles[t]
		if !ok {
			return nil, fmt.Errorf("%w: no completion backend for agent=%s", contractx.ErrValidation, t)
		}

		capabilities, executor := toolx.BuildForAgent(t, store)
		systemPrompt, err := prompts.SystemPrompt(ctx, t, capabilities)
		if err != nil {
			return nil, err
		}

		p := profiles[t]
		spec, err := newSpecialist(ctx, p, oracle, executor, systemPrompt, temperature(t), o)
		if err != nil {
			return nil, err
		}

		reg.specialists[t] = spec
	}
	reg.agents = Describe()

	return reg, nil
}

// Describe lists the specialists and their tools without building any
// completion backend.
func Describe() []contractx.AgentInfo {
	out := make([]contractx.AgentInfo, 0, len(contractx.SpecialistTypes))
	for _, t := range contractx.SpecialistTypes {
		p := profiles[t]
		out = append(out, contractx.AgentInfo{
			Type:         t,
			Name:         p.name,
			Description:  p.description,
			Capabilities: toolx.Capabilities(t),
		})
	}
	return out
}
