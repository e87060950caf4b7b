package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for conversation turns. A nil *Metrics records nothing.
type Metrics struct {
	Turns            *prometheus.CounterVec
	RouterFallbacks  prometheus.Counter
	ToolCalls        *prometheus.CounterVec
	DegradedOutcomes *prometheus.CounterVec
	TurnDuration     *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	turns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "support_turns_total",
		Help: "Completed conversation turns by handling agent",
	}, []string{"agent"})

	routerFallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "support_router_fallbacks_total",
		Help: "Classifications that fell back to the support agent",
	})

	toolCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "support_tool_calls_total",
		Help: "Tool executions by tool name and result",
	}, []string{"tool", "success"})

	degraded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "support_degraded_outcomes_total",
		Help: "Agent replies produced by a fallback path",
	}, []string{"agent", "cause"})

	turnDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "support_turn_duration_seconds",
		Help:    "Wall time of one conversation turn",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"agent"})

	reg.MustRegister(turns, routerFallbacks, toolCalls, degraded, turnDuration)

	return &Metrics{
		Turns:            turns,
		RouterFallbacks:  routerFallbacks,
		ToolCalls:        toolCalls,
		DegradedOutcomes: degraded,
		TurnDuration:     turnDuration,
	}
}

func (m *Metrics) ObserveTurn(agent string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(agent).Inc()
	m.TurnDuration.WithLabelValues(agent).Observe(elapsed.Seconds())
}

func (m *Metrics) RouterFallback() {
	if m == nil {
		return
	}
	m.RouterFallbacks.Inc()
}

func (m *Metrics) ToolCall(tool string, success bool) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, strconv.FormatBool(success)).Inc()
}

func (m *Metrics) Degraded(agent, cause string) {
	if m == nil {
		return
	}
	m.DegradedOutcomes.WithLabelValues(agent, cause).Inc()
}
