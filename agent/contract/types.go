package contract

import (
	"strings"

	"github.com/cloudwego/eino/schema"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

type AgentType string

const (
	AgentTypeRouter  AgentType = "router"
	AgentTypeSupport AgentType = "support"
	AgentTypeOrder   AgentType = "order"
	AgentTypeBilling AgentType = "billing"
)

// SpecialistTypes lists the agents a message can be routed to.
var SpecialistTypes = []AgentType{AgentTypeSupport, AgentTypeOrder, AgentTypeBilling}

// ParseAgentType normalizes s and reports whether it names a specialist.
func ParseAgentType(s string) (AgentType, bool) {
	t := AgentType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case AgentTypeSupport, AgentTypeOrder, AgentTypeBilling:
		return t, true
	default:
		return "", false
	}
}

type OutcomeKind string

const (
	OutcomeOk       OutcomeKind = "ok"
	OutcomeDegraded OutcomeKind = "degraded"
)

// Outcome tells whether an agent reply came from the normal path or a fallback.
type Outcome struct {
	Kind  OutcomeKind `json:"kind"`
	Cause string      `json:"cause,omitempty"`
}

func Ok() Outcome { return Outcome{Kind: OutcomeOk} }

func Degraded(cause string) Outcome { return Outcome{Kind: OutcomeDegraded, Cause: cause} }

func (o Outcome) IsDegraded() bool { return o.Kind == OutcomeDegraded }

// Degradation causes.
const (
	CauseClassification = "classification_failed"
	CauseModelCall      = "model_call_failed"
	CauseUnparsable     = "directive_unparsable"
	CauseToolFailed     = "tool_failed"
	CauseFollowUp       = "follow_up_failed"
	CausePanic          = "panic"
	CauseInternal       = "internal_error"
)

type Classification struct {
	AgentType AgentType `json:"agentType"`
	Reasoning string    `json:"reasoning"`
	Outcome   Outcome   `json:"-"`
}

type SpecialistRequest struct {
	Message        string            `json:"message"`
	History        []*schema.Message `json:"history"`
	ConversationID string            `json:"conversationId"`
	UserID         string            `json:"userId"`
}

type AgentReply struct {
	Content   string                 `json:"content"`
	AgentType AgentType              `json:"agentType"`
	Reasoning string                 `json:"reasoning,omitempty"`
	ToolCalls []storex.ToolCallTrace `json:"toolCalls,omitempty"`
	Outcome   Outcome                `json:"-"`
}

type TurnRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	Message        string `json:"message"`
	UserID         string `json:"userId,omitempty"`
}

type TurnResponse struct {
	ConversationID string          `json:"conversationId"`
	Message        *storex.Message `json:"message"`
	AgentType      AgentType       `json:"agentType"`
	Reasoning      string          `json:"reasoning"`
}

// Capability is the model-facing description of one tool.
type Capability struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type AgentInfo struct {
	Type         AgentType    `json:"type"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Capabilities []Capability `json:"-"`
}

// CapabilityNames lists the tool names an agent can call.
func (a AgentInfo) CapabilityNames() []string {
	out := make([]string, 0, len(a.Capabilities))
	for _, c := range a.Capabilities {
		out = append(out, c.Name)
	}
	return out
}
