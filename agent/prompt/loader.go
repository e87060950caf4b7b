package prompt

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/chative-support/agent/contract"
)

var (
	//go:embed template/router.txt
	routerRaw string

	//go:embed template/support.txt
	supportRaw string

	//go:embed template/order.txt
	orderRaw string

	//go:embed template/billing.txt
	billingRaw string

	//go:embed template/tool_protocol.txt
	toolProtocolRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Router       string
	Support      string
	Order        string
	Billing      string
	ToolProtocol string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Router:       strings.TrimSpace(routerRaw),
		Support:      strings.TrimSpace(supportRaw),
		Order:        strings.TrimSpace(orderRaw),
		Billing:      strings.TrimSpace(billingRaw),
		ToolProtocol: strings.TrimSpace(toolProtocolRaw),
	}
}

func (p PromptSet) raw(agentType contractx.AgentType) string {
	switch agentType {
	case contractx.AgentTypeRouter:
		return p.Router
	case contractx.AgentTypeSupport:
		return p.Support
	case contractx.AgentTypeOrder:
		return p.Order
	case contractx.AgentTypeBilling:
		return p.Billing
	default:
		return ""
	}
}

// SystemPrompt renders the system prompt of agentType, listing tools in the
// tool-call protocol section.
func (p PromptSet) SystemPrompt(ctx context.Context, agentType contractx.AgentType, tools []contractx.Capability) (string, error) {
	raw := p.raw(agentType)
	if raw == "" {
		return "", fmt.Errorf("%w: agent=%s", contractx.ErrPromptMissing, agentType)
	}
	if agentType == contractx.AgentTypeRouter {
		return raw, nil
	}

	protocol, err := format(ctx, p.ToolProtocol, map[string]any{"tools": ToolLines(tools)})
	if err != nil {
		return "", fmt.Errorf("render tool protocol: %w", err)
	}
	out, err := format(ctx, raw, map[string]any{"tool_protocol": protocol})
	if err != nil {
		return "", fmt.Errorf("render %s prompt: %w", agentType, err)
	}
	return out, nil
}

func format(ctx context.Context, tmpl string, vars map[string]any) (string, error) {
	msgs, err := einoprompt.FromMessages(schema.FString, schema.SystemMessage(tmpl)).Format(ctx, vars)
	if err != nil {
		return "", err
	}
	if len(msgs) == 0 {
		return "", fmt.Errorf("%w: template rendered no messages", contractx.ErrPromptMissing)
	}
	return msgs[0].Content, nil
}

// ToolLines renders one "- name(param, optional?): description" line per tool.
func ToolLines(tools []contractx.Capability) string {
	lines := make([]string, 0, len(tools))
	for _, t := range tools {
		lines = append(lines, fmt.Sprintf("- %s(%s): %s", t.Name, signature(t.Parameters), t.Description))
	}
	return strings.Join(lines, "\n")
}

func signature(params map[string]any) string {
	props, _ := params["properties"].(map[string]any)
	if len(props) == 0 {
		return ""
	}
	required := map[string]bool{}
	switch req := params["required"].(type) {
	case []string:
		for _, r := range req {
			required[r] = true
		}
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if required[names[i]] != required[names[j]] {
			return required[names[i]]
		}
		return names[i] < names[j]
	})

	for i, name := range names {
		if !required[name] {
			names[i] = name + "?"
		}
	}
	return strings.Join(names, ", ")
}
