package tool

import (
	"encoding/json"
	"strings"
)

// Marker is the literal a model reply must contain to be read as a tool request.
const Marker = `"needsTool": true`

type DirectiveKind int

const (
	NoToolRequested DirectiveKind = iota
	ToolRequested
	Unparsable
)

func (k DirectiveKind) String() string {
	switch k {
	case NoToolRequested:
		return "no_tool"
	case ToolRequested:
		return "tool_requested"
	case Unparsable:
		return "unparsable"
	default:
		return "unknown"
	}
}

type Directive struct {
	Kind      DirectiveKind
	Name      string
	RawParams json.RawMessage
	Err       error
}

type directiveBody struct {
	NeedsTool  bool            `json:"needsTool"`
	ToolName   string          `json:"toolName"`
	ToolParams json.RawMessage `json:"toolParams"`
}

// ParseDirective inspects a raw model reply. Text without the marker is a
// plain answer. Text with the marker must be a single JSON object; anything
// else is Unparsable. A missing tool name is still a request and resolves to
// an unknown tool at execution.
func ParseDirective(raw string) Directive {
	if !strings.Contains(raw, Marker) {
		return Directive{Kind: NoToolRequested}
	}

	var body directiveBody
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &body); err != nil {
		return Directive{Kind: Unparsable, Err: err}
	}

	return Directive{
		Kind:      ToolRequested,
		Name:      strings.TrimSpace(body.ToolName),
		RawParams: body.ToolParams,
	}
}
