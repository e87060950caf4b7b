package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/chative-support/agent/contract"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

func PersistReply(ctx context.Context, in *GraphState, messages storex.Messages) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: conversation is not resolved", contractx.ErrValidation)
	}

	msg := storex.NewMessage(in.Conversation.ID, storex.RoleAssistant, in.Reply.Content)
	msg.AgentType = string(in.Reply.AgentType)
	msg.Reasoning = Reasoning(in.Classification, in.Reply)
	msg.ToolCalls = in.Reply.ToolCalls

	saved, err := messages.Create(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}
	in.Assistant = saved
	return in, nil
}

// Reasoning prefers the router's explanation over the specialist's.
func Reasoning(c contractx.Classification, reply contractx.AgentReply) string {
	if c.Reasoning != "" {
		return c.Reasoning
	}
	return reply.Reasoning
}
