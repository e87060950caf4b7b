package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/chative-support/agent/contract"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

// LoadHistory reads the full conversation, including the message just saved.
func LoadHistory(ctx context.Context, in *GraphState, messages storex.Messages) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: conversation is not resolved", contractx.ErrValidation)
	}

	history, err := messages.ListByConversation(ctx, in.Conversation.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	in.History = history
	return in, nil
}
