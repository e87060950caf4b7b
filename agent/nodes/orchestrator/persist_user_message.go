package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/chative-support/agent/contract"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

func PersistUserMessage(ctx context.Context, in *GraphState, messages storex.Messages) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: conversation is not resolved", contractx.ErrValidation)
	}

	msg := storex.NewMessage(in.Conversation.ID, storex.RoleUser, in.Req.Message)
	if _, err := messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}
	return in, nil
}
