package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/chative-support/agent/contract"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

const titleMaxRunes = 50

// UpdateTitle names a conversation after its first user message. Later turns
// and renamed conversations are left alone.
func UpdateTitle(ctx context.Context, in *GraphState, conversations storex.Conversations) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: conversation is not resolved", contractx.ErrValidation)
	}
	if len(in.History) > 1 || in.Conversation.Title != storex.DefaultConversationTitle {
		return in, nil
	}

	title := Title(in.Req.Message)
	if err := conversations.UpdateTitle(ctx, in.Conversation.ID, title); err != nil {
		return nil, fmt.Errorf("update title: %w", err)
	}
	in.Conversation.Title = title
	return in, nil
}

func Title(message string) string {
	r := []rune(message)
	if len(r) <= titleMaxRunes {
		return message
	}
	return string(r[:titleMaxRunes]) + "..."
}
