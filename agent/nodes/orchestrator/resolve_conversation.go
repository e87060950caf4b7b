package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/chative-support/agent/contract"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

// ResolveConversation loads the requested conversation or starts a new one
// when the request carries no id.
func ResolveConversation(ctx context.Context, in *GraphState, conversations storex.Conversations) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if id := in.Req.ConversationID; id != "" {
		conv, err := conversations.Get(ctx, id)
		if errors.Is(err, storex.ErrNotFound) {
			return nil, fmt.Errorf("%w: id=%s", ErrConversationNotFound, id)
		}
		if err != nil {
			return nil, fmt.Errorf("load conversation: %w", err)
		}
		in.Conversation = conv
		return in, nil
	}

	conv, err := conversations.Create(ctx, in.Req.UserID, "")
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	in.Conversation = conv
	return in, nil
}
