package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/chative-support/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.Conversation == nil || in.Assistant == nil {
		return GraphOutput{}, fmt.Errorf("%w: turn is incomplete", contractx.ErrValidation)
	}

	return GraphOutput{
		ConversationID: in.Conversation.ID,
		Message:        in.Assistant,
		AgentType:      in.Reply.AgentType,
		Reasoning:      Reasoning(in.Classification, in.Reply),
	}, nil
}
