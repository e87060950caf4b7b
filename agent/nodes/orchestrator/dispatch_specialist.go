package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/chative-support/agent/contract"
	historyx "github.com/tanpawarit/chative-support/agent/history"
)

func DispatchSpecialist(ctx context.Context, in *GraphState, agents contractx.Registry) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: conversation is not resolved", contractx.ErrValidation)
	}

	specialist, err := pickSpecialist(in.Classification.AgentType, agents)
	if err != nil {
		return nil, err
	}

	in.Reply = specialist.Process(ctx, contractx.SpecialistRequest{
		Message:        in.Req.Message,
		History:        historyx.FromRecords(in.History),
		ConversationID: in.Conversation.ID,
		UserID:         in.Req.UserID,
	})
	return in, nil
}

// pickSpecialist falls back to support for anything the registry does not know.
func pickSpecialist(agentType contractx.AgentType, agents contractx.Registry) (contractx.Specialist, error) {
	if s, ok := agents.Specialist(agentType); ok {
		return s, nil
	}
	if s, ok := agents.Specialist(contractx.AgentTypeSupport); ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: no specialist registered for agent=%s", contractx.ErrValidation, agentType)
}
