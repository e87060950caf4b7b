package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/chative-support/agent/contract"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

var (
	ErrInvalidMessage       = errors.New("message is required")
	ErrConversationNotFound = errors.New("conversation not found")
)

type GraphInput = contractx.TurnRequest

type GraphOutput = contractx.TurnResponse

type GraphState struct {
	Req   contractx.TurnRequest
	Start time.Time

	Conversation   *storex.Conversation
	History        []storex.Message
	Classification contractx.Classification
	Reply          contractx.AgentReply
	Assistant      *storex.Message
}

// ValidateRequest rejects a turn before any store or model call is made.
func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, ErrInvalidMessage
	}

	req := in
	req.ConversationID = strings.TrimSpace(in.ConversationID)
	req.UserID = strings.TrimSpace(in.UserID)
	if req.UserID == "" {
		req.UserID = storex.DemoUserID
	}

	return &GraphState{
		Req:   req,
		Start: nowFn(),
	}, nil
}
