package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Router assigns a message to exactly one specialist. It never fails: any
// error is folded into a degraded classification pointing at support.
type Router interface {
	Classify(ctx context.Context, message string, history []*schema.Message) Classification
}

// Specialist answers a routed message. It never fails: errors become an
// apology reply with a degraded outcome.
type Specialist interface {
	Type() AgentType
	Process(ctx context.Context, req SpecialistRequest) AgentReply
}

type Registry interface {
	Router() Router
	Specialist(t AgentType) (Specialist, bool)
	Agents() []AgentInfo
}
