package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/chative-support/agent/contract"
	historyx "github.com/tanpawarit/chative-support/agent/history"
)

func RouteMessage(ctx context.Context, in *GraphState, router contractx.Router) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Classification = router.Classify(ctx, in.Req.Message, historyx.FromRecords(in.History))
	return in, nil
}
