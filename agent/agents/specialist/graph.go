package specialist

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/chative-support/agent/contract"
	toolx "github.com/tanpawarit/chative-support/agent/tool"
)

const (
	nodePlan         = "plan"
	nodeAnswerDirect = "answer_direct"
	nodeRunTool      = "run_tool"
)

// turnState is what the plan node hands to either branch.
type turnState struct {
	Req       contractx.SpecialistRequest
	Raw       string
	Directive toolx.Directive
	// Err and Cause are set when the first completion failed.
	Err   error
	Cause string
}

func compileSpecialistGraph(
	ctx context.Context,
	agentType contractx.AgentType,
	plan func(context.Context, contractx.SpecialistRequest) (*turnState, error),
	answerDirect func(context.Context, *turnState) (contractx.AgentReply, error),
	runTool func(context.Context, *turnState) (contractx.AgentReply, error),
) (compose.Runnable[contractx.SpecialistRequest, contractx.AgentReply], error) {
	graph := compose.NewGraph[contractx.SpecialistRequest, contractx.AgentReply]()

	if err := graph.AddLambdaNode(nodePlan, compose.InvokableLambda(plan)); err != nil {
		return nil, fmt.Errorf("add specialist plan node: %w", err)
	}

	if err := graph.AddLambdaNode(nodeAnswerDirect,
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (contractx.AgentReply, error) {
			if in == nil {
				return contractx.AgentReply{}, fmt.Errorf("%w: specialist graph state is nil", contractx.ErrValidation)
			}
			return answerDirect(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add specialist answer node: %w", err)
	}

	if err := graph.AddLambdaNode(nodeRunTool,
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (contractx.AgentReply, error) {
			if in == nil {
				return contractx.AgentReply{}, fmt.Errorf("%w: specialist graph state is nil", contractx.ErrValidation)
			}
			return runTool(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add specialist tool node: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *turnState) (string, error) {
			if in != nil && in.Err == nil && in.Directive.Kind == toolx.ToolRequested {
				return nodeRunTool, nil
			}
			return nodeAnswerDirect, nil
		},
		map[string]bool{
			nodeAnswerDirect: true,
			nodeRunTool:      true,
		},
	)

	if err := graph.AddEdge(compose.START, nodePlan); err != nil {
		return nil, fmt.Errorf("add specialist edge start->plan: %w", err)
	}
	if err := graph.AddBranch(nodePlan, branch); err != nil {
		return nil, fmt.Errorf("add specialist branch: %w", err)
	}
	if err := graph.AddEdge(nodeAnswerDirect, compose.END); err != nil {
		return nil, fmt.Errorf("add specialist edge answer->end: %w", err)
	}
	if err := graph.AddEdge(nodeRunTool, compose.END); err != nil {
		return nil, fmt.Errorf("add specialist edge tool->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("specialist."+string(agentType)))
	if err != nil {
		return nil, fmt.Errorf("compile specialist graph: %w", err)
	}
	return runner, nil
}
