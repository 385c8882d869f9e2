package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/tanpawarit/storage-chat-agent/agent/nodes/orchestrator"
)

func (o *Orchestrator) compileSubmitGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("resolve_credentials",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ResolveCredentials(ctx, in, o.credentials)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node resolve_credentials: %w", err)
	}

	if err := graph.AddLambdaNode("append_user",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.AppendUser(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node append_user: %w", err)
	}

	if err := graph.AddLambdaNode("run_chain",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RunChain(ctx, in, nodex.ChainDeps{
				Gateway:        o.gateway,
				Executor:       o.executor,
				Tools:          o.tools,
				MaxChainLength: o.maxChainLength,
				OnStatus:       o.setStatus,
				Logger:         o.logger,
			})
		}),
	); err != nil {
		return nil, fmt.Errorf("add node run_chain: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "resolve_credentials"},
		{"resolve_credentials", "append_user"},
		{"append_user", "run_chain"},
		{"run_chain", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.submit"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
