package orchestratornode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
)

type ChainDeps struct {
	Gateway  contractx.Gateway
	Executor contractx.ToolExecutor
	Tools    []contractx.ToolDefinition

	// MaxChainLength bounds the completions of one turn.
	MaxChainLength int
	OnStatus       func(contractx.Status)
	Logger         zerolog.Logger
}

const ackText = "Tool calls completed."

// RunChain alternates completions and tool execution until the model stops
// asking to continue, a failure occurs or the chain budget is spent.
func RunChain(ctx context.Context, in *GraphState, deps ChainDeps) (*GraphState, error) {
	if in.Failed() {
		return in, nil
	}

	setStatus := deps.OnStatus
	if setStatus == nil {
		setStatus = func(contractx.Status) {}
	}
	defer setStatus(contractx.StatusIdle)

	started := time.Now()
	for {
		setStatus(contractx.StatusAwaitingCompletion)
		if _, err := RequestCompletion(ctx, in, deps.Gateway, deps.Tools); err != nil {
			return nil, err
		}
		if in.Failed() {
			deps.Logger.Error().Err(in.Err).Int("step", in.Completions).Msg("chain aborted")
			return in, nil
		}

		if len(in.Completion.ToolCalls) == 0 {
			in.Kind = contractx.ReplyAnswer
			in.Reply = in.Completion.Text
			break
		}

		setStatus(contractx.StatusExecutingTools)
		if _, err := ExecuteTools(ctx, in, deps.Executor); err != nil {
			return nil, err
		}
		if in.Failed() {
			deps.Logger.Warn().Err(in.Err).Int("step", in.Completions).Msg("chain stopped")
			return in, nil
		}

		if !in.Continue {
			in.Kind = contractx.ReplyAcknowledgment
			in.Reply = in.Completion.Text
			if in.Reply == "" {
				in.Reply = ackText
			}
			break
		}

		if deps.MaxChainLength > 0 && in.Completions >= deps.MaxChainLength {
			in.Err = fmt.Errorf("%w: %d completions", contractx.ErrChainLimit, in.Completions)
			in.Kind = contractx.ReplyTruncated
			in.Reply = fmt.Sprintf("Stopped after %d steps without a final answer.", in.Completions)
			in.display(contractx.DisplayMessage{Role: contractx.RoleAssistant, Content: in.Reply, Error: true})
			deps.Logger.Warn().Int("max_chain_length", deps.MaxChainLength).Msg("continuation chain truncated")
			return in, nil
		}
		deps.Logger.Debug().Int("step", in.Completions).Msg("continuing conversation")
	}

	deps.Logger.Info().
		Str("kind", string(in.Kind)).
		Int("completions", in.Completions).
		Dur("elapsed", time.Since(started)).
		Msg("turn completed")
	return in, nil
}
