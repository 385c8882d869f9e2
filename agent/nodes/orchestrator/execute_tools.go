package orchestratornode

import (
	"context"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
	toolx "github.com/tanpawarit/storage-chat-agent/agent/tool"
)

// ExecuteTools runs the calls of the last completion serially, appending one
// tool entry per call. Continue is set when any call asked for a follow-up.
func ExecuteTools(ctx context.Context, in *GraphState, executor contractx.ToolExecutor) (*GraphState, error) {
	if in.Failed() {
		return in, nil
	}

	in.Continue = false
	for _, call := range toolx.OrderBatch(in.Completion.ToolCalls) {
		if in.Session.Epoch() != in.Epoch {
			in.fail(contractx.ErrConversationCleared, "")
			return in, nil
		}

		outcome := executor.Execute(ctx, call)
		if err := in.Session.Append(in.Epoch, outcome.Model); err != nil {
			in.fail(err, "")
			return in, nil
		}
		in.display(outcome.Display)
		if outcome.Continue {
			in.Continue = true
		}
	}
	return in, nil
}
