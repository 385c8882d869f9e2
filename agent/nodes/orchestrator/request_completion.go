package orchestratornode

import (
	"context"
	"errors"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
)

const (
	callingToolsText  = "Calling tools"
	rejectedReplyText = "Error: the model returned a reply that could not be added to the conversation."
)

// RequestCompletion sends the whole transcript and appends the assistant
// entry. A gateway failure appends nothing.
func RequestCompletion(
	ctx context.Context,
	in *GraphState,
	gateway contractx.Gateway,
	tools []contractx.ToolDefinition,
) (*GraphState, error) {
	if in.Failed() {
		return in, nil
	}

	in.Completions++
	completion, err := gateway.Complete(ctx, contractx.CompletionRequest{
		Credentials: in.Credentials,
		Messages:    in.Session.Transcript(),
		Tools:       tools,
	})
	if err != nil {
		in.fail(err, gatewayReply(err))
		in.display(contractx.DisplayMessage{Role: contractx.RoleAssistant, Content: in.Reply, Error: true})
		return in, nil
	}

	entry := contractx.Message{
		Role:      contractx.RoleAssistant,
		Content:   completion.Text,
		ToolCalls: completion.ToolCalls,
	}
	if err := in.Session.Append(in.Epoch, entry); err != nil {
		if errors.Is(err, contractx.ErrConversationCleared) {
			in.fail(err, "")
			return in, nil
		}
		in.fail(err, rejectedReplyText)
		in.display(contractx.DisplayMessage{Role: contractx.RoleAssistant, Content: in.Reply, Error: true})
		return in, nil
	}
	in.Completion = completion

	switch {
	case completion.Text != "":
		in.display(contractx.DisplayMessage{Role: contractx.RoleAssistant, Content: completion.Text})
	case len(completion.ToolCalls) > 0:
		in.display(contractx.DisplayMessage{Role: contractx.RoleAssistant, Content: callingToolsText, ToolActivity: true})
	}
	return in, nil
}

func gatewayReply(err error) string {
	var gwErr *contractx.GatewayError
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return "Error: " + gwErr.Message
	}
	return "Error: " + err.Error()
}
