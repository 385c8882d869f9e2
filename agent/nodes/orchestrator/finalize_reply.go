package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	return GraphOutput{
		Turn: contractx.Turn{
			Reply:       in.Reply,
			Kind:        in.Kind,
			Messages:    in.Display,
			Completions: in.Completions,
		},
		Err: in.Err,
	}, nil
}
