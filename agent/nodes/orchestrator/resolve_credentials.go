package orchestratornode

import (
	"context"
	"errors"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
)

const (
	replyMissingCredential = "Please set an API key before chatting."
	replyMissingModel      = "Please select a model before chatting."
)

// ResolveCredentials runs before anything is appended so a missing key or
// model leaves the conversation untouched.
func ResolveCredentials(ctx context.Context, in *GraphState, source contractx.CredentialSource) (*GraphState, error) {
	if in.Failed() {
		return in, nil
	}

	creds, err := source.Credentials(ctx)
	switch {
	case err == nil:
		in.Credentials = creds
	case errors.Is(err, contractx.ErrMissingModel):
		in.fail(err, replyMissingModel)
	case errors.Is(err, contractx.ErrMissingCredential):
		in.fail(err, replyMissingCredential)
	default:
		in.fail(err, "Error: "+err.Error())
	}
	return in, nil
}
