package contract

import "context"

type Gateway interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

type ToolExecutor interface {
	Execute(ctx context.Context, call ToolCall) ToolOutcome
}

// KeyValueStore is the storage capability the executor writes through.
// Get reports found=false for keys that were never written.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

type CredentialSource interface {
	Credentials(ctx context.Context) (Credentials, error)
}
