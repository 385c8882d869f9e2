package contract

import (
	"errors"
	"fmt"
)

var (
	ErrGateway                = errors.New("completion gateway failed")
	ErrSchemaViolation        = errors.New("tool call violates storage schema")
	ErrMalformedToolArguments = errors.New("malformed tool arguments")
	ErrUnknownTool            = errors.New("unknown tool")
	ErrMissingCredential      = errors.New("api key is not configured")
	ErrMissingModel           = errors.New("model is not configured")
	ErrUnknownModel           = errors.New("model is not in the catalog")
	ErrValidation             = errors.New("validation failed")
	ErrInvalidMessage         = errors.New("message is empty")
	ErrBusy                   = errors.New("a turn is already in progress")
	ErrConversationCleared    = errors.New("conversation was cleared during the turn")
	ErrChainLimit             = errors.New("continuation chain limit reached")
	ErrTranscriptInvariant    = errors.New("transcript invariant violated")
)

// GatewayError carries the provider's failure. It matches ErrGateway with errors.Is.
type GatewayError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status=%d: %s", ErrGateway, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", ErrGateway, e.Message)
}

func (e *GatewayError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGateway}
	}
	return []error{ErrGateway, e.Err}
}
