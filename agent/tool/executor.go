package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
	schemax "github.com/tanpawarit/storage-chat-agent/agent/schema"
)

var _ contractx.ToolExecutor = (*Executor)(nil)

// Executor runs tool calls against the injected key/value store. It never
// returns an error: every failure becomes a tool entry the model can react to.
type Executor struct {
	registry *schemax.Registry
	store    contractx.KeyValueStore
	logger   zerolog.Logger
}

type ExecutorOption func(*Executor)

func WithLogger(logger zerolog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

func NewExecutor(registry *schemax.Registry, store contractx.KeyValueStore, opts ...ExecutorOption) (*Executor, error) {
	if registry == nil {
		return nil, errors.New("storage registry is required")
	}
	if store == nil {
		return nil, errors.New("key value store is required")
	}

	e := &Executor{
		registry: registry,
		store:    store,
		logger:   log.Logger.With().Str("component", "tool_executor").Logger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

func (e *Executor) Execute(ctx context.Context, call contractx.ToolCall) contractx.ToolOutcome {
	args, err := ParseArguments(call)
	if err != nil {
		e.logger.Warn().Err(err).Str("tool", call.Name).Str("call_id", call.ID).Msg("tool call rejected")
		return failedOutcome(call, err)
	}

	var out contractx.ToolOutcome
	switch a := args.(type) {
	case GetArgs:
		out = e.get(ctx, call, a)
	case SetArgs:
		out = e.set(ctx, call, a)
	case ContinueArgs:
		out = continueOutcome(call)
	default:
		out = failedOutcome(call, fmt.Errorf("%w: %q", contractx.ErrUnknownTool, call.Name))
	}

	e.logger.Debug().
		Str("tool", call.Name).
		Str("call_id", call.ID).
		Bool("side_effect", out.SideEffectApplied).
		Bool("continue", out.Continue).
		AnErr("tool_error", out.Err).
		Msg("tool call executed")
	return out
}

func (e *Executor) get(ctx context.Context, call contractx.ToolCall, args GetArgs) contractx.ToolOutcome {
	key := strings.TrimSpace(args.Key)
	entry, ok := e.registry.Lookup(key)
	if !ok {
		return failedOutcome(call, fmt.Errorf("%w: unknown storage key=%q", contractx.ErrSchemaViolation, args.Key))
	}

	value, found, err := e.store.Get(ctx, key)
	if err != nil {
		return failedOutcome(call, fmt.Errorf("storage read failed: %v", err))
	}
	if !found {
		value = entry.Default
	}

	return contractx.ToolOutcome{
		Call: call,
		Display: contractx.DisplayMessage{
			Role:       contractx.RoleTool,
			Content:    fmt.Sprintf("Reading value of %s, It's %s", key, value),
			ToolCallID: call.ID,
		},
		Model: toolMessage(call, fmt.Sprintf("Called tool %s, Local Storage Value for %s: %s", ToolGetLocalStorage, key, value)),
	}
}

func (e *Executor) set(ctx context.Context, call contractx.ToolCall, args SetArgs) contractx.ToolOutcome {
	key := strings.TrimSpace(args.Key)
	if _, ok := e.registry.Lookup(key); !ok {
		return failedOutcome(call, fmt.Errorf("%w: unknown storage key=%q", contractx.ErrSchemaViolation, args.Key))
	}

	value, err := e.registry.Normalize(key, args.Value)
	if err != nil {
		return failedOutcome(call, err)
	}

	if err := e.store.Set(ctx, key, value); err != nil {
		return failedOutcome(call, fmt.Errorf("storage write failed: %v", err))
	}

	return contractx.ToolOutcome{
		Call: call,
		Display: contractx.DisplayMessage{
			Role:       contractx.RoleTool,
			Content:    fmt.Sprintf("I have set the value of %s to %s", key, value),
			ToolCallID: call.ID,
			Write:      true,
		},
		Model:             toolMessage(call, fmt.Sprintf("Called tool %s, Local Storage Value for %s has been set to %s", ToolSetLocalStorage, key, value)),
		SideEffectApplied: true,
	}
}

func continueOutcome(call contractx.ToolCall) contractx.ToolOutcome {
	return contractx.ToolOutcome{
		Call: call,
		Display: contractx.DisplayMessage{
			Role:         contractx.RoleTool,
			Content:      "Continuing conversation",
			ToolCallID:   call.ID,
			ToolActivity: true,
			Continuation: true,
		},
		Model:    toolMessage(call, fmt.Sprintf("Called tool %s, Continuing conversation...", ToolContinueConversation)),
		Continue: true,
	}
}

func failedOutcome(call contractx.ToolCall, err error) contractx.ToolOutcome {
	display := "There was an error running the tool."
	switch call.Name {
	case ToolGetLocalStorage:
		display = "There was an error reading value."
	case ToolSetLocalStorage:
		display = "There was an error in setting the value."
	}

	var model string
	if errors.Is(err, contractx.ErrUnknownTool) {
		display = fmt.Sprintf("Error: Unknown tool call function %s, Try Again", call.Name)
		model = display
	} else {
		model = fmt.Sprintf("Called tool %s, Error: %v, Try Again", call.Name, err)
	}

	return contractx.ToolOutcome{
		Call: call,
		Display: contractx.DisplayMessage{
			Role:       contractx.RoleTool,
			Content:    display,
			ToolCallID: call.ID,
			Write:      call.Name == ToolSetLocalStorage,
			Error:      true,
		},
		Model: toolMessage(call, model),
		Err:   err,
	}
}

func toolMessage(call contractx.ToolCall, content string) contractx.Message {
	return contractx.Message{
		Role:       contractx.RoleTool,
		Content:    content,
		ToolCallID: call.ID,
	}
}

// OrderBatch returns the calls in emitted order with every continueConversation
// moved to the end. Relative order inside both groups is preserved.
func OrderBatch(calls []contractx.ToolCall) []contractx.ToolCall {
	ordered := make([]contractx.ToolCall, 0, len(calls))
	var continues []contractx.ToolCall
	for _, call := range calls {
		if strings.TrimSpace(call.Name) == ToolContinueConversation {
			continues = append(continues, call)
			continue
		}
		ordered = append(ordered, call)
	}
	return append(ordered, continues...)
}
