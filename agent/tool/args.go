package tool

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
)

// Arguments is the parsed payload of a tool call. The concrete type tells
// which tool it belongs to.
type Arguments interface {
	toolName() string
}

type SetArgs struct {
	Key   string
	Value string
}

type GetArgs struct {
	Key string
}

type ContinueArgs struct{}

func (SetArgs) toolName() string      { return ToolSetLocalStorage }
func (GetArgs) toolName() string      { return ToolGetLocalStorage }
func (ContinueArgs) toolName() string { return ToolContinueConversation }

func ParseArguments(call contractx.ToolCall) (Arguments, error) {
	name := strings.TrimSpace(call.Name)
	if !IsKnown(name) {
		return nil, fmt.Errorf("%w: %q", contractx.ErrUnknownTool, call.Name)
	}

	// continueConversation takes no parameters; whatever was sent is ignored.
	if name == ToolContinueConversation {
		return ContinueArgs{}, nil
	}

	args := map[string]any{}
	rawArgs := strings.TrimSpace(call.Arguments)
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return nil, fmt.Errorf("%w: tool=%s: %v", contractx.ErrMalformedToolArguments, name, err)
		}
	}

	key, err := stringArg(args, "key")
	if err != nil {
		return nil, fmt.Errorf("%w: tool=%s: %v", contractx.ErrMalformedToolArguments, name, err)
	}

	switch name {
	case ToolGetLocalStorage:
		return GetArgs{Key: key}, nil
	default:
		value, err := stringArg(args, "value")
		if err != nil {
			return nil, fmt.Errorf("%w: tool=%s: %v", contractx.ErrMalformedToolArguments, name, err)
		}
		return SetArgs{Key: key, Value: value}, nil
	}
}

// stringArg accepts strings and the scalar JSON types a model tends to send
// instead of a string ("value": 42, "value": true).
func stringArg(args map[string]any, name string) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return "", fmt.Errorf("%s is required", name)
	}

	var out string
	switch v := raw.(type) {
	case string:
		out = v
	case float64:
		out = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		out = strconv.FormatBool(v)
	default:
		return "", fmt.Errorf("%s must be a string", name)
	}

	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%s is empty", name)
	}
	return out, nil
}
