package contract

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a structured action requested by the model. Arguments is the
// raw payload as received and may be malformed.
type ToolCall struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Arguments string `json:"arguments" yaml:"arguments"`
}

// Message is one model-facing transcript entry.
type Message struct {
	Role       Role       `json:"role" yaml:"role"`
	Content    string     `json:"content,omitempty" yaml:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty" yaml:"tool_call_id,omitempty"`
}

func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// DisplayMessage is the user-facing projection of a transcript entry. It is
// never sent to the model.
type DisplayMessage struct {
	Role       Role   `json:"role" yaml:"role"`
	Content    string `json:"content" yaml:"content"`
	ToolCallID string `json:"tool_call_id,omitempty" yaml:"tool_call_id,omitempty"`

	ToolActivity bool `json:"tool_activity,omitempty" yaml:"tool_activity,omitempty"` // pure tool activity, nothing to read
	Write        bool `json:"write,omitempty" yaml:"write,omitempty"`
	Continuation bool `json:"continuation,omitempty" yaml:"continuation,omitempty"`
	Error        bool `json:"error,omitempty" yaml:"error,omitempty"`
}

type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type Credentials struct {
	APIKey string
	Model  string
}

type CompletionRequest struct {
	Credentials Credentials
	Messages    []Message
	Tools       []ToolDefinition
}

type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// ToolOutcome is what the executor produces for a single tool call.
type ToolOutcome struct {
	Call              ToolCall
	Display           DisplayMessage
	Model             Message
	SideEffectApplied bool
	Continue          bool
	Err               error
}

// Status is the orchestrator's position in a turn.
type Status string

const (
	StatusIdle               Status = "idle"
	StatusAwaitingCompletion Status = "awaiting_completion"
	StatusExecutingTools     Status = "executing_tools"
)

type ReplyKind string

const (
	ReplyAnswer         ReplyKind = "answer"
	ReplyAcknowledgment ReplyKind = "acknowledgment"
	ReplyError          ReplyKind = "error"
	ReplyTruncated      ReplyKind = "truncated"
)

// Turn is the outcome of one submitted user message, follow-up completions
// included.
type Turn struct {
	Reply       string
	Kind        ReplyKind
	Messages    []DisplayMessage // display messages produced by this turn
	Completions int
}
