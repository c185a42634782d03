package chat

import "errors"

// Role indicates who authored a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Valid reports whether the role is one of the accepted values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	}
	return false
}

var (
	// ErrMissingRole is returned when an append payload omits the role.
	ErrMissingRole = errors.New("message role is required")
	// ErrInvalidRole is returned for roles outside the accepted set.
	ErrInvalidRole = errors.New("message role is invalid")
	// ErrMissingContent is returned when content is empty and the turn
	// carries no tool calls.
	ErrMissingContent = errors.New("message content is required")
)

// ToolCall is an assistant-issued tool invocation request.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"` // always "function"
	Function FunctionCall `json:"function"`
}

// FunctionCall names the function and its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// MessageRecord is one turn in a conversation. Records are immutable once
// appended; archival moves them to the backing store without rewriting.
type MessageRecord struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Timestamp  int64      `json:"timestamp"` // unix millis, non-decreasing per session
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"name,omitempty"`
}

// Validate checks the append payload shape. Content may be empty only when
// the turn carries tool calls.
func (m *MessageRecord) Validate() error {
	if m.Role == "" {
		return ErrMissingRole
	}
	if !m.Role.Valid() {
		return ErrInvalidRole
	}
	if m.Content == "" && len(m.ToolCalls) == 0 {
		return ErrMissingContent
	}
	return nil
}

// NewMessage builds a plain text turn.
func NewMessage(role Role, content string) MessageRecord {
	return MessageRecord{Role: role, Content: content}
}
