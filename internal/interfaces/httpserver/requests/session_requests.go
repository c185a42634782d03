package requests

import "github.com/chatcart/session-api/internal/domain/chat"

// AppendMessageRequest is the append payload. Timestamp is optional; the
// actor assigns one at write time when absent.
type AppendMessageRequest struct {
	Role       string          `json:"role"`
	Content    string          `json:"content"`
	Timestamp  int64           `json:"timestamp,omitempty"`
	ToolCalls  []chat.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Name       string          `json:"name,omitempty"`
}

// ToRecord maps the request onto the domain message.
func (r *AppendMessageRequest) ToRecord() chat.MessageRecord {
	return chat.MessageRecord{
		Role:       chat.Role(r.Role),
		Content:    r.Content,
		Timestamp:  r.Timestamp,
		ToolCalls:  r.ToolCalls,
		ToolCallID: r.ToolCallID,
		ToolName:   r.Name,
	}
}

// UpdateMetadataRequest carries the partial metadata fields; absent fields
// leave the current values untouched.
type UpdateMetadataRequest struct {
	CartID      *string        `json:"cart_id,omitempty"`
	CustomerID  *string        `json:"customer_id,omitempty"`
	FirstName   *string        `json:"first_name,omitempty"`
	LastName    *string        `json:"last_name,omitempty"`
	ShopDomain  *string        `json:"shop_domain,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

// ToPatch maps the request onto the domain patch.
func (r *UpdateMetadataRequest) ToPatch() chat.MetadataPatch {
	return chat.MetadataPatch{
		CartID:      r.CartID,
		CustomerID:  r.CustomerID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		ShopDomain:  r.ShopDomain,
		Preferences: r.Preferences,
	}
}

// ConsumeRequest optionally names how many tokens to take; zero means one.
type ConsumeRequest struct {
	Tokens int `json:"tokens,omitempty"`
}
