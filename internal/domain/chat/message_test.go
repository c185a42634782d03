package chat

import (
	"errors"
	"testing"
	"time"
)

func timeRef(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return ts
}

func TestMessageRecordValidate(t *testing.T) {
	toolCall := ToolCall{
		ID:   "call_1",
		Type: "function",
		Function: FunctionCall{
			Name:      "lookup_order",
			Arguments: `{"order_id":"1001"}`,
		},
	}

	cases := []struct {
		name    string
		msg     MessageRecord
		wantErr error
	}{
		{
			name: "valid user message",
			msg:  NewMessage(RoleUser, "where is my order?"),
		},
		{
			name: "valid assistant message",
			msg:  NewMessage(RoleAssistant, "let me check."),
		},
		{
			name: "valid system message",
			msg:  NewMessage(RoleSystem, "you are a shopping assistant"),
		},
		{
			name: "valid tool result",
			msg: MessageRecord{
				Role:       RoleTool,
				Content:    `{"status":"shipped"}`,
				ToolCallID: "call_1",
				ToolName:   "lookup_order",
			},
		},
		{
			name: "assistant tool calls without content",
			msg: MessageRecord{
				Role:      RoleAssistant,
				ToolCalls: []ToolCall{toolCall},
			},
		},
		{
			name:    "missing role",
			msg:     MessageRecord{Content: "hello"},
			wantErr: ErrMissingRole,
		},
		{
			name:    "invalid role",
			msg:     MessageRecord{Role: "moderator", Content: "hello"},
			wantErr: ErrInvalidRole,
		},
		{
			name:    "empty content without tool calls",
			msg:     MessageRecord{Role: RoleUser},
			wantErr: ErrMissingContent,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSessionMetadataApply(t *testing.T) {
	created := timeRef(t, "2026-01-02T10:00:00Z")
	updated := timeRef(t, "2026-01-02T10:05:00Z")

	meta := NewSessionMetadata(created)
	meta.Preferences["size"] = "M"
	meta.Preferences["color"] = "blue"

	cart := "cart_42"
	customer := "cust_7"
	meta.Apply(MetadataPatch{
		CartID:     &cart,
		CustomerID: &customer,
		Preferences: map[string]any{
			"color":   "green",
			"shipped": true,
		},
	}, updated)

	if meta.CartID != "cart_42" {
		t.Errorf("CartID = %q, want cart_42", meta.CartID)
	}
	if meta.CustomerID != "cust_7" {
		t.Errorf("CustomerID = %q, want cust_7", meta.CustomerID)
	}
	if meta.Preferences["size"] != "M" {
		t.Errorf("untouched preference key lost: %v", meta.Preferences["size"])
	}
	if meta.Preferences["color"] != "green" {
		t.Errorf("patched preference key = %v, want green", meta.Preferences["color"])
	}
	if meta.Preferences["shipped"] != true {
		t.Errorf("new preference key = %v, want true", meta.Preferences["shipped"])
	}
	if !meta.LastActivity.Equal(updated) {
		t.Errorf("LastActivity = %v, want %v", meta.LastActivity, updated)
	}
	if !meta.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", meta.CreatedAt, created)
	}
}

func TestSessionMetadataApplyOmittedFieldsUntouched(t *testing.T) {
	now := timeRef(t, "2026-01-02T10:00:00Z")
	meta := NewSessionMetadata(now)
	meta.FirstName = "Ada"
	meta.ShopDomain = "shoes.example.com"

	empty := ""
	meta.Apply(MetadataPatch{FirstName: &empty}, now)

	if meta.FirstName != "" {
		t.Errorf("explicit empty should clear FirstName, got %q", meta.FirstName)
	}
	if meta.ShopDomain != "shoes.example.com" {
		t.Errorf("omitted field changed: %q", meta.ShopDomain)
	}
}
