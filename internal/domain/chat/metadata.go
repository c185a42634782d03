package chat

import "time"

// SessionMetadata is the per-session identity and context record. It always
// exists for a live session, defaulted at actor creation.
type SessionMetadata struct {
	CartID       string         `json:"cart_id,omitempty"`
	CustomerID   string         `json:"customer_id,omitempty"`
	FirstName    string         `json:"first_name,omitempty"`
	LastName     string         `json:"last_name,omitempty"`
	ShopDomain   string         `json:"shop_domain,omitempty"`
	Preferences  map[string]any `json:"preferences,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActivity time.Time      `json:"last_activity"`
}

// MetadataPatch carries the optional fields of an update_metadata call.
// Pointer fields distinguish "not provided" from "set to empty".
type MetadataPatch struct {
	CartID      *string        `json:"cart_id,omitempty"`
	CustomerID  *string        `json:"customer_id,omitempty"`
	FirstName   *string        `json:"first_name,omitempty"`
	LastName    *string        `json:"last_name,omitempty"`
	ShopDomain  *string        `json:"shop_domain,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

// NewSessionMetadata defaults the record at session creation time.
func NewSessionMetadata(now time.Time) SessionMetadata {
	return SessionMetadata{
		Preferences:  make(map[string]any),
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Apply shallow-merges the patch into the metadata. Preference keys are
// merged individually, last write wins per key.
func (m *SessionMetadata) Apply(patch MetadataPatch, now time.Time) {
	if patch.CartID != nil {
		m.CartID = *patch.CartID
	}
	if patch.CustomerID != nil {
		m.CustomerID = *patch.CustomerID
	}
	if patch.FirstName != nil {
		m.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		m.LastName = *patch.LastName
	}
	if patch.ShopDomain != nil {
		m.ShopDomain = *patch.ShopDomain
	}
	if len(patch.Preferences) > 0 {
		if m.Preferences == nil {
			m.Preferences = make(map[string]any, len(patch.Preferences))
		}
		for k, v := range patch.Preferences {
			m.Preferences[k] = v
		}
	}
	m.LastActivity = now
}
