package models

// Phone is the denormalized per-phone activity aggregate. Every field is
// derivable from a live scan over the messages and calls tables, so the row
// is a cache that can always be rebuilt; it is never a source of truth.
type Phone struct {
	Phone         string  `json:"phone"`                  // Normalized phone key
	DisplayName   *string `json:"display_name,omitempty"` // Last non-null contact name seen
	MessageCount  int     `json:"message_count"`
	LastMessageAt *int64  `json:"last_message_at,omitempty"` // Epoch ms of most recent message
	CallCount     int     `json:"call_count"`
	LastCallAt    *int64  `json:"last_call_at,omitempty"` // Epoch ms of most recent call
	UpdatedAt     int64   `json:"updated_at"`             // Epoch ms of last recompute
}

// PhoneStatsEntry names a phone whose aggregate should be recomputed,
// optionally carrying a display name observed in the current batch.
type PhoneStatsEntry struct {
	Phone       string
	DisplayName *string
}
