package models

// CallType is the symbolic kind of a call record.
type CallType string

const (
	CallIncoming  CallType = "incoming"
	CallOutgoing  CallType = "outgoing"
	CallMissed    CallType = "missed"
	CallVoicemail CallType = "voicemail"
	CallRejected  CallType = "rejected"
	CallBlocked   CallType = "blocked"
	CallUnknown   CallType = "unknown"
)

// CallTypeFromCode maps the archive's numeric call-type code to a CallType.
// The mapping is total; unrecognized codes become CallUnknown.
func CallTypeFromCode(code int) CallType {
	switch code {
	case 1:
		return CallIncoming
	case 2:
		return CallOutgoing
	case 3:
		return CallMissed
	case 4:
		return CallVoicemail
	case 5:
		return CallRejected
	case 6:
		return CallBlocked
	default:
		return CallUnknown
	}
}

// Call represents one call log record from a backup archive.
// ID is a content fingerprint of (phone, timestamp, numeric type code,
// duration), used as the dedup key across re-ingestions.
type Call struct {
	ID             string   `json:"id"`                        // Content fingerprint, primary key
	Phone          string   `json:"phone"`                     // Normalized phone key
	PhoneRaw       *string  `json:"phone_raw,omitempty"`       // Original number as exported
	CallType       CallType `json:"call_type"`                 // incoming/outgoing/missed/voicemail/rejected/blocked/unknown
	Duration       int      `json:"duration"`                  // Seconds
	Timestamp      int64    `json:"timestamp"`                 // Epoch milliseconds
	ReadableDate   *string  `json:"readable_date,omitempty"`   // Human-readable date from the archive
	ContactName    *string  `json:"contact_name,omitempty"`    // Contact display name, nil when unknown
	SubscriptionID *string  `json:"subscription_id,omitempty"` // Originating SIM/line, nil when untagged
	CreatedAt      int64    `json:"created_at"`                // Ingestion time, assigned at persistence
}
