package models

// MessageKind identifies which archive element a message came from.
type MessageKind string

const (
	KindSMS MessageKind = "sms"
	KindMMS MessageKind = "mms"
)

// Direction is the numeric direction code used by backup archives.
// SMS `type` and MMS `msg_box` share the same encoding.
type Direction int

const (
	DirectionUnknown  Direction = 0
	DirectionReceived Direction = 1
	DirectionSent     Direction = 2
)

// DirectionFromCode maps a raw archive code to a Direction.
// Codes outside the known set map to DirectionUnknown rather than
// being carried through as arbitrary integers.
func DirectionFromCode(code int) Direction {
	switch code {
	case 1:
		return DirectionReceived
	case 2:
		return DirectionSent
	default:
		return DirectionUnknown
	}
}

// Message represents one SMS or MMS record from a backup archive.
// ID is a content fingerprint derived from the normalized phone, timestamp,
// kind, direction and the first 100 characters of the body, so re-ingesting
// the same archive produces the same IDs.
type Message struct {
	ID             string      `json:"id"`                        // Content fingerprint, primary key
	Phone          string      `json:"phone"`                     // Normalized phone key
	PhoneRaw       *string     `json:"phone_raw,omitempty"`       // Original address as exported
	Kind           MessageKind `json:"type"`                      // sms or mms
	Direction      Direction   `json:"direction"`                 // 1=received, 2=sent
	Body           *string     `json:"body,omitempty"`            // Message text, nil when absent
	Timestamp      int64       `json:"timestamp"`                 // Epoch milliseconds
	ReadableDate   *string     `json:"readable_date,omitempty"`   // Human-readable date from the archive
	ContactName    *string     `json:"contact_name,omitempty"`    // Contact display name, nil when unknown
	SubscriptionID *string     `json:"subscription_id,omitempty"` // Originating SIM/line, nil when untagged
	SimSlot        *string     `json:"sim_slot,omitempty"`        // Physical SIM slot, webhook sources only
	CreatedAt      int64       `json:"created_at"`                // Ingestion time, assigned at persistence
}
