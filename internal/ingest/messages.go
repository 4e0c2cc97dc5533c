package ingest

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/unkind-fall/marketing-sms-backup/internal/models"
	"github.com/unkind-fall/marketing-sms-backup/internal/phone"
)

// Sentinel values the backup app writes instead of omitting a field.
const (
	nullSentinel   = "null"
	unknownContact = "(Unknown)"
	noSubscription = "-1"
	textPlainType  = "text/plain"
)

// smsesDoc mirrors the root element of an SMS/MMS backup export. Repeated
// sms/mms children decode into slices, so a lone element and a list are
// handled uniformly downstream.
type smsesDoc struct {
	XMLName xml.Name     `xml:"smses"`
	SMS     []smsElement `xml:"sms"`
	MMS     []mmsElement `xml:"mms"`
}

type smsElement struct {
	Address      string `xml:"address,attr"`
	Date         string `xml:"date,attr"`
	Type         string `xml:"type,attr"`
	Body         string `xml:"body,attr"`
	ReadableDate string `xml:"readable_date,attr"`
	ContactName  string `xml:"contact_name,attr"`
	SubID        string `xml:"sub_id,attr"`
}

type mmsElement struct {
	Address      string    `xml:"address,attr"`
	Date         string    `xml:"date,attr"`
	MsgBox       string    `xml:"msg_box,attr"`
	ReadableDate string    `xml:"readable_date,attr"`
	ContactName  string    `xml:"contact_name,attr"`
	SubID        string    `xml:"sub_id,attr"`
	Parts        []mmsPart `xml:"parts>part"`
}

type mmsPart struct {
	ContentType string `xml:"ct,attr"`
	Text        string `xml:"text,attr"`
}

// ParseMessages converts a messages backup export into Message records.
// CreatedAt is left unset; it is assigned at persistence time. An export
// with no sms/mms children yields an empty list, not an error.
func ParseMessages(content string) ([]*models.Message, error) {
	var doc smsesDoc
	if err := xml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse messages archive: %w", err)
	}

	messages := make([]*models.Message, 0, len(doc.SMS)+len(doc.MMS))

	for _, sms := range doc.SMS {
		normalized := phone.Normalize(sms.Address)
		timestamp := parseEpoch(sms.Date)
		direction := models.DirectionFromCode(parseCode(sms.Type))
		body := nullableBody(sms.Body)

		messages = append(messages, &models.Message{
			ID:             MessageID(normalized.Normalized, timestamp, models.KindSMS, direction, body),
			Phone:          normalized.Normalized,
			PhoneRaw:       nullable(sms.Address),
			Kind:           models.KindSMS,
			Direction:      direction,
			Body:           body,
			Timestamp:      timestamp,
			ReadableDate:   nullableDate(sms.ReadableDate),
			ContactName:    nullableContact(sms.ContactName),
			SubscriptionID: nullableSubscription(sms.SubID),
		})
	}

	for _, mms := range doc.MMS {
		normalized := phone.Normalize(mms.Address)
		timestamp := parseEpoch(mms.Date)
		// msg_box uses the same encoding as the sms type attribute.
		direction := models.DirectionFromCode(parseCode(mms.MsgBox))
		body := extractMMSText(mms.Parts)

		messages = append(messages, &models.Message{
			ID:             MessageID(normalized.Normalized, timestamp, models.KindMMS, direction, body),
			Phone:          normalized.Normalized,
			PhoneRaw:       nullable(mms.Address),
			Kind:           models.KindMMS,
			Direction:      direction,
			Body:           body,
			Timestamp:      timestamp,
			ReadableDate:   nullableDate(mms.ReadableDate),
			ContactName:    nullableContact(mms.ContactName),
			SubscriptionID: nullableSubscription(mms.SubID),
		})
	}

	return messages, nil
}

// extractMMSText returns the text of the first text/plain part, or nil when
// the MMS carries no text part (media-only messages).
func extractMMSText(parts []mmsPart) *string {
	for _, p := range parts {
		if p.ContentType == textPlainType && p.Text != "" && p.Text != nullSentinel {
			text := p.Text
			return &text
		}
	}
	return nil
}

func parseEpoch(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseCode(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullableBody collapses the literal "null" the backup app writes for
// absent bodies.
func nullableBody(s string) *string {
	if s == "" || s == nullSentinel {
		return nil
	}
	return &s
}

func nullableDate(s string) *string {
	if s == "" || s == nullSentinel {
		return nil
	}
	return &s
}

// nullableContact collapses the "(Unknown)" placeholder to nil.
func nullableContact(s string) *string {
	if s == "" || s == nullSentinel || s == unknownContact {
		return nil
	}
	return &s
}

func nullableSubscription(s string) *string {
	if s == "" || s == nullSentinel || s == noSubscription {
		return nil
	}
	return &s
}
