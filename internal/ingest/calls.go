package ingest

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/unkind-fall/marketing-sms-backup/internal/models"
	"github.com/unkind-fall/marketing-sms-backup/internal/phone"
)

// callsDoc mirrors the root element of a call log backup export.
type callsDoc struct {
	XMLName xml.Name      `xml:"calls"`
	Calls   []callElement `xml:"call"`
}

type callElement struct {
	Number         string `xml:"number,attr"`
	Duration       string `xml:"duration,attr"`
	Date           string `xml:"date,attr"`
	Type           string `xml:"type,attr"`
	ReadableDate   string `xml:"readable_date,attr"`
	ContactName    string `xml:"contact_name,attr"`
	SubscriptionID string `xml:"subscription_id,attr"`
}

// ParseCalls converts a call log export into Call records. Calls with an
// empty number are privacy-redacted on the device and carry nothing to key
// on, so they are skipped rather than failing the batch. CreatedAt is left
// unset; it is assigned at persistence time.
func ParseCalls(content string) ([]*models.Call, error) {
	var doc callsDoc
	if err := xml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse calls archive: %w", err)
	}

	calls := make([]*models.Call, 0, len(doc.Calls))

	for _, call := range doc.Calls {
		if call.Number == "" {
			continue
		}

		normalized := phone.Normalize(call.Number)
		timestamp := parseEpoch(call.Date)
		typeCode := parseCode(call.Type)
		duration, err := strconv.Atoi(call.Duration)
		if err != nil {
			duration = 0
		}

		calls = append(calls, &models.Call{
			ID:             CallID(normalized.Normalized, timestamp, typeCode, duration),
			Phone:          normalized.Normalized,
			PhoneRaw:       nullable(call.Number),
			CallType:       models.CallTypeFromCode(typeCode),
			Duration:       duration,
			Timestamp:      timestamp,
			ReadableDate:   nullableDate(call.ReadableDate),
			ContactName:    nullableContact(call.ContactName),
			SubscriptionID: nullableSubscription(call.SubscriptionID),
		})
	}

	return calls, nil
}
