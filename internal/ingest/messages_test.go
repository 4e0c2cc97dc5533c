package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkind-fall/marketing-sms-backup/internal/models"
)

func TestParseMessagesSMS(t *testing.T) {
	content := `<?xml version="1.0" encoding="UTF-8"?>
<smses count="2">
  <sms address="0450123456" date="1690000000000" type="1" body="Hello there" readable_date="Jul 22, 2023 14:26:40" contact_name="Alice" />
  <sms address="TPG" date="1690000100000" type="2" body="Your plan has been updated" readable_date="null" contact_name="(Unknown)" />
</smses>`

	messages, err := ParseMessages(content)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	first := messages[0]
	assert.Equal(t, "+61450123456", first.Phone)
	require.NotNil(t, first.PhoneRaw)
	assert.Equal(t, "0450123456", *first.PhoneRaw)
	assert.Equal(t, models.KindSMS, first.Kind)
	assert.Equal(t, models.DirectionReceived, first.Direction)
	require.NotNil(t, first.Body)
	assert.Equal(t, "Hello there", *first.Body)
	assert.Equal(t, int64(1690000000000), first.Timestamp)
	require.NotNil(t, first.ReadableDate)
	assert.Equal(t, "Jul 22, 2023 14:26:40", *first.ReadableDate)
	require.NotNil(t, first.ContactName)
	assert.Equal(t, "Alice", *first.ContactName)
	assert.Len(t, first.ID, 16)
	assert.Zero(t, first.CreatedAt)

	second := messages[1]
	assert.Equal(t, "TPG", second.Phone)
	assert.Equal(t, models.DirectionSent, second.Direction)
	assert.Nil(t, second.ReadableDate, "literal null collapses to nil")
	assert.Nil(t, second.ContactName, "(Unknown) collapses to nil")
}

// A lone sms element must parse the same way as a list of them.
func TestParseMessagesSingleElement(t *testing.T) {
	content := `<smses count="1"><sms address="321" date="1690000000000" type="1" body="short code" /></smses>`

	messages, err := ParseMessages(content)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "321", messages[0].Phone)
}

func TestParseMessagesNullBody(t *testing.T) {
	content := `<smses><sms address="0450123456" date="1690000000000" type="1" body="null" /></smses>`

	messages, err := ParseMessages(content)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Nil(t, messages[0].Body, "literal null body stored as nil, not verbatim")
}

func TestParseMessagesMMS(t *testing.T) {
	content := `<smses count="2">
  <mms address="0450123456" date="1690000200000" msg_box="1" contact_name="Alice">
    <parts>
      <part ct="application/smil" text="null" />
      <part ct="text/plain" text="MMS body text" />
    </parts>
  </mms>
  <mms address="0450123456" date="1690000300000" msg_box="2">
    <parts>
      <part ct="image/jpeg" text="null" />
    </parts>
  </mms>
</smses>`

	messages, err := ParseMessages(content)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	withText := messages[0]
	assert.Equal(t, models.KindMMS, withText.Kind)
	assert.Equal(t, models.DirectionReceived, withText.Direction)
	require.NotNil(t, withText.Body)
	assert.Equal(t, "MMS body text", *withText.Body)

	mediaOnly := messages[1]
	assert.Equal(t, models.DirectionSent, mediaOnly.Direction)
	assert.Nil(t, mediaOnly.Body, "no text/plain part means nil body")
}

func TestParseMessagesSubscriptionID(t *testing.T) {
	content := `<smses>
  <sms address="0450123456" date="1" type="1" body="a" sub_id="3" />
  <sms address="0450123456" date="2" type="1" body="b" sub_id="-1" />
  <sms address="0450123456" date="3" type="1" body="c" />
</smses>`

	messages, err := ParseMessages(content)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	require.NotNil(t, messages[0].SubscriptionID)
	assert.Equal(t, "3", *messages[0].SubscriptionID)
	assert.Nil(t, messages[1].SubscriptionID, "-1 means no subscription")
	assert.Nil(t, messages[2].SubscriptionID)
}

func TestParseMessagesEmptyCollection(t *testing.T) {
	messages, err := ParseMessages(`<smses count="0"></smses>`)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestParseMessagesMalformed(t *testing.T) {
	_, err := ParseMessages(`<smses><sms`)
	assert.Error(t, err)
}

// Identical records must fingerprint identically so the store can dedup them.
func TestParseMessagesDuplicateID(t *testing.T) {
	content := `<smses>
  <sms address="0450123456" date="1690000000000" type="1" body="same body" />
  <sms address="0450 123 456" date="1690000000000" type="1" body="same body" />
</smses>`

	messages, err := ParseMessages(content)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, messages[0].ID, messages[1].ID, "normalization makes the raw forms collide")
}
