// Package ingest converts raw backup archives into typed records. It owns
// the XML parsers, archive format detection, and the content fingerprints
// used as primary keys.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/unkind-fall/marketing-sms-backup/internal/models"
)

// bodyPrefixLen bounds how much of a message body participates in its
// fingerprint. Two messages that agree on everything else and on this
// prefix are treated as the same logical event.
const bodyPrefixLen = 100

// MessageID computes the content fingerprint for a message record.
// It is a pure function of (phone, timestamp, kind, direction, body prefix):
// the same inputs always produce the same ID, which is what makes
// re-ingestion idempotent.
func MessageID(phone string, timestamp int64, kind models.MessageKind, direction models.Direction, body *string) string {
	prefix := ""
	if body != nil {
		prefix = truncateRunes(*body, bodyPrefixLen)
	}

	payload := strings.Join([]string{
		phone,
		strconv.FormatInt(timestamp, 10),
		string(kind),
		strconv.Itoa(int(direction)),
		prefix,
	}, "|")

	return fingerprint(payload)
}

// CallID computes the content fingerprint for a call record from
// (phone, timestamp, numeric call-type code, duration).
func CallID(phone string, timestamp int64, callTypeCode, duration int) string {
	payload := strings.Join([]string{
		phone,
		strconv.FormatInt(timestamp, 10),
		strconv.Itoa(callTypeCode),
		strconv.Itoa(duration),
	}, "|")

	return fingerprint(payload)
}

// fingerprint hashes the payload with SHA-256 and keeps the first 8 bytes,
// hex-encoded. Truncation trades collision resistance for compact keys;
// a collision within one phone's records means "same logical event", which
// is exactly the dedup behavior the pipeline wants.
func fingerprint(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:8])
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
