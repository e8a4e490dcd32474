// Package idempotency derives deterministic booking idempotency keys.
// The same logical booking attempt — same tenant, session, room, dates,
// and guest name — always derives the same key, so repeated slot-filling
// turns upsert a single draft instead of creating duplicate rows.
package idempotency

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key derives the booking idempotency key per spec.md §4.9:
// hash(tenantId | sessionId | roomId | checkIn | checkOut | lowercase(guestName)).
// secret is a server-held signing key so the key cannot be forged by a
// client that guesses the field values; it does not need to be kept
// secret from a correctness standpoint, only from a spoofing one.
func Key(secret, tenantID, sessionID, roomID, checkIn, checkOut, guestName string) string {
	msg := strings.Join([]string{
		tenantID,
		sessionID,
		roomID,
		checkIn,
		checkOut,
		strings.ToLower(strings.TrimSpace(guestName)),
	}, "|")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}
