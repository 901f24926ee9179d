package tracker

import (
	"crypto/sha256"
	"encoding/hex"

	"metasweep/internal/metadata"
)

// Fingerprint computes an order-independent digest of a metadata record. Two
// records with the same field/value pairs produce the same fingerprint no
// matter the insertion order, and the empty record has a stable fingerprint
// distinct from any non-empty record.
func Fingerprint(record metadata.Record) string {
	digest := sha256.New()
	for _, field := range record.Fields() {
		digest.Write([]byte(field))
		digest.Write([]byte{0})
		digest.Write([]byte(record[field]))
		digest.Write([]byte{0})
	}
	return hex.EncodeToString(digest.Sum(nil))
}
