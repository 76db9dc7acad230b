package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Fingerprint identifies a program/tests pair as a hex SHA-256. Fields are
// length-prefixed so moving text between them changes the result.
func Fingerprint(code, tests string) string {
	h := sha256.New()
	h.Write(strconv.AppendInt(nil, int64(len(code)), 10))
	h.Write([]byte{':'})
	h.Write([]byte(code))
	h.Write(strconv.AppendInt(nil, int64(len(tests)), 10))
	h.Write([]byte{':'})
	h.Write([]byte(tests))
	return hex.EncodeToString(h.Sum(nil))
}

// ShortHash returns the first 8 characters of a hash, for display
func ShortHash(full string) string {
	if len(full) < 8 {
		return full
	}
	return full[:8]
}
