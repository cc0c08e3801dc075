package manifest

import (
	"encoding/hex"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// ChecksumBlake2b256 is the only checksum type written today.
const ChecksumBlake2b256 = "blake2b-256"

// Checksum is a typed digest.
type Checksum struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Digest returns the BLAKE2b-256 checksum of data.
func Digest(data []byte) Checksum {
	sum := blake2b.Sum256(data)
	return Checksum{Type: ChecksumBlake2b256, Value: hex.EncodeToString(sum[:])}
}

// Matches reports whether data hashes to c.
func (c Checksum) Matches(data []byte) bool {
	if c.Type != ChecksumBlake2b256 {
		return false
	}
	return Digest(data).Value == c.Value
}

// Fingerprint returns the xxhash64 of data in hex.
func Fingerprint(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}
