package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Hash returns the sha3-256 digest of key.
func Hash(key []byte) []byte {
	hasher := sha3.New256()
	hasher.Write(key)
	return hasher.Sum(nil)
}

// HashToHex returns the sha3-256 digest of key, hex encoded. Used to derive
// deterministic identifiers.
func HashToHex(key []byte) string {
	return hex.EncodeToString(Hash(key))
}
