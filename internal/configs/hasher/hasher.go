package hasher

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Header carries the hex HMAC-SHA256 of a response body.
const Header = "HashSHA256"

// Hasher signs payloads with HMAC-SHA256.
type Hasher struct {
	key []byte
}

// New creates a Hasher for key. An empty key yields nil so that callers
// can skip signing altogether.
func New(key string) *Hasher {
	if key == "" {
		return nil
	}
	return &Hasher{key: []byte(key)}
}

// Hash returns the hex-encoded HMAC-SHA256 of data.
func (h *Hasher) Hash(data []byte) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}
