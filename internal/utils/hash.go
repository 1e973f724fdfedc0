package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashHeader carries the request signature.
const HashHeader = "HashSHA256"

// CalculateHash returns the hex HMAC-SHA256 of body under key.
func CalculateHash(body []byte, key string) string {
	h := hmac.New(sha256.New, []byte(key))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHash compares sig against the expected signature in constant time.
func VerifyHash(body []byte, key, sig string) bool {
	want, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	h := hmac.New(sha256.New, []byte(key))
	h.Write(body)
	return hmac.Equal(h.Sum(nil), want)
}
