package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewVerificationToken returns a cryptographically secure random token used
// to prove email ownership.  The token is mailed to the user and stored on
// the account until verified or expired.
func NewVerificationToken() (string, error) {
	return randomHex(24) // 24 bytes -> 48 hex chars
}

// NewTempPassword returns a random throwaway password assigned at
// registration.  The user never sees it; they set a real password after
// verifying their email.
func NewTempPassword() (string, error) {
	return randomHex(10)
}

// NewAccountID generates an opaque account identifier.  The format mirrors
// what clients already expect: a "user_" prefix, a millisecond timestamp and
// a short random suffix.
func NewAccountID() (string, error) {
	suffix, err := randomHex(5)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("user_%d_%s", time.Now().UnixMilli(), suffix), nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
