package utils

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// OTPTTL is the reset-code validity window.
const OTPTTL = 3 * time.Hour

// GenerateOTP returns a 12-character random hex code and its expiry.
func GenerateOTP() (string, time.Time, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", time.Time{}, err
	}
	return hex.EncodeToString(b), time.Now().Add(OTPTTL), nil
}
