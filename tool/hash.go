package tool

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateRandomUUID returns a fresh client identifier.
func GenerateRandomUUID() string {
	return uuid.New().String()
}

// GenerateShortID returns a short hex token (8 chars) for preview file names.
func GenerateShortID() string {
	b := make([]byte, 4) // 4 bytes = 8 hex chars
	if _, err := rand.Read(b); err != nil {
		return GenerateRandomUUID()[:8] // fallback
	}
	return hex.EncodeToString(b)
}
