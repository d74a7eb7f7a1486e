package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

var hashSalt string

func init() {
	InitHashSalt()
}

// InitHashSalt reloads the salt from LOG_HASH_SALT.
// In production, set LOG_HASH_SALT environment variable.
func InitHashSalt() {
	hashSalt = os.Getenv("LOG_HASH_SALT")
	if hashSalt == "" {
		hashSalt = "default-salt-change-in-production"
	}
}

// HashUserID creates a privacy-preserving hash of a user ID.
// This allows tracking user actions without exposing actual user IDs.
func HashUserID(userID int64) string {
	data := fmt.Sprintf("%d:%s", userID, hashSalt)
	hash := sha256.Sum256([]byte(data))
	// Return first 8 characters for readability
	return hex.EncodeToString(hash[:])[:8]
}

// HashChatID creates a privacy-preserving hash of a chat ID.
func HashChatID(chatID int64) string {
	data := fmt.Sprintf("chat:%d:%s", chatID, hashSalt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:8]
}

// DescribePayload names a callback payload's type without its content.
// Strings report their length only.
func DescribePayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "<none>"
	case string:
		return fmt.Sprintf("<string: %d chars>", len(v))
	default:
		return fmt.Sprintf("<%T>", v)
	}
}
