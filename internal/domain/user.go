package domain

import "strings"

// User represents a registered account. Users author tales and like public ones.
// The set of liked tales is not stored on the user; it lives in the engagement
// relation owned by the store.
type User struct {
	Timestamps
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash,omitempty"` // Stored hashed, filter from API responses
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
