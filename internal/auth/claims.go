package auth

import "time"

// Claims are the verified contents of an access token.
// v4.local tokens are encrypted, so the claims are opaque to clients.
type Claims struct {
	UserID string `json:"user_id"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// Principal is the verified identity of a caller. It is produced per request
// and never persisted.
type Principal struct {
	ID string
}
