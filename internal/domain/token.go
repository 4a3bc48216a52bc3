package domain

import "time"

// TokenPair is what session issuance returns: a short-lived stateless
// access token and a ledger-backed single-use refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken models one outstanding, not-yet-consumed refresh token in
// the ledger. Rows are created at session issuance and deleted exactly once:
// on rotation, on logout, or by the expiry sweep. Never updated in place.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // base64url SHA-256 fingerprint of the raw token, unique
	ExpiresAt time.Time
	CreatedAt time.Time
}
