package domain

import "time"

// Invitation is a single-use, expiring token that links an invitee to the
// inviter. Once AcceptedAt is set the invitation is permanently consumed;
// an expired invitation never transitions to accepted.
type Invitation struct {
	ID         string
	InviterID  string
	Email      string // target email, empty for open invite links
	TokenHash  string // fingerprint of the raw invite token, unique
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	CreatedAt  time.Time
}

// Accepted reports whether the invitation has been consumed.
func (inv Invitation) Accepted() bool { return inv.AcceptedAt != nil }

// Expired reports whether the invitation has passed its expiry at now.
func (inv Invitation) Expired(now time.Time) bool { return now.After(inv.ExpiresAt) }
