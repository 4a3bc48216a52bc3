package domain

import "time"

// DefaultRole is the single role every account carries. There is no
// permission system beyond per-event ownership.
const DefaultRole = "user"

type User struct {
	ID           string
	Name         string
	Email        string // stored lowercased, unique
	PasswordHash string // argon2id encoded, never the raw password
	Role         string
	InvitedBy    string // inviter's user id; empty until set, set at most once
	CreatedAt    time.Time
}
