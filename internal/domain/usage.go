package domain

import "time"

// AIUsage records a single AI-assist invocation for accounting.
type AIUsage struct {
	ID        string
	UserID    string
	Feature   string
	CreatedAt time.Time
}
