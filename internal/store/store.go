package store

import (
	"context"
	"errors"
	"time"

	"github.com/sundialhq/sundial/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	Invitations() Invitations
	Events() Events
	AIUsage() AIUsage

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., refresh
	// rotation). The caller MUST call Commit() or Rollback() on the result.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to run transactions.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks a user up by lowercased email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// SetInvitedBy records the inviting user, only if not already set.
	SetInvitedBy(ctx context.Context, userID, inviterID string) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new ledger row.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the row matching the fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// DeleteRefreshTokenByHash consumes a row; ErrNotFound when no row
	// matched, which is how concurrent rotation on the same raw token is
	// detected.
	DeleteRefreshTokenByHash(ctx context.Context, hash string) error

	// CountUserRefreshTokens returns the number of live rows for a user.
	CountUserRefreshTokens(ctx context.Context, userID string) (int, error)

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context) error
}

type Invitations interface {
	// CreateInvitation writes a new invitation (token_hash is the
	// fingerprint of the opaque invite token).
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	// GetPendingInvitationByTokenHash returns a not-yet-accepted invitation
	// by hash. Expiry is checked by the caller so expired-but-pending rows
	// surface distinctly in logs.
	GetPendingInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error)

	// MarkInvitationAccepted sets accepted_at, only when still null.
	// ErrNotFound when the row is gone or already accepted; this is the
	// exactly-once barrier for concurrent accepts.
	MarkInvitationAccepted(ctx context.Context, id string) error

	// DeleteExpiredInvitations is housekeeping.
	DeleteExpiredInvitations(ctx context.Context) error
}

// EventFilter narrows and pages an owner's event listing.
type EventFilter struct {
	Query    string // substring over title/location/description
	Status   domain.EventStatus
	From     *time.Time // inclusive lower bound on start_at
	To       *time.Time // inclusive upper bound on start_at
	Location string     // substring match
	Tags     []string   // event must carry all of these

	Page  int // 1-based
	Limit int

	SortField string // startAt, createdAt, updatedAt, title
	SortDesc  bool
}

type Events interface {
	CreateEvent(ctx context.Context, e domain.Event) error

	// GetEvent fetches an event scoped to its owner.
	GetEvent(ctx context.Context, ownerID, id string) (domain.Event, error)

	// UpdateEvent persists mutated fields and bumps updated_at.
	UpdateEvent(ctx context.Context, e domain.Event) error

	// DeleteEvent removes an owner's event; ErrNotFound when nothing matched.
	DeleteEvent(ctx context.Context, ownerID, id string) error

	// ListEvents returns one page plus the total match count.
	ListEvents(ctx context.Context, ownerID string, f EventFilter) ([]domain.Event, int, error)

	// CountOwnerEvents returns the owner's total event count, used to
	// decide whether to seed starter events.
	CountOwnerEvents(ctx context.Context, ownerID string) (int, error)

	// ListOverlappingEvents returns the owner's events intersecting
	// [start, end), feeding the conflict summary.
	ListOverlappingEvents(ctx context.Context, ownerID string, start, end time.Time) ([]domain.Event, error)
}

type AIUsage interface {
	// RecordUsage appends one usage row.
	RecordUsage(ctx context.Context, u domain.AIUsage) error

	// CountUserUsage returns how many assist calls a user has made.
	CountUserUsage(ctx context.Context, userID string) (int, error)
}
