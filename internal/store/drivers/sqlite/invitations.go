package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/sundialhq/sundial/internal/domain"
	"github.com/sundialhq/sundial/internal/store"
)

type invitationsRepo struct {
	db dbtx
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invitations (id, inviter_id, email, token_hash, expires_at, accepted_at, created_at)
		VALUES (?, ?, ?, ?, ?, NULL, ?)`,
		inv.ID, inv.InviterID, inv.Email, inv.TokenHash, inv.ExpiresAt, inv.CreatedAt,
	)
	return mapConflict(err)
}

func (r *invitationsRepo) GetPendingInvitationByTokenHash(
	ctx context.Context,
	hash string,
) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, inviter_id, email, token_hash, expires_at, accepted_at, created_at
		FROM invitations WHERE token_hash = ? AND accepted_at IS NULL`, hash,
	)
	var inv domain.Invitation
	var acceptedAt sql.NullTime
	err := row.Scan(&inv.ID, &inv.InviterID, &inv.Email, &inv.TokenHash,
		&inv.ExpiresAt, &acceptedAt, &inv.CreatedAt)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	inv.AcceptedAt = mapNullTimePtr(acceptedAt)
	return inv, nil
}

// MarkInvitationAccepted flips accepted_at exactly once. The guard on
// accepted_at IS NULL makes concurrent accepts lose with ErrNotFound.
func (r *invitationsRepo) MarkInvitationAccepted(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations SET accepted_at = ? WHERE id = ? AND accepted_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteExpiredInvitations removes pending invitations past expiry. Accepted
// rows are kept as an audit trail of who invited whom.
func (r *invitationsRepo) DeleteExpiredInvitations(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM invitations WHERE accepted_at IS NULL AND expires_at <= ?`,
		time.Now().UTC(),
	)
	return err
}
