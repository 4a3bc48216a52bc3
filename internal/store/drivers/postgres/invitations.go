package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/sundialhq/sundial/internal/domain"
	"github.com/sundialhq/sundial/internal/store"
)

type invitationsRepo struct {
	db querier
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO invitations (id, inviter_id, email, token_hash, expires_at, accepted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NULL, $6)`,
		inv.ID, inv.InviterID, inv.Email, inv.TokenHash, inv.ExpiresAt, inv.CreatedAt,
	)
	return mapConflict(err)
}

func (r *invitationsRepo) GetPendingInvitationByTokenHash(
	ctx context.Context,
	hash string,
) (domain.Invitation, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, inviter_id, email, token_hash, expires_at, accepted_at, created_at
		FROM invitations WHERE token_hash = $1 AND accepted_at IS NULL`, hash,
	)
	var inv domain.Invitation
	var acceptedAt sql.NullTime
	err := row.Scan(&inv.ID, &inv.InviterID, &inv.Email, &inv.TokenHash,
		&inv.ExpiresAt, &acceptedAt, &inv.CreatedAt)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	if acceptedAt.Valid {
		val := acceptedAt.Time
		inv.AcceptedAt = &val
	}
	return inv, nil
}

// MarkInvitationAccepted flips accepted_at exactly once. The guard on
// accepted_at IS NULL makes concurrent accepts lose with ErrNotFound.
func (r *invitationsRepo) MarkInvitationAccepted(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invitations SET accepted_at = $1 WHERE id = $2 AND accepted_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteExpiredInvitations removes pending invitations past expiry. Accepted
// rows are kept as an audit trail of who invited whom.
func (r *invitationsRepo) DeleteExpiredInvitations(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM invitations WHERE accepted_at IS NULL AND expires_at <= $1`,
		time.Now().UTC(),
	)
	return err
}
