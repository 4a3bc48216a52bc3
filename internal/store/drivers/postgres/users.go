package postgres

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/sundialhq/sundial/internal/domain"
)

type usersRepo struct {
	db querier
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	var invitedBy any
	if u.InvitedBy != "" {
		invitedBy = u.InvitedBy
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, invited_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, invitedBy, u.CreatedAt,
	)
	return mapConflict(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, invited_by, created_at
		FROM users WHERE id = $1`, id,
	)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, invited_by, created_at
		FROM users WHERE email = $1`, email,
	)
	return scanUser(row)
}

// SetInvitedBy binds the inviter exactly once; a user who already has an
// inviter keeps the original one.
func (r *usersRepo) SetInvitedBy(ctx context.Context, userID, inviterID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET invited_by = $1 WHERE id = $2 AND invited_by IS NULL`,
		inviterID, userID,
	)
	return err
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	var invitedBy sql.NullString
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &invitedBy, &u.CreatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	if invitedBy.Valid {
		u.InvitedBy = invitedBy.String
	}
	return u, nil
}
