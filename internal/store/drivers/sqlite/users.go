package sqlite

import (
	"context"
	"database/sql"

	"github.com/sundialhq/sundial/internal/domain"
)

type usersRepo struct {
	db dbtx
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, invited_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, mapStringNull(u.InvitedBy), u.CreatedAt,
	)
	return mapConflict(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, invited_by, created_at
		FROM users WHERE id = ?`, id,
	)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, invited_by, created_at
		FROM users WHERE email = ?`, email,
	)
	return scanUser(row)
}

// SetInvitedBy binds the inviter exactly once; a user who already has an
// inviter keeps the original one.
func (r *usersRepo) SetInvitedBy(ctx context.Context, userID, inviterID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET invited_by = ? WHERE id = ? AND invited_by IS NULL`,
		inviterID, userID,
	)
	return err
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var invitedBy sql.NullString
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &invitedBy, &u.CreatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.InvitedBy = mapNullString(invitedBy)
	return u, nil
}
