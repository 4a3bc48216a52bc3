package sqlite

import (
	"context"

	"github.com/sundialhq/sundial/internal/domain"
)

type aiUsageRepo struct {
	db dbtx
}

func (r *aiUsageRepo) RecordUsage(ctx context.Context, u domain.AIUsage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ai_usage (id, user_id, feature, created_at)
		VALUES (?, ?, ?, ?)`,
		u.ID, u.UserID, u.Feature, u.CreatedAt,
	)
	return err
}

func (r *aiUsageRepo) CountUserUsage(ctx context.Context, userID string) (int, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ai_usage WHERE user_id = ?`, userID,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
