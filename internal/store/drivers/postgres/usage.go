package postgres

import (
	"context"

	"github.com/sundialhq/sundial/internal/domain"
)

type aiUsageRepo struct {
	db querier
}

func (r *aiUsageRepo) RecordUsage(ctx context.Context, u domain.AIUsage) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO ai_usage (id, user_id, feature, created_at)
		VALUES ($1, $2, $3, $4)`,
		u.ID, u.UserID, u.Feature, u.CreatedAt,
	)
	return err
}

func (r *aiUsageRepo) CountUserUsage(ctx context.Context, userID string) (int, error) {
	row := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM ai_usage WHERE user_id = $1`, userID,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
