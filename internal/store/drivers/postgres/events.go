package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sundialhq/sundial/internal/domain"
	"github.com/sundialhq/sundial/internal/store"
)

type eventsRepo struct {
	db querier
}

// sortColumns whitelists the API sort field names against real columns.
// Anything else falls back to start_at.
var sortColumns = map[string]string{
	"startAt":   "start_at",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title",
}

func (r *eventsRepo) CreateEvent(ctx context.Context, e domain.Event) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO events (id, owner_id, title, start_at, end_at, location, description, status, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.OwnerID, e.Title, e.StartAt, e.EndAt, e.Location, e.Description,
		string(e.Status), normalizeTags(e.Tags), e.CreatedAt, e.UpdatedAt,
	)
	return mapConflict(err)
}

func (r *eventsRepo) GetEvent(ctx context.Context, ownerID, id string) (domain.Event, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, owner_id, title, start_at, end_at, location, description, status, tags, created_at, updated_at
		FROM events WHERE id = $1 AND owner_id = $2`, id, ownerID,
	)
	return scanEvent(row)
}

func (r *eventsRepo) UpdateEvent(ctx context.Context, e domain.Event) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE events
		SET title = $1, start_at = $2, end_at = $3, location = $4, description = $5, status = $6, tags = $7, updated_at = $8
		WHERE id = $9 AND owner_id = $10`,
		e.Title, e.StartAt, e.EndAt, e.Location, e.Description, string(e.Status),
		normalizeTags(e.Tags), e.UpdatedAt, e.ID, e.OwnerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *eventsRepo) DeleteEvent(ctx context.Context, ownerID, id string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM events WHERE id = $1 AND owner_id = $2`, id, ownerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListEvents builds a WHERE clause from the filter, counts the full match set
// and then fetches one page.
func (r *eventsRepo) ListEvents(
	ctx context.Context,
	ownerID string,
	f store.EventFilter,
) ([]domain.Event, int, error) {
	where := []string{"owner_id = $1"}
	args := []any{ownerID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Query != "" {
		p := arg(f.Query)
		where = append(where, fmt.Sprintf(
			"(title ILIKE '%%' || %s || '%%' OR location ILIKE '%%' || %s || '%%' OR description ILIKE '%%' || %s || '%%')", p, p, p))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if f.From != nil {
		where = append(where, "start_at >= "+arg(*f.From))
	}
	if f.To != nil {
		where = append(where, "start_at <= "+arg(*f.To))
	}
	if f.Location != "" {
		where = append(where, "location ILIKE '%' || "+arg(f.Location)+" || '%'")
	}
	if len(f.Tags) > 0 {
		// event must carry every requested tag
		where = append(where, "tags @> "+arg(f.Tags))
	}

	clause := strings.Join(where, " AND ")

	var total int
	countRow := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM events WHERE "+clause, args...)
	if err := countRow.Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[f.SortField]
	if !ok {
		col = "start_at"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(`
		SELECT id, owner_id, title, start_at, end_at, location, description, status, tags, created_at, updated_at
		FROM events WHERE %s
		ORDER BY %s %s, id ASC
		LIMIT %s OFFSET %s`, clause, col, dir, arg(limit), arg(offset))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]domain.Event, 0, limit)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventsRepo) CountOwnerEvents(ctx context.Context, ownerID string) (int, error) {
	row := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM events WHERE owner_id = $1`, ownerID,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ListOverlappingEvents returns the owner's events intersecting [start, end).
func (r *eventsRepo) ListOverlappingEvents(
	ctx context.Context,
	ownerID string,
	start, end time.Time,
) ([]domain.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, owner_id, title, start_at, end_at, location, description, status, tags, created_at, updated_at
		FROM events
		WHERE owner_id = $1 AND start_at < $2 AND end_at > $3
		ORDER BY start_at ASC`, ownerID, end, start,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	var status string
	var tags []string
	err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &e.StartAt, &e.EndAt,
		&e.Location, &e.Description, &status, &tags, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return domain.Event{}, mapNotFound(err)
	}
	e.Status = domain.EventStatus(status)
	if len(tags) > 0 {
		e.Tags = tags
	}
	return e, nil
}

// normalizeTags trims, deduplicates and drops empty tags before storage.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
