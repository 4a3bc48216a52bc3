package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sundialhq/sundial/internal/domain"
	"github.com/sundialhq/sundial/internal/store"
)

type eventsRepo struct {
	db dbtx
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
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, owner_id, title, start_at, end_at, location, description, status, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.Title, e.StartAt, e.EndAt, e.Location, e.Description,
		string(e.Status), joinTags(e.Tags), e.CreatedAt, e.UpdatedAt,
	)
	return mapConflict(err)
}

func (r *eventsRepo) GetEvent(ctx context.Context, ownerID, id string) (domain.Event, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, start_at, end_at, location, description, status, tags, created_at, updated_at
		FROM events WHERE id = ? AND owner_id = ?`, id, ownerID,
	)
	return scanEvent(row)
}

func (r *eventsRepo) UpdateEvent(ctx context.Context, e domain.Event) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET title = ?, start_at = ?, end_at = ?, location = ?, description = ?, status = ?, tags = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		e.Title, e.StartAt, e.EndAt, e.Location, e.Description, string(e.Status),
		joinTags(e.Tags), e.UpdatedAt, e.ID, e.OwnerID,
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

func (r *eventsRepo) DeleteEvent(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM events WHERE id = ? AND owner_id = ?`, id, ownerID,
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

// ListEvents builds a WHERE clause from the filter, counts the full match set
// and then fetches one page.
func (r *eventsRepo) ListEvents(
	ctx context.Context,
	ownerID string,
	f store.EventFilter,
) ([]domain.Event, int, error) {
	where := []string{"owner_id = ?"}
	args := []any{ownerID}

	if f.Query != "" {
		where = append(where, "(title LIKE '%' || ? || '%' OR location LIKE '%' || ? || '%' OR description LIKE '%' || ? || '%')")
		args = append(args, f.Query, f.Query, f.Query)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.From != nil {
		where = append(where, "start_at >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "start_at <= ?")
		args = append(args, *f.To)
	}
	if f.Location != "" {
		where = append(where, "location LIKE '%' || ? || '%'")
		args = append(args, f.Location)
	}
	for _, tag := range f.Tags {
		// tags column is comma-joined; wrap both sides in commas to match
		// whole tags only
		where = append(where, "(',' || tags || ',') LIKE '%,' || ? || ',%'")
		args = append(args, tag)
	}

	clause := strings.Join(where, " AND ")

	var total int
	countRow := r.db.QueryRowContext(ctx,
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
		LIMIT ? OFFSET ?`, clause, col, dir)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]domain.Event, 0, limit)
	for rows.Next() {
		e, err := scanEventRows(rows)
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
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events WHERE owner_id = ?`, ownerID,
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
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, title, start_at, end_at, location, description, status, tags, created_at, updated_at
		FROM events
		WHERE owner_id = ? AND start_at < ? AND end_at > ?
		ORDER BY start_at ASC`, ownerID, end, start,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEventRows(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanEvent(row *sql.Row) (domain.Event, error) {
	var e domain.Event
	var status, tags string
	err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &e.StartAt, &e.EndAt,
		&e.Location, &e.Description, &status, &tags, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return domain.Event{}, mapNotFound(err)
	}
	e.Status = domain.EventStatus(status)
	e.Tags = splitTags(tags)
	return e, nil
}

func scanEventRows(rows *sql.Rows) (domain.Event, error) {
	var e domain.Event
	var status, tags string
	err := rows.Scan(&e.ID, &e.OwnerID, &e.Title, &e.StartAt, &e.EndAt,
		&e.Location, &e.Description, &status, &tags, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return domain.Event{}, err
	}
	e.Status = domain.EventStatus(status)
	e.Tags = splitTags(tags)
	return e, nil
}
