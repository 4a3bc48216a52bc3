package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sundialhq/sundial/internal/domain"
	"github.com/sundialhq/sundial/internal/store"
	"github.com/sundialhq/sundial/pkg/idx"
	"github.com/sundialhq/sundial/pkg/slogx"
)

var ErrEventNotFound = errors.New("event not found")

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

type EventService struct {
	Store store.Store
}

// EventInput is the mutable surface of an event. Pointer fields distinguish
// "absent" from "zero" so updates can be partial.
type EventInput struct {
	Title       *string
	StartAt     *time.Time
	EndAt       *time.Time
	Location    *string
	Description *string
	Status      *string
	Tags        []string
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// EventPage is a filtered, paged event listing.
type EventPage struct {
	Items      []domain.Event `json:"items"`
	Pagination Pagination     `json:"pagination"`
}

func (s *EventService) Create(ctx context.Context, ownerID string, in EventInput) (domain.Event, error) {
	now := time.Now()

	e := domain.Event{
		ID:        idx.New().String(),
		OwnerID:   ownerID,
		Status:    domain.StatusUpcoming,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInput(&e, in)

	if err := validateEvent(e); err != nil {
		return domain.Event{}, err
	}

	if err := s.Store.Events().CreateEvent(ctx, e); err != nil {
		return domain.Event{}, err
	}
	return e, nil
}

func (s *EventService) Get(ctx context.Context, ownerID, id string) (domain.Event, error) {
	e, err := s.Store.Events().GetEvent(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Event{}, ErrEventNotFound
		}
		return domain.Event{}, err
	}
	return e, nil
}

// Update merges the provided fields into the stored event and re-validates
// the time window before persisting.
func (s *EventService) Update(ctx context.Context, ownerID, id string, in EventInput) (domain.Event, error) {
	e, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return domain.Event{}, err
	}

	applyInput(&e, in)
	e.UpdatedAt = time.Now()

	if err := validateEvent(e); err != nil {
		return domain.Event{}, err
	}

	if err := s.Store.Events().UpdateEvent(ctx, e); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Event{}, ErrEventNotFound
		}
		return domain.Event{}, err
	}
	return e, nil
}

func (s *EventService) Delete(ctx context.Context, ownerID, id string) error {
	err := s.Store.Events().DeleteEvent(ctx, ownerID, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrEventNotFound
	}
	return err
}

// List returns one page of the owner's events. An unfiltered first page that
// comes back empty seeds the starter events once and re-runs the query, so a
// brand-new calendar is never blank.
func (s *EventService) List(ctx context.Context, ownerID string, f store.EventFilter) (EventPage, error) {
	f = normalizeFilter(f)

	items, total, err := s.Store.Events().ListEvents(ctx, ownerID, f)
	if err != nil {
		return EventPage{}, err
	}

	if total == 0 && f.Page == 1 && !hasActiveFilters(f) {
		if err := s.SeedStarterEvents(ctx, ownerID); err != nil {
			return EventPage{}, err
		}
		items, total, err = s.Store.Events().ListEvents(ctx, ownerID, f)
		if err != nil {
			return EventPage{}, err
		}
	}

	return EventPage{
		Items: items,
		Pagination: Pagination{
			Page:       f.Page,
			Limit:      f.Limit,
			Total:      total,
			TotalPages: (total + f.Limit - 1) / f.Limit,
		},
	}, nil
}

// Overlapping returns the owner's events intersecting [start, end), ordered
// by start time.
func (s *EventService) Overlapping(ctx context.Context, ownerID string, start, end time.Time) ([]domain.Event, error) {
	return s.Store.Events().ListOverlappingEvents(ctx, ownerID, start, end)
}

// SeedStarterEvents gives a new user three sample events so the first view
// of the calendar has something on it. Skipped when any events already
// exist.
func (s *EventService) SeedStarterEvents(ctx context.Context, ownerID string) error {
	log := slogx.FromContext(ctx)

	n, err := s.Store.Events().CountOwnerEvents(ctx, ownerID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	for _, e := range buildStarterEvents(ownerID) {
		if err := s.Store.Events().CreateEvent(ctx, e); err != nil {
			return err
		}
	}

	log.Debug("starter events seeded", slog.String("owner_id", ownerID))
	return nil
}

func buildStarterEvents(ownerID string) []domain.Event {
	now := time.Now()
	at := func(hour, minute, dayOffset int) time.Time {
		return time.Date(now.Year(), now.Month(), now.Day()+dayOffset,
			hour, minute, 0, 0, now.Location())
	}

	starters := []domain.Event{
		{
			Title:       "Weekly Team Sync",
			StartAt:     at(10, 0, 1),
			EndAt:       at(11, 0, 1),
			Location:    "Conference Room A",
			Description: "Status updates, blockers, and priorities for the week.",
			Status:      domain.StatusUpcoming,
			Tags:        []string{"team", "sync"},
		},
		{
			Title:       "Product Planning Session",
			StartAt:     at(14, 0, 2),
			EndAt:       at(15, 30, 2),
			Location:    "Zoom",
			Description: "Review roadmap options and align on next milestones.",
			Status:      domain.StatusAttending,
			Tags:        []string{"planning", "product"},
		},
		{
			Title:       "Customer Feedback Review",
			StartAt:     at(9, 30, 4),
			EndAt:       at(10, 30, 4),
			Location:    "War Room",
			Description: "Analyze top user pain points and agree on follow-up actions.",
			Status:      domain.StatusMaybe,
			Tags:        []string{"customers", "research"},
		},
	}

	for i := range starters {
		starters[i].ID = idx.New().String()
		starters[i].OwnerID = ownerID
		starters[i].CreatedAt = now
		starters[i].UpdatedAt = now
	}
	return starters
}

func applyInput(e *domain.Event, in EventInput) {
	if in.Title != nil {
		e.Title = strings.TrimSpace(*in.Title)
	}
	if in.StartAt != nil {
		e.StartAt = *in.StartAt
	}
	if in.EndAt != nil {
		e.EndAt = *in.EndAt
	}
	if in.Location != nil {
		e.Location = strings.TrimSpace(*in.Location)
	}
	if in.Description != nil {
		e.Description = strings.TrimSpace(*in.Description)
	}
	if in.Status != nil {
		e.Status = domain.EventStatus(*in.Status)
	}
	if in.Tags != nil {
		e.Tags = in.Tags
	}
}

func validateEvent(e domain.Event) error {
	fields := map[string]string{}
	if e.Title == "" {
		fields["title"] = "Title is required"
	}
	if e.StartAt.IsZero() {
		fields["startAt"] = "startAt is required"
	}
	if e.EndAt.IsZero() {
		fields["endAt"] = "endAt is required"
	} else if !e.StartAt.IsZero() && !e.EndAt.After(e.StartAt) {
		fields["endAt"] = "endAt must be after startAt"
	}
	if !domain.ValidEventStatus(e.Status) {
		fields["status"] = "Status must be one of upcoming, attending, maybe, declined"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func normalizeFilter(f store.EventFilter) store.EventFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	if _, ok := allowedSortFields[f.SortField]; !ok {
		f.SortField = "startAt"
		f.SortDesc = false
	}
	return f
}

var allowedSortFields = map[string]struct{}{
	"startAt":   {},
	"createdAt": {},
	"updatedAt": {},
	"title":     {},
}

func hasActiveFilters(f store.EventFilter) bool {
	return f.Query != "" || f.Status != "" || f.From != nil || f.To != nil ||
		f.Location != "" || len(f.Tags) > 0
}
