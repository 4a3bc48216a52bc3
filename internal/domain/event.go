package domain

import "time"

// EventStatus is the owner's RSVP-style state for an event.
type EventStatus string

const (
	StatusUpcoming  EventStatus = "upcoming"
	StatusAttending EventStatus = "attending"
	StatusMaybe     EventStatus = "maybe"
	StatusDeclined  EventStatus = "declined"
)

// EventStatuses lists every valid status value.
var EventStatuses = []EventStatus{StatusUpcoming, StatusAttending, StatusMaybe, StatusDeclined}

// ValidEventStatus reports whether s is one of the known statuses.
func ValidEventStatus(s EventStatus) bool {
	for _, v := range EventStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Event is a calendar entry owned by exactly one user. EndAt is always
// strictly after StartAt.
type Event struct {
	ID          string      `json:"id"`
	OwnerID     string      `json:"ownerId"`
	Title       string      `json:"title"`
	StartAt     time.Time   `json:"startAt"`
	EndAt       time.Time   `json:"endAt"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	Status      EventStatus `json:"status"`
	Tags        []string    `json:"tags"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
