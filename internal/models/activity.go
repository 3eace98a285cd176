package models

import "time"

// ActivityStatus represents the lifecycle of a scheduled itinerary item.
type ActivityStatus string

// Lifecycle states. COMPLETED and CANCELLED are terminal.
const (
	ActivityStatusUpcoming  ActivityStatus = "UPCOMING"
	ActivityStatusOngoing   ActivityStatus = "ONGOING"
	ActivityStatusCompleted ActivityStatus = "COMPLETED"
	ActivityStatusCancelled ActivityStatus = "CANCELLED"
)

// Valid reports whether the status is a known enum value.
func (s ActivityStatus) Valid() bool {
	switch s {
	case ActivityStatusUpcoming, ActivityStatusOngoing, ActivityStatusCompleted, ActivityStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
// UPCOMING → {ONGOING, CANCELLED}; ONGOING → {COMPLETED, CANCELLED}.
func (s ActivityStatus) CanTransitionTo(next ActivityStatus) bool {
	switch s {
	case ActivityStatusUpcoming:
		return next == ActivityStatusOngoing || next == ActivityStatusCancelled
	case ActivityStatusOngoing:
		return next == ActivityStatusCompleted || next == ActivityStatusCancelled
	}
	return false
}

// Activity is a scheduled event on the tour itinerary, independent of registrations.
type Activity struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Time        time.Time      `db:"activity_time" json:"time"`
	Location    string         `db:"location" json:"location"`
	Status      ActivityStatus `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}
