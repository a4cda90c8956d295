package model

import "time"

// Reservation status values.  The lifecycle is
// (none) -> active -> {cancelled, completed}; both end states are
// terminal and never revisited.
const (
	ReservationActive    = "active"
	ReservationCancelled = "cancelled"
	ReservationCompleted = "completed"
)

// Reservation is a user's claim on a slot for a half‑open time window
// [StartTime, EndTime).  No two active reservations on the same slot may
// overlap, and a user may hold at most three active reservations whose
// end time is still in the future.
type Reservation struct {
	ID        int64     `json:"id"`
	SlotID    int64     `json:"slot_id"`
	UserID    int64     `json:"user_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Covers reports whether the reservation window contains the instant t.
func (r Reservation) Covers(t time.Time) bool {
	return !r.StartTime.After(t) && t.Before(r.EndTime)
}

// EndedBefore reports whether the window has fully elapsed at t.
func (r Reservation) EndedBefore(t time.Time) bool {
	return r.EndTime.Before(t)
}

// ReservationDetail decorates a reservation with its slot name for API
// responses.
type ReservationDetail struct {
	Reservation
	SlotName string `json:"slot_name"`
}

// AdminReservationDetail additionally carries the owner's name and email
// for the admin listing.
type AdminReservationDetail struct {
	ReservationDetail
	UserFullName string `json:"user_full_name"`
	UserEmail    string `json:"user_email"`
}
