// Package queue defines the payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// Event types published to the parking.events queue.
const (
	EventCheckIn              = "checkin"
	EventCheckOut             = "checkout"
	EventReservationCreated   = "reservation.created"
	EventReservationCancelled = "reservation.cancelled"
)

// ParkingEvent is published after a booking operation commits. It
// carries enough for downstream consumers to log, notify or feed
// analytics without querying the primary database. Times are RFC 3339
// UTC strings.
type ParkingEvent struct {
	Type            string `json:"type"`
	UserID          int64  `json:"user_id"`
	SlotID          int64  `json:"slot_id"`
	SlotName        string `json:"slot_name"`
	ReservationID   int64  `json:"reservation_id,omitempty"`
	StartTime       string `json:"start_time,omitempty"`
	EndTime         string `json:"end_time,omitempty"`
	DurationMinutes int64  `json:"duration_minutes,omitempty"`
	OccurredAt      string `json:"occurred_at"`
}
