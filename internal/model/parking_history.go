package model

import "time"

// ParkingHistory is one check‑in/check‑out session in the
// `parking_history` table.  A null CheckOutTime means the vehicle is
// currently parked.  At most one open row may exist per user and per
// slot at any time; closed rows are immutable.
type ParkingHistory struct {
	ID           int64      `json:"id"`
	SlotID       int64      `json:"slot_id"`
	UserID       int64      `json:"user_id"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
}

// DurationMinutes returns the whole minutes between check‑in and the
// supplied instant (check‑out time for closed sessions, now for open
// ones).  Sub‑minute remainders are floored.
func (h ParkingHistory) DurationMinutes(until time.Time) int64 {
	return int64(until.Sub(h.CheckInTime).Minutes())
}

// HistorySession decorates a history row with the slot name and the
// derived fields the API exposes: duration in minutes and an
// active/completed status string.
type HistorySession struct {
	ParkingHistory
	SlotName        string `json:"slot_name"`
	DurationMinutes *int64 `json:"duration_minutes"`
	Status          string `json:"status"`
}

// AdminHistorySession additionally carries the user's name and email for
// the admin listing.
type AdminHistorySession struct {
	HistorySession
	UserFullName string `json:"user_full_name"`
	UserEmail    string `json:"user_email"`
}
