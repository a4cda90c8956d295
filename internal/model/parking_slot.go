package model

import "time"

// Slot status values.  Status reflects the most recent of: an open
// check‑in session for the slot (OCCUPIED), an active reservation window
// covering now (RESERVED), or neither (AVAILABLE).  OCCUPIED always wins
// over a concurrently active reservation; the reconciliation engine never
// promotes an occupied slot to RESERVED.
const (
	SlotAvailable = "AVAILABLE"
	SlotOccupied  = "OCCUPIED"
	SlotReserved  = "RESERVED"
)

// ValidSlotStatus reports whether s is one of the three slot states.
func ValidSlotStatus(s string) bool {
	return s == SlotAvailable || s == SlotOccupied || s == SlotReserved
}

// ParkingSlot mirrors the `parking_slots` table.  Slots are created by
// admins and never deleted while a history record for them is still open.
type ParkingSlot struct {
	ID        int64     `json:"id"`
	SlotName  string    `json:"slot_name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
