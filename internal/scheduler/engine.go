// Package scheduler contains the reconciliation engine that keeps slot
// status, reservations and parking history in agreement with wall-clock
// time, plus the periodic job that drives it.
package scheduler

import (
	"context"
	"time"

	"github.com/iliyamo/smart-parking/internal/model"
)

// SlotStore is the slice of the slot repository the engine needs.
type SlotStore interface {
	ListAll(ctx context.Context) ([]model.ParkingSlot, error)
	SetStatus(ctx context.Context, id int64, status string, now time.Time) error
}

// ReservationStore is the slice of the reservation repository the
// engine needs.
type ReservationStore interface {
	ListByStatus(ctx context.Context, status string) ([]model.Reservation, error)
	SetStatus(ctx context.Context, id int64, status string) error
}

// Engine runs the four reconciliation passes. It is the sole writer of
// time-derived slot status; user-initiated writes happen synchronously
// in the booking handlers. Every pass is idempotent: running it twice
// against unchanged state updates nothing the second time.
//
// The decision logic is kept in pure functions over an in-memory
// snapshot so it can be exercised without a database; the engine
// methods only fetch the snapshot and apply the computed mutations.
type Engine struct {
	Slots        SlotStore
	Reservations ReservationStore
	Now          func() time.Time // nil means time.Now
}

// NewEngine wires an engine to its stores. Pass a fixed Now in tests.
func NewEngine(slots SlotStore, reservations ReservationStore, now func() time.Time) *Engine {
	return &Engine{Slots: slots, Reservations: reservations, Now: now}
}

func (e *Engine) clock() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

// slotsToActivate returns the ids of slots that are not RESERVED but
// have an active reservation whose window covers now. OCCUPIED slots
// are deliberately included in the scan but promoting them would hide a
// parked walk-in, so they are skipped.
func slotsToActivate(now time.Time, slots []model.ParkingSlot, active []model.Reservation) []int64 {
	covered := make(map[int64]bool, len(active))
	for _, r := range active {
		if r.Covers(now) {
			covered[r.SlotID] = true
		}
	}
	var ids []int64
	for _, s := range slots {
		if s.Status != model.SlotReserved && s.Status != model.SlotOccupied && covered[s.ID] {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// slotsToRelease returns the ids of RESERVED slots whose active
// reservation has ended.
func slotsToRelease(now time.Time, slots []model.ParkingSlot, active []model.Reservation) []int64 {
	ended := make(map[int64]bool, len(active))
	stillCovered := make(map[int64]bool, len(active))
	for _, r := range active {
		if r.EndedBefore(now) {
			ended[r.SlotID] = true
		}
		if r.Covers(now) {
			stillCovered[r.SlotID] = true
		}
	}
	var ids []int64
	for _, s := range slots {
		if s.Status == model.SlotReserved && ended[s.ID] && !stillCovered[s.ID] {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// reservationsToComplete returns the ids of active reservations whose
// window has ended and whose slot is currently AVAILABLE. A reservation
// whose slot is still occupied by an overlapping walk-in stays active
// until the slot frees up.
func reservationsToComplete(now time.Time, slots []model.ParkingSlot, active []model.Reservation) []int64 {
	available := make(map[int64]bool, len(slots))
	for _, s := range slots {
		available[s.ID] = s.Status == model.SlotAvailable
	}
	var ids []int64
	for _, r := range active {
		if r.EndedBefore(now) && available[r.SlotID] {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// slotsToReleaseByCancellation returns the ids of RESERVED slots for
// which a cancelled reservation still has end_time >= now, i.e. the
// cancellation happened while its window was notionally in effect and
// left the slot stuck in RESERVED.
func slotsToReleaseByCancellation(now time.Time, slots []model.ParkingSlot, cancelled []model.Reservation) []int64 {
	stuck := make(map[int64]bool, len(cancelled))
	for _, r := range cancelled {
		if !r.EndTime.Before(now) {
			stuck[r.SlotID] = true
		}
	}
	var ids []int64
	for _, s := range slots {
		if s.Status == model.SlotReserved && stuck[s.ID] {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func (e *Engine) snapshot(ctx context.Context, status string) ([]model.ParkingSlot, []model.Reservation, error) {
	slots, err := e.Slots.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	reservations, err := e.Reservations.ListByStatus(ctx, status)
	if err != nil {
		return nil, nil, err
	}
	return slots, reservations, nil
}

// ActivateReservations is pass 1: mark slots RESERVED while an active
// reservation covers now. Returns the number of slots updated.
func (e *Engine) ActivateReservations(ctx context.Context) (int, error) {
	now := e.clock()
	slots, active, err := e.snapshot(ctx, model.ReservationActive)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, id := range slotsToActivate(now, slots, active) {
		if err := e.Slots.SetStatus(ctx, id, model.SlotReserved, now); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// ReleaseEndedReservations is pass 2: return RESERVED slots to
// AVAILABLE once their reservation window has elapsed.
func (e *Engine) ReleaseEndedReservations(ctx context.Context) (int, error) {
	now := e.clock()
	slots, active, err := e.snapshot(ctx, model.ReservationActive)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, id := range slotsToRelease(now, slots, active) {
		if err := e.Slots.SetStatus(ctx, id, model.SlotAvailable, now); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// CompleteFinishedReservations is pass 3: move ended reservations to
// completed once their slot is free.
func (e *Engine) CompleteFinishedReservations(ctx context.Context) (int, error) {
	now := e.clock()
	slots, active, err := e.snapshot(ctx, model.ReservationActive)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, id := range reservationsToComplete(now, slots, active) {
		if err := e.Reservations.SetStatus(ctx, id, model.ReservationCompleted); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// ReleaseCancelledReservations is pass 4: repair slots left RESERVED
// after a reservation covering now was cancelled.
func (e *Engine) ReleaseCancelledReservations(ctx context.Context) (int, error) {
	now := e.clock()
	slots, cancelled, err := e.snapshot(ctx, model.ReservationCancelled)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, id := range slotsToReleaseByCancellation(now, slots, cancelled) {
		if err := e.Slots.SetStatus(ctx, id, model.SlotAvailable, now); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
