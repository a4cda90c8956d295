package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/smart-parking/internal/model"
)

var baseTime = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type fakeSlots struct {
	items  []model.ParkingSlot
	writes int
}

func (f *fakeSlots) ListAll(_ context.Context) ([]model.ParkingSlot, error) {
	out := make([]model.ParkingSlot, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeSlots) SetStatus(_ context.Context, id int64, status string, now time.Time) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Status = status
			f.items[i].UpdatedAt = now
			f.writes++
			return nil
		}
	}
	return nil
}

func (f *fakeSlots) status(id int64) string {
	for _, s := range f.items {
		if s.ID == id {
			return s.Status
		}
	}
	return ""
}

type fakeReservations struct {
	items  []model.Reservation
	writes int
}

func (f *fakeReservations) ListByStatus(_ context.Context, status string) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range f.items {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservations) SetStatus(_ context.Context, id int64, status string) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Status = status
			f.writes++
			return nil
		}
	}
	return nil
}

func (f *fakeReservations) status(id int64) string {
	for _, r := range f.items {
		if r.ID == id {
			return r.Status
		}
	}
	return ""
}

func newTestEngine(slots *fakeSlots, reservations *fakeReservations, now time.Time) *Engine {
	return NewEngine(slots, reservations, func() time.Time { return now })
}

// runAll executes the four passes in tick order and returns the total
// number of mutations.
func runAll(t *testing.T, e *Engine) int {
	t.Helper()
	total := 0
	for _, pass := range []func(context.Context) (int, error){
		e.ActivateReservations,
		e.ReleaseEndedReservations,
		e.CompleteFinishedReservations,
		e.ReleaseCancelledReservations,
	} {
		n, err := pass(context.Background())
		if err != nil {
			t.Fatalf("pass failed: %v", err)
		}
		total += n
	}
	return total
}

func TestActivateReservations(t *testing.T) {
	slots := &fakeSlots{items: []model.ParkingSlot{
		{ID: 1, SlotName: "A1", Status: model.SlotAvailable},
		{ID: 2, SlotName: "A2", Status: model.SlotAvailable},
		{ID: 3, SlotName: "A3", Status: model.SlotOccupied},
		{ID: 4, SlotName: "A4", Status: model.SlotReserved},
	}}
	reservations := &fakeReservations{items: []model.Reservation{
		// covers now
		{ID: 10, SlotID: 1, UserID: 7, StartTime: baseTime.Add(-time.Hour), EndTime: baseTime.Add(time.Hour), Status: model.ReservationActive},
		// starts in the future
		{ID: 11, SlotID: 2, UserID: 7, StartTime: baseTime.Add(time.Hour), EndTime: baseTime.Add(2 * time.Hour), Status: model.ReservationActive},
		// covers now but the slot holds a walk-in
		{ID: 12, SlotID: 3, UserID: 8, StartTime: baseTime.Add(-time.Hour), EndTime: baseTime.Add(time.Hour), Status: model.ReservationActive},
		// covers now, slot already RESERVED
		{ID: 13, SlotID: 4, UserID: 9, StartTime: baseTime.Add(-time.Hour), EndTime: baseTime.Add(time.Hour), Status: model.ReservationActive},
	}}
	e := newTestEngine(slots, reservations, baseTime)

	n, err := e.ActivateReservations(context.Background())
	if err != nil {
		t.Fatalf("ActivateReservations failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 slot reserved, got %d", n)
	}
	if got := slots.status(1); got != model.SlotReserved {
		t.Fatalf("slot 1 = %s, want RESERVED", got)
	}
	if got := slots.status(2); got != model.SlotAvailable {
		t.Fatalf("slot 2 = %s, want AVAILABLE (future window)", got)
	}
	if got := slots.status(3); got != model.SlotOccupied {
		t.Fatalf("slot 3 = %s, want OCCUPIED untouched", got)
	}
}

func TestReservationLifecycle(t *testing.T) {
	// A reservation whose window covers now reserves its slot; once the
	// window elapses the slot is released and the reservation completed.
	slots := &fakeSlots{items: []model.ParkingSlot{
		{ID: 1, SlotName: "B1", Status: model.SlotAvailable},
	}}
	reservations := &fakeReservations{items: []model.Reservation{
		{ID: 20, SlotID: 1, UserID: 5, StartTime: baseTime, EndTime: baseTime.Add(30 * time.Minute), Status: model.ReservationActive},
	}}

	inWindow := newTestEngine(slots, reservations, baseTime.Add(time.Minute))
	if total := runAll(t, inWindow); total != 1 {
		t.Fatalf("first tick mutations = %d, want 1", total)
	}
	if got := slots.status(1); got != model.SlotReserved {
		t.Fatalf("slot = %s during window, want RESERVED", got)
	}

	afterWindow := newTestEngine(slots, reservations, baseTime.Add(31*time.Minute))
	if total := runAll(t, afterWindow); total != 2 {
		t.Fatalf("second tick mutations = %d, want 2 (release + complete)", total)
	}
	if got := slots.status(1); got != model.SlotAvailable {
		t.Fatalf("slot = %s after window, want AVAILABLE", got)
	}
	if got := reservations.status(20); got != model.ReservationCompleted {
		t.Fatalf("reservation = %s after window, want completed", got)
	}
}

func TestPassesAreIdempotent(t *testing.T) {
	slots := &fakeSlots{items: []model.ParkingSlot{
		{ID: 1, SlotName: "C1", Status: model.SlotAvailable},
		{ID: 2, SlotName: "C2", Status: model.SlotReserved},
	}}
	reservations := &fakeReservations{items: []model.Reservation{
		{ID: 30, SlotID: 1, UserID: 3, StartTime: baseTime.Add(-time.Minute), EndTime: baseTime.Add(time.Hour), Status: model.ReservationActive},
		{ID: 31, SlotID: 2, UserID: 4, StartTime: baseTime.Add(-2 * time.Hour), EndTime: baseTime.Add(-time.Hour), Status: model.ReservationActive},
	}}
	e := newTestEngine(slots, reservations, baseTime)

	if total := runAll(t, e); total == 0 {
		t.Fatal("first tick should mutate state")
	}
	if total := runAll(t, e); total != 0 {
		t.Fatalf("second tick mutations = %d, want 0", total)
	}
}

func TestCancelledReservationReleasesSlot(t *testing.T) {
	// Cancelling mid-window leaves the slot RESERVED; the cancellation
	// pass repairs it while the reservation stays cancelled.
	slots := &fakeSlots{items: []model.ParkingSlot{
		{ID: 1, SlotName: "D1", Status: model.SlotReserved},
	}}
	reservations := &fakeReservations{items: []model.Reservation{
		{ID: 40, SlotID: 1, UserID: 2, StartTime: baseTime.Add(-time.Hour), EndTime: baseTime.Add(time.Hour), Status: model.ReservationCancelled},
	}}
	e := newTestEngine(slots, reservations, baseTime)

	n, err := e.ReleaseCancelledReservations(context.Background())
	if err != nil {
		t.Fatalf("ReleaseCancelledReservations failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 slot released, got %d", n)
	}
	if got := slots.status(1); got != model.SlotAvailable {
		t.Fatalf("slot = %s, want AVAILABLE", got)
	}
	if got := reservations.status(40); got != model.ReservationCancelled {
		t.Fatalf("reservation = %s, want cancelled untouched", got)
	}
}

func TestCancelledReservationEndedLongAgoIsIgnored(t *testing.T) {
	slots := &fakeSlots{items: []model.ParkingSlot{
		{ID: 1, SlotName: "D2", Status: model.SlotReserved},
	}}
	reservations := &fakeReservations{items: []model.Reservation{
		{ID: 41, SlotID: 1, UserID: 2, StartTime: baseTime.Add(-3 * time.Hour), EndTime: baseTime.Add(-2 * time.Hour), Status: model.ReservationCancelled},
	}}
	e := newTestEngine(slots, reservations, baseTime)

	n, err := e.ReleaseCancelledReservations(context.Background())
	if err != nil {
		t.Fatalf("ReleaseCancelledReservations failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 slots released for a long-ended cancellation, got %d", n)
	}
}

func TestCompleteWaitsForOccupiedSlot(t *testing.T) {
	slots := &fakeSlots{items: []model.ParkingSlot{
		{ID: 1, SlotName: "E1", Status: model.SlotOccupied},
	}}
	reservations := &fakeReservations{items: []model.Reservation{
		{ID: 50, SlotID: 1, UserID: 6, StartTime: baseTime.Add(-2 * time.Hour), EndTime: baseTime.Add(-time.Hour), Status: model.ReservationActive},
	}}
	e := newTestEngine(slots, reservations, baseTime)

	n, err := e.CompleteFinishedReservations(context.Background())
	if err != nil {
		t.Fatalf("CompleteFinishedReservations failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 completions while slot is OCCUPIED, got %d", n)
	}
	if got := reservations.status(50); got != model.ReservationActive {
		t.Fatalf("reservation = %s, want still active", got)
	}
}

func TestWindowEndingBeforeFirstTick(t *testing.T) {
	// A window that opens and closes between ticks: by the time the
	// engine looks, the reservation has ended and its slot was never
	// reserved, so the only mutation is completion.
	slots := &fakeSlots{items: []model.ParkingSlot{
		{ID: 1, SlotName: "F1", Status: model.SlotAvailable},
	}}
	reservations := &fakeReservations{items: []model.Reservation{
		{ID: 60, SlotID: 1, UserID: 9, StartTime: baseTime.Add(time.Second), EndTime: baseTime.Add(5 * time.Second), Status: model.ReservationActive},
	}}
	e := newTestEngine(slots, reservations, baseTime.Add(10*time.Second))

	if total := runAll(t, e); total != 1 {
		t.Fatalf("tick mutations = %d, want 1 (complete only)", total)
	}
	if got := slots.status(1); got != model.SlotAvailable {
		t.Fatalf("slot = %s, want AVAILABLE", got)
	}
	if got := reservations.status(60); got != model.ReservationCompleted {
		t.Fatalf("reservation = %s, want completed", got)
	}
}
