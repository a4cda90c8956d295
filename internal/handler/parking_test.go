package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"
)

func newParkingFixture() (*ParkingHandler, *memSlots, *memHistory) {
	slots := newMemSlots("A1", "A2")
	history := newMemHistory(slots)
	h := NewParkingHandler(slots, history)
	return h, slots, history
}

func TestCheckIn(t *testing.T) {
	h, slots, _ := newParkingFixture()

	rec, env := doRequest(t, http.MethodPost, "/v1/parking/checkin",
		`{"slot_id":1}`, 1, nil, h.CheckIn)
	wantStatus(t, rec, http.StatusCreated)
	if !env.Success {
		t.Fatal("expected success envelope")
	}
	if got := slots.items[1].Status; got != "OCCUPIED" {
		t.Fatalf("slot status = %s, want OCCUPIED", got)
	}
}

func TestCheckInConflictNamesCurrentSlot(t *testing.T) {
	h, _, _ := newParkingFixture()

	rec, _ := doRequest(t, http.MethodPost, "/v1/parking/checkin",
		`{"slot_id":1}`, 1, nil, h.CheckIn)
	wantStatus(t, rec, http.StatusCreated)

	rec, env := doRequest(t, http.MethodPost, "/v1/parking/checkin",
		`{"slot_id":2}`, 1, nil, h.CheckIn)
	wantStatus(t, rec, http.StatusBadRequest)
	if !strings.Contains(env.Message, "A1") {
		t.Fatalf("conflict message %q does not name the occupied slot", env.Message)
	}
}

func TestCheckInRejectsUnknownAndBusySlots(t *testing.T) {
	h, slots, _ := newParkingFixture()

	rec, _ := doRequest(t, http.MethodPost, "/v1/parking/checkin",
		`{"slot_id":99}`, 1, nil, h.CheckIn)
	wantStatus(t, rec, http.StatusNotFound)

	s := slots.items[2]
	s.Status = "RESERVED"
	slots.items[2] = s
	rec, env := doRequest(t, http.MethodPost, "/v1/parking/checkin",
		`{"slot_id":2}`, 1, nil, h.CheckIn)
	wantStatus(t, rec, http.StatusBadRequest)
	if !strings.Contains(env.Message, "RESERVED") {
		t.Fatalf("message %q should mention slot state", env.Message)
	}
}

func TestCheckOutReportsDuration(t *testing.T) {
	h, slots, _ := newParkingFixture()

	start := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	h.Now = func() time.Time { return start }
	rec, _ := doRequest(t, http.MethodPost, "/v1/parking/checkin",
		`{"slot_id":1}`, 1, nil, h.CheckIn)
	wantStatus(t, rec, http.StatusCreated)

	// 125 minutes and change later; duration floors to whole minutes.
	h.Now = func() time.Time { return start.Add(125*time.Minute + 30*time.Second) }
	rec, env := doRequest(t, http.MethodPost, "/v1/parking/checkout", "", 1, nil, h.CheckOut)
	wantStatus(t, rec, http.StatusOK)

	data := dataMap(t, env)
	if got := data["duration_minutes"].(float64); got != 125 {
		t.Fatalf("duration_minutes = %v, want 125", got)
	}
	if got := data["slot_name"].(string); got != "A1" {
		t.Fatalf("slot_name = %s, want A1", got)
	}
	if got := slots.items[1].Status; got != "AVAILABLE" {
		t.Fatalf("slot status = %s, want AVAILABLE", got)
	}
}

func TestCheckOutWithoutSession(t *testing.T) {
	h, _, _ := newParkingFixture()
	rec, _ := doRequest(t, http.MethodPost, "/v1/parking/checkout", "", 1, nil, h.CheckOut)
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestCurrentSession(t *testing.T) {
	h, _, _ := newParkingFixture()

	rec, _ := doRequest(t, http.MethodGet, "/v1/parking/current", "", 1, nil, h.Current)
	wantStatus(t, rec, http.StatusNotFound)

	start := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	h.Now = func() time.Time { return start }
	doRequest(t, http.MethodPost, "/v1/parking/checkin", `{"slot_id":2}`, 1, nil, h.CheckIn)

	h.Now = func() time.Time { return start.Add(42 * time.Minute) }
	rec, env := doRequest(t, http.MethodGet, "/v1/parking/current", "", 1, nil, h.Current)
	wantStatus(t, rec, http.StatusOK)
	data := dataMap(t, env)
	if got := data["duration_minutes"].(float64); got != 42 {
		t.Fatalf("duration_minutes = %v, want 42", got)
	}
}

func TestHistoryListsClosedSessions(t *testing.T) {
	h, _, _ := newParkingFixture()

	start := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	h.Now = func() time.Time { return start }
	doRequest(t, http.MethodPost, "/v1/parking/checkin", `{"slot_id":1}`, 1, nil, h.CheckIn)
	h.Now = func() time.Time { return start.Add(time.Hour) }
	doRequest(t, http.MethodPost, "/v1/parking/checkout", "", 1, nil, h.CheckOut)

	rec, env := doRequest(t, http.MethodGet, "/v1/parking/history", "", 1, nil, h.History)
	wantStatus(t, rec, http.StatusOK)
	data := dataMap(t, env)
	items := data["history"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("history length = %d, want 1", len(items))
	}
	row := items[0].(map[string]interface{})
	if got := row["status"].(string); got != "completed" {
		t.Fatalf("row status = %s, want completed", got)
	}
	if got := row["duration_minutes"].(float64); got != 60 {
		t.Fatalf("row duration = %v, want 60", got)
	}
}
