package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking/internal/model"
	"github.com/iliyamo/smart-parking/internal/repository"
	"github.com/iliyamo/smart-parking/internal/utils"
)

// In-memory stores backing the handler tests. They honor the same
// sentinel errors as the Postgres implementations.

type memSlots struct {
	items  map[int64]model.ParkingSlot
	nextID int64
}

func newMemSlots(names ...string) *memSlots {
	m := &memSlots{items: map[int64]model.ParkingSlot{}}
	for _, n := range names {
		m.add(n, model.SlotAvailable)
	}
	return m
}

func (m *memSlots) add(name, status string) model.ParkingSlot {
	m.nextID++
	s := model.ParkingSlot{ID: m.nextID, SlotName: name, Status: status}
	m.items[s.ID] = s
	return s
}

func (m *memSlots) Create(_ context.Context, name, status string) (model.ParkingSlot, error) {
	for _, s := range m.items {
		if s.SlotName == name {
			return model.ParkingSlot{}, repository.ErrSlotNameExists
		}
	}
	return m.add(name, status), nil
}

func (m *memSlots) GetByID(_ context.Context, id int64) (model.ParkingSlot, error) {
	s, ok := m.items[id]
	if !ok {
		return model.ParkingSlot{}, repository.ErrNotFound
	}
	return s, nil
}

func (m *memSlots) List(_ context.Context, status string, limit, offset int) ([]model.ParkingSlot, int, error) {
	var out []model.ParkingSlot
	for _, s := range m.items {
		if status == "" || s.Status == status {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (m *memSlots) ListAll(_ context.Context) ([]model.ParkingSlot, error) {
	var out []model.ParkingSlot
	for _, s := range m.items {
		out = append(out, s)
	}
	return out, nil
}

func (m *memSlots) ListAvailable(_ context.Context) ([]model.ParkingSlot, error) {
	var out []model.ParkingSlot
	for _, s := range m.items {
		if s.Status == model.SlotAvailable {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSlots) SetStatus(_ context.Context, id int64, status string, now time.Time) error {
	s, ok := m.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = now
	m.items[id] = s
	return nil
}

func (m *memSlots) Delete(_ context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memHistory struct {
	slots  *memSlots
	items  []model.ParkingHistory
	nextID int64
}

func newMemHistory(slots *memSlots) *memHistory {
	return &memHistory{slots: slots}
}

func (m *memHistory) OpenSessionByUser(_ context.Context, userID int64) (model.HistorySession, error) {
	for _, h := range m.items {
		if h.UserID == userID && h.CheckOutTime == nil {
			return model.HistorySession{
				ParkingHistory: h,
				SlotName:       m.slots.items[h.SlotID].SlotName,
				Status:         "active",
			}, nil
		}
	}
	return model.HistorySession{}, repository.ErrNoActiveSession
}

func (m *memHistory) CheckIn(_ context.Context, slotID, userID int64, now time.Time) (model.ParkingHistory, error) {
	m.nextID++
	h := model.ParkingHistory{ID: m.nextID, SlotID: slotID, UserID: userID, CheckInTime: now}
	m.items = append(m.items, h)
	return h, nil
}

func (m *memHistory) CloseSession(_ context.Context, id int64, now time.Time) (model.ParkingHistory, error) {
	for i, h := range m.items {
		if h.ID == id && h.CheckOutTime == nil {
			t := now
			m.items[i].CheckOutTime = &t
			return m.items[i], nil
		}
	}
	return model.ParkingHistory{}, repository.ErrNoActiveSession
}

func (m *memHistory) ListByUser(_ context.Context, userID int64, limit, offset int) ([]model.HistorySession, int, error) {
	var out []model.HistorySession
	for _, h := range m.items {
		if h.UserID != userID {
			continue
		}
		s := model.HistorySession{ParkingHistory: h, SlotName: m.slots.items[h.SlotID].SlotName, Status: "active"}
		if h.CheckOutTime != nil {
			d := h.DurationMinutes(*h.CheckOutTime)
			s.DurationMinutes = &d
			s.Status = "completed"
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *memHistory) ListAll(_ context.Context, limit, offset int) ([]model.AdminHistorySession, int, error) {
	return nil, len(m.items), nil
}

type memReservations struct {
	slots       *memSlots
	items       []model.Reservation
	nextID      int64
	unavailable bool // simulate a missing parking_reservations table
}

func newMemReservations(slots *memSlots) *memReservations {
	return &memReservations{slots: slots}
}

func (m *memReservations) guard() error {
	if m.unavailable {
		return repository.ErrReservationsUnavailable
	}
	return nil
}

func (m *memReservations) Create(_ context.Context, slotID, userID int64, start, end time.Time) (model.ReservationDetail, error) {
	if err := m.guard(); err != nil {
		return model.ReservationDetail{}, err
	}
	m.nextID++
	r := model.Reservation{ID: m.nextID, SlotID: slotID, UserID: userID,
		StartTime: start, EndTime: end, Status: model.ReservationActive}
	m.items = append(m.items, r)
	return model.ReservationDetail{Reservation: r, SlotName: m.slots.items[slotID].SlotName}, nil
}

func (m *memReservations) ListByUser(_ context.Context, userID int64) ([]model.ReservationDetail, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	var out []model.ReservationDetail
	for _, r := range m.items {
		if r.UserID == userID {
			out = append(out, model.ReservationDetail{Reservation: r, SlotName: m.slots.items[r.SlotID].SlotName})
		}
	}
	return out, nil
}

func (m *memReservations) ListAll(_ context.Context, limit, offset int) ([]model.AdminReservationDetail, int, error) {
	if err := m.guard(); err != nil {
		return nil, 0, err
	}
	return nil, len(m.items), nil
}

func (m *memReservations) ActiveFutureCount(_ context.Context, userID int64, now time.Time) (int, error) {
	if err := m.guard(); err != nil {
		return 0, err
	}
	n := 0
	for _, r := range m.items {
		if r.UserID == userID && r.Status == model.ReservationActive && r.EndTime.After(now) {
			n++
		}
	}
	return n, nil
}

func (m *memReservations) HasOverlap(_ context.Context, slotID int64, start, end time.Time) (bool, error) {
	if err := m.guard(); err != nil {
		return false, err
	}
	for _, r := range m.items {
		if r.SlotID == slotID && r.Status == model.ReservationActive &&
			r.StartTime.Before(end) && r.EndTime.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memReservations) Cancel(_ context.Context, id, userID int64) (model.Reservation, error) {
	if err := m.guard(); err != nil {
		return model.Reservation{}, err
	}
	for i, r := range m.items {
		if r.ID != id {
			continue
		}
		if userID != 0 && r.UserID != userID {
			return model.Reservation{}, repository.ErrForbidden
		}
		if r.Status != model.ReservationActive {
			return model.Reservation{}, repository.ErrConflict
		}
		m.items[i].Status = model.ReservationCancelled
		return m.items[i], nil
	}
	return model.Reservation{}, repository.ErrNotFound
}

func (m *memReservations) ListByStatus(_ context.Context, status string) ([]model.Reservation, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	var out []model.Reservation
	for _, r := range m.items {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReservations) SetStatus(_ context.Context, id int64, status string) error {
	if err := m.guard(); err != nil {
		return err
	}
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Status = status
		}
	}
	return nil
}

type memUsers struct {
	items  map[int64]model.User
	roles  map[int64]string
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{items: map[int64]model.User{}, roles: map[int64]string{}}
}

func (m *memUsers) add(fullName, email string, plate *string) model.User {
	m.nextID++
	u := model.User{ID: m.nextID, FullName: fullName, Email: email, LicensePlate: plate, IsActive: true}
	m.items[u.ID] = u
	return u
}

func (m *memUsers) Create(_ context.Context, fullName, email, passwordHash string, licensePlate *string) (model.User, error) {
	for _, u := range m.items {
		if u.Email == email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	u := m.add(fullName, email, licensePlate)
	u.PasswordHash = passwordHash
	m.items[u.ID] = u
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (model.User, error) {
	u, ok := m.items[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range m.items {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) FindByLicensePlate(_ context.Context, plate string) (model.User, error) {
	for _, u := range m.items {
		if u.LicensePlate != nil && *u.LicensePlate == plate {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) List(_ context.Context, limit, offset int) ([]model.User, int, error) {
	var out []model.User
	for _, u := range m.items {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *memUsers) Update(_ context.Context, id int64, fullName string, licensePlate *string) (model.User, error) {
	u, ok := m.items[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	u.FullName = fullName
	u.LicensePlate = licensePlate
	m.items[id] = u
	return u, nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memUsers) RoleForUser(_ context.Context, userID int64) (string, error) {
	if r, ok := m.roles[userID]; ok {
		return r, nil
	}
	return model.RoleDriver, nil
}

func (m *memUsers) ListRoles(_ context.Context) ([]model.Role, error) {
	return []model.Role{{ID: 1, Name: model.RoleDriver}, {ID: 2, Name: model.RoleAdmin}}, nil
}

func (m *memUsers) AssignRole(_ context.Context, userID, roleID int64) error {
	if roleID == 2 {
		m.roles[userID] = model.RoleAdmin
	} else {
		m.roles[userID] = model.RoleDriver
	}
	return nil
}

// doRequest runs one handler through Echo with an authenticated DRIVER
// context and returns the recorder and decoded envelope.
func doRequest(t *testing.T, method, target, body string, userID int64,
	params map[string]string, fn echo.HandlerFunc) (*httptest.ResponseRecorder, utils.APIResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", model.RoleDriver)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	if err := fn(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	var env utils.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope: %v (%s)", err, rec.Body.String())
	}
	return rec, env
}

func dataMap(t *testing.T, env utils.APIResponse) map[string]interface{} {
	t.Helper()
	m, ok := env.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("envelope data is %T, want object", env.Data)
	}
	return m
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, want, rec.Body.String())
	}
}
