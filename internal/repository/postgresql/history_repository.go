package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/smart-parking/internal/model"
	"github.com/iliyamo/smart-parking/internal/repository"
)

// HistoryRepo implements repository.HistoryRepository over the
// parking_history table.
type HistoryRepo struct{ DB *sql.DB }

func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{DB: db} }

// sessionFromRow derives the API-facing fields from a raw history row:
// duration in whole minutes for closed sessions, and an
// active/completed status string.
func sessionFromRow(h model.ParkingHistory, slotName string) model.HistorySession {
	s := model.HistorySession{ParkingHistory: h, SlotName: slotName, Status: "active"}
	if h.CheckOutTime != nil {
		d := h.DurationMinutes(*h.CheckOutTime)
		s.DurationMinutes = &d
		s.Status = "completed"
	}
	return s
}

// OpenSessionByUser returns the user's open session with its slot name,
// or ErrNoActiveSession.
func (r *HistoryRepo) OpenSessionByUser(ctx context.Context, userID int64) (model.HistorySession, error) {
	var h model.ParkingHistory
	var slotName string
	err := r.DB.QueryRowContext(ctx,
		`SELECT h.id, h.slot_id, h.user_id, h.check_in_time, s.slot_name
		 FROM parking_history h
		 JOIN parking_slots s ON s.id = h.slot_id
		 WHERE h.user_id = $1 AND h.check_out_time IS NULL
		 LIMIT 1`, userID).Scan(&h.ID, &h.SlotID, &h.UserID, &h.CheckInTime, &slotName)
	if errors.Is(err, sql.ErrNoRows) {
		return model.HistorySession{}, repository.ErrNoActiveSession
	}
	if err != nil {
		return model.HistorySession{}, err
	}
	return sessionFromRow(h, slotName), nil
}

// CheckIn opens a session for the user on the slot.
func (r *HistoryRepo) CheckIn(ctx context.Context, slotID, userID int64, now time.Time) (model.ParkingHistory, error) {
	var h model.ParkingHistory
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO parking_history (slot_id, user_id, check_in_time)
		 VALUES ($1, $2, $3)
		 RETURNING id, slot_id, user_id, check_in_time`,
		slotID, userID, now).Scan(&h.ID, &h.SlotID, &h.UserID, &h.CheckInTime)
	return h, err
}

// CloseSession stamps check_out_time on an open row. Closed rows are
// immutable, so the predicate requires check_out_time IS NULL.
func (r *HistoryRepo) CloseSession(ctx context.Context, id int64, now time.Time) (model.ParkingHistory, error) {
	var h model.ParkingHistory
	var out sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		`UPDATE parking_history SET check_out_time = $2
		 WHERE id = $1 AND check_out_time IS NULL
		 RETURNING id, slot_id, user_id, check_in_time, check_out_time`,
		id, now).Scan(&h.ID, &h.SlotID, &h.UserID, &h.CheckInTime, &out)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ParkingHistory{}, repository.ErrNoActiveSession
	}
	if err != nil {
		return model.ParkingHistory{}, err
	}
	if out.Valid {
		t := out.Time
		h.CheckOutTime = &t
	}
	return h, nil
}

// ListByUser returns a page of the user's sessions, newest first.
func (r *HistoryRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.HistorySession, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM parking_history WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT h.id, h.slot_id, h.user_id, h.check_in_time, h.check_out_time, s.slot_name
		 FROM parking_history h
		 JOIN parking_slots s ON s.id = h.slot_id
		 WHERE h.user_id = $1
		 ORDER BY h.check_in_time DESC
		 LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	sessions := make([]model.HistorySession, 0)
	for rows.Next() {
		var h model.ParkingHistory
		var out sql.NullTime
		var slotName string
		if err := rows.Scan(&h.ID, &h.SlotID, &h.UserID, &h.CheckInTime, &out, &slotName); err != nil {
			return nil, 0, err
		}
		if out.Valid {
			t := out.Time
			h.CheckOutTime = &t
		}
		sessions = append(sessions, sessionFromRow(h, slotName))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// ListAll returns a page of every user's sessions with owner info for
// the admin view.
func (r *HistoryRepo) ListAll(ctx context.Context, limit, offset int) ([]model.AdminHistorySession, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM parking_history`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT h.id, h.slot_id, h.user_id, h.check_in_time, h.check_out_time,
		        s.slot_name, u.full_name, u.email
		 FROM parking_history h
		 JOIN parking_slots s ON s.id = h.slot_id
		 JOIN users u ON u.id = h.user_id
		 ORDER BY h.check_in_time DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	sessions := make([]model.AdminHistorySession, 0)
	for rows.Next() {
		var h model.ParkingHistory
		var out sql.NullTime
		var a model.AdminHistorySession
		var slotName string
		if err := rows.Scan(&h.ID, &h.SlotID, &h.UserID, &h.CheckInTime, &out,
			&slotName, &a.UserFullName, &a.UserEmail); err != nil {
			return nil, 0, err
		}
		if out.Valid {
			t := out.Time
			h.CheckOutTime = &t
		}
		a.HistorySession = sessionFromRow(h, slotName)
		sessions = append(sessions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}
