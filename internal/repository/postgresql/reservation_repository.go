package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/smart-parking/internal/model"
	"github.com/iliyamo/smart-parking/internal/repository"
)

// ReservationRepo implements repository.ReservationRepository over the
// parking_reservations table. The table may not exist yet on fresh
// deployments; every query maps undefined_table to
// ErrReservationsUnavailable so the API can degrade instead of failing.
type ReservationRepo struct{ DB *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{DB: db} }

const reservationColumns = "id, slot_id, user_id, start_time, end_time, status, created_at"

func reservationErr(err error) error {
	if isUndefinedTable(err) {
		return repository.ErrReservationsUnavailable
	}
	return err
}

func scanReservation(row interface{ Scan(...interface{}) error }) (model.Reservation, error) {
	var rv model.Reservation
	err := row.Scan(&rv.ID, &rv.SlotID, &rv.UserID, &rv.StartTime, &rv.EndTime, &rv.Status, &rv.CreatedAt)
	return rv, err
}

// Create inserts an active reservation and returns it with the slot name.
func (r *ReservationRepo) Create(ctx context.Context, slotID, userID int64, start, end time.Time) (model.ReservationDetail, error) {
	var det model.ReservationDetail
	rv, err := scanReservation(r.DB.QueryRowContext(ctx,
		`INSERT INTO parking_reservations (slot_id, user_id, start_time, end_time, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+reservationColumns,
		slotID, userID, start, end, model.ReservationActive))
	if err != nil {
		return det, reservationErr(err)
	}
	det.Reservation = rv
	err = r.DB.QueryRowContext(ctx,
		`SELECT slot_name FROM parking_slots WHERE id = $1`, slotID).Scan(&det.SlotName)
	if err != nil {
		return det, err
	}
	return det, nil
}

// ListByUser returns all of the user's reservations (any status)
// ordered by start time.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID int64) ([]model.ReservationDetail, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.id, r.slot_id, r.user_id, r.start_time, r.end_time, r.status, r.created_at, s.slot_name
		 FROM parking_reservations r
		 JOIN parking_slots s ON s.id = r.slot_id
		 WHERE r.user_id = $1
		 ORDER BY r.start_time`, userID)
	if err != nil {
		return nil, reservationErr(err)
	}
	defer rows.Close()
	items := make([]model.ReservationDetail, 0)
	for rows.Next() {
		var d model.ReservationDetail
		if err := rows.Scan(&d.ID, &d.SlotID, &d.UserID, &d.StartTime, &d.EndTime,
			&d.Status, &d.CreatedAt, &d.SlotName); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// ListAll returns a page of every reservation with owner info, most
// recent start first, for the admin view.
func (r *ReservationRepo) ListAll(ctx context.Context, limit, offset int) ([]model.AdminReservationDetail, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM parking_reservations`).Scan(&total); err != nil {
		return nil, 0, reservationErr(err)
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.id, r.slot_id, r.user_id, r.start_time, r.end_time, r.status, r.created_at,
		        s.slot_name, u.full_name, u.email
		 FROM parking_reservations r
		 JOIN parking_slots s ON s.id = r.slot_id
		 JOIN users u ON u.id = r.user_id
		 ORDER BY r.start_time DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, reservationErr(err)
	}
	defer rows.Close()
	items := make([]model.AdminReservationDetail, 0)
	for rows.Next() {
		var a model.AdminReservationDetail
		if err := rows.Scan(&a.ID, &a.SlotID, &a.UserID, &a.StartTime, &a.EndTime,
			&a.Status, &a.CreatedAt, &a.SlotName, &a.UserFullName, &a.UserEmail); err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ActiveFutureCount counts the user's active reservations still ending
// in the future. This is the quota predicate: at most three may exist.
func (r *ReservationRepo) ActiveFutureCount(ctx context.Context, userID int64, now time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM parking_reservations
		 WHERE user_id = $1 AND status = $2 AND end_time > $3`,
		userID, model.ReservationActive, now).Scan(&n)
	if err != nil {
		return 0, reservationErr(err)
	}
	return n, nil
}

// HasOverlap reports whether an active reservation on the slot
// intersects [start, end). Two half-open intervals intersect exactly
// when each starts before the other ends.
func (r *ReservationRepo) HasOverlap(ctx context.Context, slotID int64, start, end time.Time) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM parking_reservations
		   WHERE slot_id = $1 AND status = $2 AND start_time < $4 AND end_time > $3
		 )`, slotID, model.ReservationActive, start, end).Scan(&exists)
	if err != nil {
		return false, reservationErr(err)
	}
	return exists, nil
}

// Cancel moves an active reservation to cancelled. When userID is
// non-zero the reservation must belong to that user. Terminal rows are
// never revisited: cancelling a completed or already-cancelled
// reservation yields ErrConflict.
func (r *ReservationRepo) Cancel(ctx context.Context, id, userID int64) (model.Reservation, error) {
	rv, err := scanReservation(r.DB.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM parking_reservations WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Reservation{}, reservationErr(err)
	}
	if userID != 0 && rv.UserID != userID {
		return model.Reservation{}, repository.ErrForbidden
	}
	if rv.Status != model.ReservationActive {
		return model.Reservation{}, repository.ErrConflict
	}
	rv, err = scanReservation(r.DB.QueryRowContext(ctx,
		`UPDATE parking_reservations SET status = $2
		 WHERE id = $1 AND status = $3
		 RETURNING `+reservationColumns,
		id, model.ReservationCancelled, model.ReservationActive))
	if errors.Is(err, sql.ErrNoRows) {
		// Lost a race with the reconciliation engine.
		return model.Reservation{}, repository.ErrConflict
	}
	return rv, err
}

// ListByStatus returns every reservation in the given status. The
// reconciliation engine reads active and cancelled rows this way each
// tick.
func (r *ReservationRepo) ListByStatus(ctx context.Context, status string) ([]model.Reservation, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM parking_reservations WHERE status = $1 ORDER BY id`,
		status)
	if err != nil {
		return nil, reservationErr(err)
	}
	defer rows.Close()
	items := make([]model.Reservation, 0)
	for rows.Next() {
		rv, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rv)
	}
	return items, rows.Err()
}

// SetStatus writes a reservation's status without further checks; the
// engine only calls it on rows it has just read.
func (r *ReservationRepo) SetStatus(ctx context.Context, id int64, status string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE parking_reservations SET status = $2 WHERE id = $1`, id, status)
	return reservationErr(err)
}
