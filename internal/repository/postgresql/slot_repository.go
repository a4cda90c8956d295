package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/smart-parking/internal/model"
	"github.com/iliyamo/smart-parking/internal/repository"
)

// SlotRepo implements repository.SlotRepository over the parking_slots
// table. All timestamps are stored in UTC.
type SlotRepo struct{ DB *sql.DB }

func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{DB: db} }

const slotColumns = "id, slot_name, status, created_at, updated_at"

func scanSlot(row interface{ Scan(...interface{}) error }) (model.ParkingSlot, error) {
	var s model.ParkingSlot
	err := row.Scan(&s.ID, &s.SlotName, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Create inserts a slot with the given name and status. Duplicate names
// map to ErrSlotNameExists.
func (r *SlotRepo) Create(ctx context.Context, slotName, status string) (model.ParkingSlot, error) {
	s, err := scanSlot(r.DB.QueryRowContext(ctx,
		`INSERT INTO parking_slots (slot_name, status) VALUES ($1, $2) RETURNING `+slotColumns,
		slotName, status))
	if isUniqueViolation(err) {
		return model.ParkingSlot{}, repository.ErrSlotNameExists
	}
	return s, err
}

func (r *SlotRepo) GetByID(ctx context.Context, id int64) (model.ParkingSlot, error) {
	s, err := scanSlot(r.DB.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM parking_slots WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ParkingSlot{}, repository.ErrNotFound
	}
	return s, err
}

// List returns a page of slots, optionally filtered by status, newest
// first, together with the total count for the filter.
func (r *SlotRepo) List(ctx context.Context, status string, limit, offset int) ([]model.ParkingSlot, int, error) {
	var (
		total int
		rows  *sql.Rows
		err   error
	)
	if status != "" {
		if err = r.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM parking_slots WHERE status = $1`, status).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.DB.QueryContext(ctx,
			`SELECT `+slotColumns+` FROM parking_slots WHERE status = $1
			 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	} else {
		if err = r.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM parking_slots`).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.DB.QueryContext(ctx,
			`SELECT `+slotColumns+` FROM parking_slots
			 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	slots := make([]model.ParkingSlot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, 0, err
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return slots, total, nil
}

// ListAll returns every slot. The reconciliation engine scans the full
// table each tick; there is no incremental indexing at this scale.
func (r *SlotRepo) ListAll(ctx context.Context) ([]model.ParkingSlot, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM parking_slots ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]model.ParkingSlot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// ListAvailable returns AVAILABLE slots ordered by name.
func (r *SlotRepo) ListAvailable(ctx context.Context) ([]model.ParkingSlot, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM parking_slots WHERE status = $1 ORDER BY slot_name`,
		model.SlotAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]model.ParkingSlot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// SetStatus updates a slot's status and stamps updated_at.
func (r *SlotRepo) SetStatus(ctx context.Context, id int64, status string, now time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE parking_slots SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, now)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a slot unless a parking session is still open on it,
// in which case ErrConflict is returned.
func (r *SlotRepo) Delete(ctx context.Context, id int64) error {
	var open bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM parking_history WHERE slot_id = $1 AND check_out_time IS NULL)`,
		id).Scan(&open)
	if err != nil {
		return err
	}
	if open {
		return repository.ErrConflict
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM parking_slots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
