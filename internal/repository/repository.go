package repository

import (
	"context"
	"time"

	"github.com/iliyamo/smart-parking/internal/model"
)

// The interfaces below are the seams between HTTP handlers, the
// reconciliation engine and the Postgres implementations. They are
// constructed once at process start and passed explicitly to their
// consumers, which keeps the stores swappable with in-memory fakes in
// tests.

// UserRepository persists users, their roles and role assignments.
type UserRepository interface {
	Create(ctx context.Context, fullName, email, passwordHash string, licensePlate *string) (model.User, error)
	GetByID(ctx context.Context, id int64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	FindByLicensePlate(ctx context.Context, plate string) (model.User, error)
	List(ctx context.Context, limit, offset int) ([]model.User, int, error)
	Update(ctx context.Context, id int64, fullName string, licensePlate *string) (model.User, error)
	Delete(ctx context.Context, id int64) error

	// RoleForUser returns the first role assigned to the user, or
	// DRIVER when none is assigned.
	RoleForUser(ctx context.Context, userID int64) (string, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
}

// TokenRepository persists and validates hashed refresh tokens.
type TokenRepository interface {
	StoreRefresh(ctx context.Context, userID int64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (int64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
}

// SlotRepository persists parking slots. SetStatus stamps updated_at
// with the supplied instant so the reconciliation engine and the
// booking handlers agree on who wrote last.
type SlotRepository interface {
	Create(ctx context.Context, slotName, status string) (model.ParkingSlot, error)
	GetByID(ctx context.Context, id int64) (model.ParkingSlot, error)
	List(ctx context.Context, status string, limit, offset int) ([]model.ParkingSlot, int, error)
	ListAll(ctx context.Context) ([]model.ParkingSlot, error)
	ListAvailable(ctx context.Context) ([]model.ParkingSlot, error)
	SetStatus(ctx context.Context, id int64, status string, now time.Time) error
	Delete(ctx context.Context, id int64) error
}

// HistoryRepository persists check-in/check-out sessions.
type HistoryRepository interface {
	// OpenSessionByUser returns the user's open session (check_out_time
	// IS NULL) with its slot name, or ErrNoActiveSession.
	OpenSessionByUser(ctx context.Context, userID int64) (model.HistorySession, error)
	CheckIn(ctx context.Context, slotID, userID int64, now time.Time) (model.ParkingHistory, error)
	// CloseSession stamps check_out_time on the given open row and
	// returns the updated record.
	CloseSession(ctx context.Context, id int64, now time.Time) (model.ParkingHistory, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.HistorySession, int, error)
	ListAll(ctx context.Context, limit, offset int) ([]model.AdminHistorySession, int, error)
}

// ReservationRepository persists slot reservations. Every method maps
// Postgres undefined_table on parking_reservations to
// ErrReservationsUnavailable so callers can degrade gracefully before
// the migration is applied.
type ReservationRepository interface {
	Create(ctx context.Context, slotID, userID int64, start, end time.Time) (model.ReservationDetail, error)
	ListByUser(ctx context.Context, userID int64) ([]model.ReservationDetail, error)
	ListAll(ctx context.Context, limit, offset int) ([]model.AdminReservationDetail, int, error)
	// ActiveFutureCount counts the user's reservations with
	// status=active and end_time > now (the quota predicate).
	ActiveFutureCount(ctx context.Context, userID int64, now time.Time) (int, error)
	// HasOverlap reports whether an active reservation on the slot
	// intersects the half-open window [start, end).
	HasOverlap(ctx context.Context, slotID int64, start, end time.Time) (bool, error)
	// Cancel sets status=cancelled. When userID is non-zero the row
	// must belong to that user; zero skips the ownership check (admin).
	Cancel(ctx context.Context, id, userID int64) (model.Reservation, error)

	// Engine-facing reads and writes.
	ListByStatus(ctx context.Context, status string) ([]model.Reservation, error)
	SetStatus(ctx context.Context, id int64, status string) error
}
