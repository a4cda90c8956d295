// Package repository defines the data-access contracts for the service
// together with the sentinel errors shared by their implementations.
// These sentinel values allow handlers to distinguish between failure
// scenarios without inspecting driver-specific error types: for example
// ErrForbidden indicates that the current user is not authorized to act
// on a resource owned by someone else, while ErrConflict signals that an
// operation cannot proceed because of dependent records (e.g. deleting a
// slot with an open parking session).
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a slot that still has
// an open parking session. Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by user creation when the email address is
// already registered.
var ErrEmailExists = errors.New("email already exists")

// ErrPlateExists is returned by user creation when the license plate is
// already registered to another account.
var ErrPlateExists = errors.New("license plate already exists")

// ErrSlotNameExists is returned by slot creation when the slot name is
// already taken.
var ErrSlotNameExists = errors.New("slot name already exists")

// ErrNoActiveSession is returned by check-out when the user has no open
// parking session. This is a domain error, not a server fault.
var ErrNoActiveSession = errors.New("no active parking session")

// ErrReservationsUnavailable is returned when the parking_reservations
// table has not been provisioned yet (Postgres undefined_table). The
// API degrades gracefully: reads answer with empty lists and writes
// with 501 so the UI keeps working until the migration is applied.
var ErrReservationsUnavailable = errors.New("reservations table not provisioned")
