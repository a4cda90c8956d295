package model

import "time"

// User represents an application user record as stored in the `users`
// table.  The password hash never leaves the repository layer; handlers
// build their own response types without it.
//
// Fields:
//  ID           – primary key identifier of the user.
//  FullName     – display name supplied at registration.
//  Email        – unique email address (stored lower‑cased).
//  PasswordHash – bcrypt hashed password.
//  LicensePlate – optional unique vehicle plate.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	LicensePlate *string   `json:"license_plate,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role represents a row in the `roles` table.  Users reference roles via
// the user_roles join table; the first assigned role wins at login and
// accounts without one default to DRIVER.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"role_name"`
}

// Known role names carried in the JWT role claim.
const (
	RoleDriver = "DRIVER"
	RoleAdmin  = "ADMIN"
)

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user; only the SHA‑256 hash of the raw
// token is stored.
type RefreshToken struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
