package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/smart-parking/internal/model"
	"github.com/iliyamo/smart-parking/internal/repository"
)

// UserRepo implements repository.UserRepository over the users, roles
// and user_roles tables.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, full_name, email, password_hash, license_plate, is_active, created_at, updated_at"

func scanUser(row interface{ Scan(...interface{}) error }) (model.User, error) {
	var u model.User
	var plate sql.NullString
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &plate, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if plate.Valid {
		p := plate.String
		u.LicensePlate = &p
	}
	return u, err
}

// Create inserts a user and assigns the default DRIVER role. Unique
// violations are mapped to ErrEmailExists / ErrPlateExists by
// constraint name.
func (r *UserRepo) Create(ctx context.Context, fullName, email, passwordHash string, licensePlate *string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var plate sql.NullString
	if licensePlate != nil && *licensePlate != "" {
		plate = sql.NullString{String: *licensePlate, Valid: true}
	}
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (full_name, email, password_hash, license_plate)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		fullName, email, passwordHash, plate)
	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(pqConstraint(err), "license_plate") {
				return model.User{}, repository.ErrPlateExists
			}
			return model.User{}, repository.ErrEmailExists
		}
		return model.User{}, err
	}
	// New accounts start as drivers; admins are promoted explicitly.
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_id)
		 SELECT $1, id FROM roles WHERE role_name = $2
		 ON CONFLICT DO NOTHING`,
		u.ID, model.RoleDriver)
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, repository.ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, repository.ErrNotFound
	}
	return u, err
}

// FindByLicensePlate fetches a user by exact plate match.
func (r *UserRepo) FindByLicensePlate(ctx context.Context, plate string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE license_plate = $1 LIMIT 1`, plate))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, repository.ErrNotFound
	}
	return u, err
}

// List returns a page of users ordered by creation time (newest first)
// together with the total row count.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Update changes the mutable profile fields and returns the fresh row.
func (r *UserRepo) Update(ctx context.Context, id int64, fullName string, licensePlate *string) (model.User, error) {
	var plate sql.NullString
	if licensePlate != nil && *licensePlate != "" {
		plate = sql.NullString{String: *licensePlate, Valid: true}
	}
	row := r.DB.QueryRowContext(ctx,
		`UPDATE users SET full_name = $2, license_plate = $3, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, fullName, plate)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, repository.ErrNotFound
	}
	if isUniqueViolation(err) {
		return model.User{}, repository.ErrPlateExists
	}
	return u, err
}

// Delete removes a user. Role assignments go with it.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RoleForUser returns the first assigned role name; accounts without an
// assignment are drivers.
func (r *UserRepo) RoleForUser(ctx context.Context, userID int64) (string, error) {
	var name string
	err := r.DB.QueryRowContext(ctx,
		`SELECT r.role_name FROM user_roles ur
		 JOIN roles r ON r.id = ur.role_id
		 WHERE ur.user_id = $1
		 ORDER BY ur.role_id
		 LIMIT 1`, userID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RoleDriver, nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

// ListRoles returns every row of the roles table.
func (r *UserRepo) ListRoles(ctx context.Context) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, role_name FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	roles := make([]model.Role, 0)
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// AssignRole links a user to a role, replacing nothing: a user may hold
// several assignments and the lowest role_id wins at login.
func (r *UserRepo) AssignRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, roleID)
	return err
}
