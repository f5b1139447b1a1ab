package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"propledger/internal/core"
)

const userColumns = `id, name, email, password_hash, role, created_at`

func scanUser(row rowScanner) (core.User, error) {
	var u core.User
	var created string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &created); err != nil {
		return core.User{}, err
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.ID = newID(u.ID)
	u.Email = core.NormalizeEmail(u.Email)
	u.CreatedAt = r.stamp()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, formatTime(u.CreatedAt))
	if isUniqueViolation(err) {
		return core.User{}, fmt.Errorf("email %s: %w", u.Email, core.ErrConflict)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, notFound("user", id)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	email = core.NormalizeEmail(email)
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, notFound("user", email)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	u.Email = core.NormalizeEmail(u.Email)
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, password_hash = ?, role = ? WHERE id = ?`,
		u.Name, u.Email, u.PasswordHash, u.Role, u.ID)
	if isUniqueViolation(err) {
		return core.User{}, fmt.Errorf("email %s: %w", u.Email, core.ErrConflict)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	if err := expectOne(res, "user", u.ID); err != nil {
		return core.User{}, err
	}
	return r.GetUser(ctx, u.ID)
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]core.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ownedTables lists every table scoped by owner_id, children first.
var ownedTables = []string{"maintenance_requests", "leases", "mortgages", "transactions", "tenants", "properties", "reports"}

// DeleteUser removes the account together with every record it owns.
func (r *SQLiteRepository) DeleteUser(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := expectOne(res, "user", id); err != nil {
		return err
	}
	for _, table := range ownedTables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE owner_id = ?`, id); err != nil {
			return fmt.Errorf("delete user %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user: %w", err)
	}
	return nil
}
