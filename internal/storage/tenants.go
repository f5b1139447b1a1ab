package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"propledger/internal/core"
)

const tenantSelect = `SELECT t.id, t.owner_id, t.first_name, t.last_name, t.email, t.phone, t.status,
	t.property_id, p.name, t.emergency_name, t.emergency_phone, t.emergency_relationship,
	t.notes, t.created_at, t.updated_at
FROM tenants t LEFT JOIN properties p ON p.id = t.property_id`

func scanTenant(row rowScanner) (core.Tenant, error) {
	var (
		t                core.Tenant
		propID, propName sql.NullString
		created, updated string
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.FirstName, &t.LastName, &t.Email, &t.Phone, &t.Status,
		&propID, &propName, &t.EmergencyContact.Name, &t.EmergencyContact.Phone, &t.EmergencyContact.Relationship,
		&t.Notes, &created, &updated)
	if err != nil {
		return core.Tenant{}, err
	}
	t.Property = scanRef(propID, propName)
	t.CreatedAt, t.UpdatedAt = parseTime(created), parseTime(updated)
	return t, nil
}

func (r *SQLiteRepository) CreateTenant(ctx context.Context, t core.Tenant) (core.Tenant, error) {
	t.ID = newID(t.ID)
	now := formatTime(r.stamp())

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (id, owner_id, first_name, last_name, email, phone, status, property_id,
			emergency_name, emergency_phone, emergency_relationship, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.FirstName, t.LastName, t.Email, t.Phone, t.Status, refID(t.Property),
		t.EmergencyContact.Name, t.EmergencyContact.Phone, t.EmergencyContact.Relationship, t.Notes, now, now)
	if err != nil {
		return core.Tenant{}, fmt.Errorf("insert tenant: %w", err)
	}
	return r.GetTenant(ctx, t.OwnerID, t.ID)
}

func (r *SQLiteRepository) GetTenant(ctx context.Context, ownerID, id string) (core.Tenant, error) {
	t, err := scanTenant(r.db.QueryRowContext(ctx, tenantSelect+` WHERE t.id = ? AND t.owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Tenant{}, notFound("tenant", id)
	}
	if err != nil {
		return core.Tenant{}, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTenants(ctx context.Context, ownerID string) ([]core.Tenant, error) {
	rows, err := r.db.QueryContext(ctx, tenantSelect+` WHERE t.owner_id = ? ORDER BY t.last_name, t.first_name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	tenants := make([]core.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (r *SQLiteRepository) UpdateTenant(ctx context.Context, t core.Tenant) (core.Tenant, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET first_name = ?, last_name = ?, email = ?, phone = ?, status = ?, property_id = ?,
			emergency_name = ?, emergency_phone = ?, emergency_relationship = ?, notes = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		t.FirstName, t.LastName, t.Email, t.Phone, t.Status, refID(t.Property),
		t.EmergencyContact.Name, t.EmergencyContact.Phone, t.EmergencyContact.Relationship, t.Notes,
		formatTime(r.stamp()), t.ID, t.OwnerID)
	if err != nil {
		return core.Tenant{}, fmt.Errorf("update tenant: %w", err)
	}
	if err := expectOne(res, "tenant", t.ID); err != nil {
		return core.Tenant{}, err
	}
	return r.GetTenant(ctx, t.OwnerID, t.ID)
}

func (r *SQLiteRepository) DeleteTenant(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	return expectOne(res, "tenant", id)
}
