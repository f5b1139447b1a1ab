package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"propledger/internal/core"
	"propledger/internal/ports"
)

const maintenanceSelect = `SELECT m.id, m.owner_id, m.property_id, p.name, m.tenant_id, tn.first_name || ' ' || tn.last_name,
	m.title, m.description, m.priority, m.status, m.category, m.cost_cents,
	m.scheduled_date, m.completed_date, m.assigned_to, m.created_at, m.updated_at
FROM maintenance_requests m
LEFT JOIN properties p ON p.id = m.property_id
LEFT JOIN tenants tn ON tn.id = m.tenant_id`

func scanMaintenance(row rowScanner) (core.MaintenanceRequest, error) {
	var (
		m                                core.MaintenanceRequest
		propID, propName, tenID, tenName sql.NullString
		scheduled, completed             sql.NullString
		created, updated                 string
	)
	err := row.Scan(&m.ID, &m.OwnerID, &propID, &propName, &tenID, &tenName,
		&m.Title, &m.Description, &m.Priority, &m.Status, &m.Category, &m.Cost.Cents,
		&scheduled, &completed, &m.AssignedTo, &created, &updated)
	if err != nil {
		return core.MaintenanceRequest{}, err
	}
	m.Property, m.Tenant = scanRef(propID, propName), scanRef(tenID, tenName)
	m.ScheduledDate, m.CompletedDate = scanDate(scheduled), scanDate(completed)
	m.CreatedAt, m.UpdatedAt = parseTime(created), parseTime(updated)
	return m, nil
}

func (r *SQLiteRepository) CreateMaintenance(ctx context.Context, m core.MaintenanceRequest) (core.MaintenanceRequest, error) {
	m.ID = newID(m.ID)
	now := formatTime(r.stamp())

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO maintenance_requests (id, owner_id, property_id, tenant_id, title, description, priority, status,
			category, cost_cents, scheduled_date, completed_date, assigned_to, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.OwnerID, refID(m.Property), refID(m.Tenant), m.Title, m.Description, m.Priority, m.Status,
		m.Category, m.Cost.Cents, dateValue(m.ScheduledDate), dateValue(m.CompletedDate), m.AssignedTo, now, now)
	if err != nil {
		return core.MaintenanceRequest{}, fmt.Errorf("insert maintenance request: %w", err)
	}
	return r.GetMaintenance(ctx, m.OwnerID, m.ID)
}

func (r *SQLiteRepository) GetMaintenance(ctx context.Context, ownerID, id string) (core.MaintenanceRequest, error) {
	m, err := scanMaintenance(r.db.QueryRowContext(ctx, maintenanceSelect+` WHERE m.id = ? AND m.owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.MaintenanceRequest{}, notFound("maintenance request", id)
	}
	if err != nil {
		return core.MaintenanceRequest{}, fmt.Errorf("get maintenance request: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) ListMaintenance(ctx context.Context, ownerID string, q ports.MaintenanceQuery) ([]core.MaintenanceRequest, error) {
	query := maintenanceSelect + ` WHERE m.owner_id = ?`
	args := []any{ownerID}
	if q.PropertyID != "" {
		query += ` AND m.property_id = ?`
		args = append(args, q.PropertyID)
	}
	if q.Status != "" {
		query += ` AND m.status = ?`
		args = append(args, q.Status)
	}
	query += ` ORDER BY m.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list maintenance requests: %w", err)
	}
	defer rows.Close()

	reqs := make([]core.MaintenanceRequest, 0)
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan maintenance request: %w", err)
		}
		reqs = append(reqs, m)
	}
	return reqs, rows.Err()
}

func (r *SQLiteRepository) UpdateMaintenance(ctx context.Context, m core.MaintenanceRequest) (core.MaintenanceRequest, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE maintenance_requests SET property_id = ?, tenant_id = ?, title = ?, description = ?, priority = ?,
			status = ?, category = ?, cost_cents = ?, scheduled_date = ?, completed_date = ?, assigned_to = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		refID(m.Property), refID(m.Tenant), m.Title, m.Description, m.Priority,
		m.Status, m.Category, m.Cost.Cents, dateValue(m.ScheduledDate), dateValue(m.CompletedDate), m.AssignedTo,
		formatTime(r.stamp()), m.ID, m.OwnerID)
	if err != nil {
		return core.MaintenanceRequest{}, fmt.Errorf("update maintenance request: %w", err)
	}
	if err := expectOne(res, "maintenance request", m.ID); err != nil {
		return core.MaintenanceRequest{}, err
	}
	return r.GetMaintenance(ctx, m.OwnerID, m.ID)
}

func (r *SQLiteRepository) DeleteMaintenance(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM maintenance_requests WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete maintenance request: %w", err)
	}
	return expectOne(res, "maintenance request", id)
}
