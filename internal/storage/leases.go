package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"propledger/internal/core"
)

const leaseSelect = `SELECT l.id, l.owner_id, l.property_id, p.name, l.tenant_id, tn.first_name || ' ' || tn.last_name,
	l.start_date, l.end_date, l.rent_cents, l.deposit_cents, l.due_day, l.due_frequency,
	l.status, l.terms, l.created_at, l.updated_at
FROM leases l
LEFT JOIN properties p ON p.id = l.property_id
LEFT JOIN tenants tn ON tn.id = l.tenant_id`

func scanLease(row rowScanner) (core.Lease, error) {
	var (
		l                                core.Lease
		propID, propName, tenID, tenName sql.NullString
		start, end                       sql.NullString
		created, updated                 string
	)
	err := row.Scan(&l.ID, &l.OwnerID, &propID, &propName, &tenID, &tenName,
		&start, &end, &l.RentAmount.Cents, &l.SecurityDeposit.Cents, &l.PaymentDue.Day, &l.PaymentDue.Frequency,
		&l.Status, &l.Terms, &created, &updated)
	if err != nil {
		return core.Lease{}, err
	}
	l.Property, l.Tenant = scanRef(propID, propName), scanRef(tenID, tenName)
	l.StartDate, l.EndDate = scanDate(start), scanDate(end)
	l.CreatedAt, l.UpdatedAt = parseTime(created), parseTime(updated)
	return l, nil
}

func (r *SQLiteRepository) CreateLease(ctx context.Context, l core.Lease) (core.Lease, error) {
	l.ID = newID(l.ID)
	now := formatTime(r.stamp())

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO leases (id, owner_id, property_id, tenant_id, start_date, end_date, rent_cents, deposit_cents,
			due_day, due_frequency, status, terms, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.OwnerID, refID(l.Property), refID(l.Tenant), dateValue(l.StartDate), dateValue(l.EndDate),
		l.RentAmount.Cents, l.SecurityDeposit.Cents, l.PaymentDue.Day, l.PaymentDue.Frequency,
		l.Status, l.Terms, now, now)
	if err != nil {
		return core.Lease{}, fmt.Errorf("insert lease: %w", err)
	}
	return r.GetLease(ctx, l.OwnerID, l.ID)
}

func (r *SQLiteRepository) GetLease(ctx context.Context, ownerID, id string) (core.Lease, error) {
	l, err := scanLease(r.db.QueryRowContext(ctx, leaseSelect+` WHERE l.id = ? AND l.owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Lease{}, notFound("lease", id)
	}
	if err != nil {
		return core.Lease{}, fmt.Errorf("get lease: %w", err)
	}
	return l, nil
}

func (r *SQLiteRepository) ListLeases(ctx context.Context, ownerID, propertyID string) ([]core.Lease, error) {
	query := leaseSelect + ` WHERE l.owner_id = ?`
	args := []any{ownerID}
	if propertyID != "" {
		query += ` AND l.property_id = ?`
		args = append(args, propertyID)
	}
	query += ` ORDER BY l.start_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leases: %w", err)
	}
	defer rows.Close()

	leases := make([]core.Lease, 0)
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lease: %w", err)
		}
		leases = append(leases, l)
	}
	return leases, rows.Err()
}

func (r *SQLiteRepository) UpdateLease(ctx context.Context, l core.Lease) (core.Lease, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE leases SET property_id = ?, tenant_id = ?, start_date = ?, end_date = ?, rent_cents = ?,
			deposit_cents = ?, due_day = ?, due_frequency = ?, status = ?, terms = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		refID(l.Property), refID(l.Tenant), dateValue(l.StartDate), dateValue(l.EndDate), l.RentAmount.Cents,
		l.SecurityDeposit.Cents, l.PaymentDue.Day, l.PaymentDue.Frequency, l.Status, l.Terms,
		formatTime(r.stamp()), l.ID, l.OwnerID)
	if err != nil {
		return core.Lease{}, fmt.Errorf("update lease: %w", err)
	}
	if err := expectOne(res, "lease", l.ID); err != nil {
		return core.Lease{}, err
	}
	return r.GetLease(ctx, l.OwnerID, l.ID)
}

func (r *SQLiteRepository) DeleteLease(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM leases WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete lease: %w", err)
	}
	return expectOne(res, "lease", id)
}
