package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"propledger/internal/core"
	"propledger/internal/ports"
)

const transactionSelect = `SELECT t.id, t.owner_id, t.property_id, p.name, t.tenant_id, tn.first_name || ' ' || tn.last_name,
	t.date, t.amount_cents, t.type, t.category, t.description, t.payment_method, t.notes,
	t.created_at, t.updated_at
FROM transactions t
LEFT JOIN properties p ON p.id = t.property_id
LEFT JOIN tenants tn ON tn.id = t.tenant_id`

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                                core.Transaction
		propID, propName, tenID, tenName sql.NullString
		date                             sql.NullString
		typ                              string
		created, updated                 string
	)
	err := row.Scan(&t.ID, &t.OwnerID, &propID, &propName, &tenID, &tenName,
		&date, &t.Amount.Cents, &typ, &t.Category, &t.Description, &t.PaymentMethod, &t.Notes,
		&created, &updated)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	t.Property, t.Tenant = scanRef(propID, propName), scanRef(tenID, tenName)
	t.Date = scanDate(date)
	t.CreatedAt, t.UpdatedAt = parseTime(created), parseTime(updated)
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = newID(t.ID)
	now := formatTime(r.stamp())

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, owner_id, property_id, tenant_id, date, amount_cents, type, category,
			description, payment_method, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, refID(t.Property), refID(t.Tenant), dateValue(t.Date), t.Amount.Cents, string(t.Type),
		t.Category, t.Description, t.PaymentMethod, t.Notes, now, now)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return r.GetTransaction(ctx, t.OwnerID, t.ID)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, transactionSelect+` WHERE t.id = ? AND t.owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, notFound("transaction", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string, q ports.TransactionQuery) ([]core.Transaction, error) {
	query := transactionSelect + ` WHERE t.owner_id = ?`
	args := []any{ownerID}
	if q.PropertyID != "" {
		query += ` AND t.property_id = ?`
		args = append(args, q.PropertyID)
	}
	if q.Category != "" {
		query += ` AND t.category = ?`
		args = append(args, q.Category)
	}
	query += ` ORDER BY t.date DESC, t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET property_id = ?, tenant_id = ?, date = ?, amount_cents = ?, type = ?, category = ?,
			description = ?, payment_method = ?, notes = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		refID(t.Property), refID(t.Tenant), dateValue(t.Date), t.Amount.Cents, string(t.Type), t.Category,
		t.Description, t.PaymentMethod, t.Notes, formatTime(r.stamp()), t.ID, t.OwnerID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := expectOne(res, "transaction", t.ID); err != nil {
		return core.Transaction{}, err
	}
	return r.GetTransaction(ctx, t.OwnerID, t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectOne(res, "transaction", id)
}
