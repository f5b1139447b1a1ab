package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"propledger/internal/core"
)

const mortgageSelect = `SELECT m.id, m.owner_id, m.property_id, p.name, m.lender, m.loan_number,
	m.original_amount_cents, m.current_balance_cents, m.interest_rate, m.term_months,
	m.start_date, m.maturity_date, m.monthly_payment_cents, m.payment_day, m.escrow,
	m.escrow_amount_cents, m.documents_json, m.notes, m.created_at, m.updated_at
FROM mortgages m
LEFT JOIN properties p ON p.id = m.property_id`

func scanMortgage(row rowScanner) (core.Mortgage, error) {
	var (
		m                core.Mortgage
		propID, propName sql.NullString
		start, maturity  sql.NullString
		docs             string
		created, updated string
	)
	err := row.Scan(&m.ID, &m.OwnerID, &propID, &propName, &m.Lender, &m.LoanNumber,
		&m.OriginalAmount.Cents, &m.CurrentBalance.Cents, &m.InterestRate, &m.Term,
		&start, &maturity, &m.MonthlyPayment.Cents, &m.PaymentDay, &m.Escrow,
		&m.EscrowAmount.Cents, &docs, &m.Notes, &created, &updated)
	if err != nil {
		return core.Mortgage{}, err
	}
	if err := json.Unmarshal([]byte(docs), &m.Documents); err != nil {
		return core.Mortgage{}, fmt.Errorf("decode mortgage documents: %w", err)
	}
	if m.Documents == nil {
		m.Documents = []core.MortgageDocument{}
	}
	m.Property = scanRef(propID, propName)
	m.StartDate, m.MaturityDate = scanDate(start), scanDate(maturity)
	m.CreatedAt, m.UpdatedAt = parseTime(created), parseTime(updated)
	return m, nil
}

func encodeDocuments(docs []core.MortgageDocument) (string, error) {
	if docs == nil {
		docs = []core.MortgageDocument{}
	}
	b, err := json.Marshal(docs)
	if err != nil {
		return "", fmt.Errorf("encode mortgage documents: %w", err)
	}
	return string(b), nil
}

func (r *SQLiteRepository) CreateMortgage(ctx context.Context, m core.Mortgage) (core.Mortgage, error) {
	m.ID = newID(m.ID)
	now := formatTime(r.stamp())
	docs, err := encodeDocuments(m.Documents)
	if err != nil {
		return core.Mortgage{}, err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO mortgages (id, owner_id, property_id, lender, loan_number, original_amount_cents,
			current_balance_cents, interest_rate, term_months, start_date, maturity_date, monthly_payment_cents,
			payment_day, escrow, escrow_amount_cents, documents_json, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.OwnerID, refID(m.Property), m.Lender, m.LoanNumber, m.OriginalAmount.Cents,
		m.CurrentBalance.Cents, m.InterestRate, m.Term, dateValue(m.StartDate), dateValue(m.MaturityDate),
		m.MonthlyPayment.Cents, m.PaymentDay, m.Escrow, m.EscrowAmount.Cents, docs, m.Notes, now, now)
	if err != nil {
		return core.Mortgage{}, fmt.Errorf("insert mortgage: %w", err)
	}
	return r.GetMortgage(ctx, m.OwnerID, m.ID)
}

func (r *SQLiteRepository) GetMortgage(ctx context.Context, ownerID, id string) (core.Mortgage, error) {
	m, err := scanMortgage(r.db.QueryRowContext(ctx, mortgageSelect+` WHERE m.id = ? AND m.owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Mortgage{}, notFound("mortgage", id)
	}
	if err != nil {
		return core.Mortgage{}, fmt.Errorf("get mortgage: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) ListMortgages(ctx context.Context, ownerID, propertyID string) ([]core.Mortgage, error) {
	query := mortgageSelect + ` WHERE m.owner_id = ?`
	args := []any{ownerID}
	if propertyID != "" {
		query += ` AND m.property_id = ?`
		args = append(args, propertyID)
	}
	query += ` ORDER BY m.start_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mortgages: %w", err)
	}
	defer rows.Close()

	mortgages := make([]core.Mortgage, 0)
	for rows.Next() {
		m, err := scanMortgage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mortgage: %w", err)
		}
		mortgages = append(mortgages, m)
	}
	return mortgages, rows.Err()
}

func (r *SQLiteRepository) UpdateMortgage(ctx context.Context, m core.Mortgage) (core.Mortgage, error) {
	docs, err := encodeDocuments(m.Documents)
	if err != nil {
		return core.Mortgage{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE mortgages SET property_id = ?, lender = ?, loan_number = ?, original_amount_cents = ?,
			current_balance_cents = ?, interest_rate = ?, term_months = ?, start_date = ?, maturity_date = ?,
			monthly_payment_cents = ?, payment_day = ?, escrow = ?, escrow_amount_cents = ?, documents_json = ?,
			notes = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		refID(m.Property), m.Lender, m.LoanNumber, m.OriginalAmount.Cents,
		m.CurrentBalance.Cents, m.InterestRate, m.Term, dateValue(m.StartDate), dateValue(m.MaturityDate),
		m.MonthlyPayment.Cents, m.PaymentDay, m.Escrow, m.EscrowAmount.Cents, docs,
		m.Notes, formatTime(r.stamp()), m.ID, m.OwnerID)
	if err != nil {
		return core.Mortgage{}, fmt.Errorf("update mortgage: %w", err)
	}
	if err := expectOne(res, "mortgage", m.ID); err != nil {
		return core.Mortgage{}, err
	}
	return r.GetMortgage(ctx, m.OwnerID, m.ID)
}

func (r *SQLiteRepository) DeleteMortgage(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mortgages WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete mortgage: %w", err)
	}
	return expectOne(res, "mortgage", id)
}
