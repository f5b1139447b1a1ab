package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"propledger/internal/core"
)

const propertyColumns = `id, owner_id, name, street, city, state, zip_code, country, property_type, status,
	bedrooms, bathrooms, square_feet, purchase_price_cents, purchase_date, current_value_cents,
	description, created_at, updated_at`

func scanProperty(row rowScanner) (core.Property, error) {
	var (
		p                core.Property
		purchaseDate     sql.NullString
		created, updated string
	)
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name,
		&p.Address.Street, &p.Address.City, &p.Address.State, &p.Address.ZipCode, &p.Address.Country,
		&p.Type, &p.Status, &p.Bedrooms, &p.Bathrooms, &p.SquareFeet,
		&p.PurchasePrice.Cents, &purchaseDate, &p.CurrentValue.Cents,
		&p.Description, &created, &updated)
	if err != nil {
		return core.Property{}, err
	}
	p.PurchaseDate = scanDate(purchaseDate)
	p.CreatedAt, p.UpdatedAt = parseTime(created), parseTime(updated)
	return p, nil
}

func (r *SQLiteRepository) CreateProperty(ctx context.Context, p core.Property) (core.Property, error) {
	p.ID = newID(p.ID)
	p.CreatedAt = r.stamp()
	p.UpdatedAt = p.CreatedAt

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO properties (`+propertyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Name,
		p.Address.Street, p.Address.City, p.Address.State, p.Address.ZipCode, p.Address.Country,
		p.Type, p.Status, p.Bedrooms, p.Bathrooms, p.SquareFeet,
		p.PurchasePrice.Cents, dateValue(p.PurchaseDate), p.CurrentValue.Cents,
		p.Description, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return core.Property{}, fmt.Errorf("insert property: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) GetProperty(ctx context.Context, ownerID, id string) (core.Property, error) {
	p, err := scanProperty(r.db.QueryRowContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Property{}, notFound("property", id)
	}
	if err != nil {
		return core.Property{}, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListProperties(ctx context.Context, ownerID string) ([]core.Property, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	props := make([]core.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		props = append(props, p)
	}
	return props, rows.Err()
}

func (r *SQLiteRepository) UpdateProperty(ctx context.Context, p core.Property) (core.Property, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE properties SET name = ?, street = ?, city = ?, state = ?, zip_code = ?, country = ?,
			property_type = ?, status = ?, bedrooms = ?, bathrooms = ?, square_feet = ?,
			purchase_price_cents = ?, purchase_date = ?, current_value_cents = ?, description = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		p.Name, p.Address.Street, p.Address.City, p.Address.State, p.Address.ZipCode, p.Address.Country,
		p.Type, p.Status, p.Bedrooms, p.Bathrooms, p.SquareFeet,
		p.PurchasePrice.Cents, dateValue(p.PurchaseDate), p.CurrentValue.Cents, p.Description, formatTime(r.stamp()),
		p.ID, p.OwnerID)
	if err != nil {
		return core.Property{}, fmt.Errorf("update property: %w", err)
	}
	if err := expectOne(res, "property", p.ID); err != nil {
		return core.Property{}, err
	}
	return r.GetProperty(ctx, p.OwnerID, p.ID)
}

func (r *SQLiteRepository) DeleteProperty(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM properties WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	return expectOne(res, "property", id)
}
