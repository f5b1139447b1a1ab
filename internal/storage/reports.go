package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"propledger/internal/core"
)

const reportColumns = `id, owner_id, kind, title, year, month, summary_json, generated_at`

func scanReport(row rowScanner) (core.Report, error) {
	var (
		rep              core.Report
		summary, created string
	)
	if err := row.Scan(&rep.ID, &rep.OwnerID, &rep.Kind, &rep.Title, &rep.Year, &rep.Month, &summary, &created); err != nil {
		return core.Report{}, err
	}
	if err := json.Unmarshal([]byte(summary), &rep.Summary); err != nil {
		return core.Report{}, fmt.Errorf("decode report summary: %w", err)
	}
	rep.GeneratedAt = parseTime(created)
	return rep, nil
}

func (r *SQLiteRepository) SaveReport(ctx context.Context, rep core.Report) (core.Report, error) {
	rep.ID = newID(rep.ID)
	if rep.GeneratedAt.IsZero() {
		rep.GeneratedAt = r.stamp()
	}
	summary, err := json.Marshal(rep.Summary)
	if err != nil {
		return core.Report{}, fmt.Errorf("encode report summary: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO reports (`+reportColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, kind, year, month) DO UPDATE SET
			title = excluded.title, summary_json = excluded.summary_json, generated_at = excluded.generated_at`,
		rep.ID, rep.OwnerID, rep.Kind, rep.Title, rep.Year, rep.Month, string(summary), formatTime(rep.GeneratedAt))
	if err != nil {
		return core.Report{}, fmt.Errorf("save report: %w", err)
	}

	saved, err := scanReport(r.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE owner_id = ? AND kind = ? AND year = ? AND month = ?`,
		rep.OwnerID, rep.Kind, rep.Year, rep.Month))
	if err != nil {
		return core.Report{}, fmt.Errorf("reload report: %w", err)
	}
	return saved, nil
}

func (r *SQLiteRepository) GetReport(ctx context.Context, ownerID, id string) (core.Report, error) {
	rep, err := scanReport(r.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Report{}, notFound("report", id)
	}
	if err != nil {
		return core.Report{}, fmt.Errorf("get report: %w", err)
	}
	return rep, nil
}

func (r *SQLiteRepository) ListReports(ctx context.Context, ownerID string) ([]core.Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE owner_id = ? ORDER BY year DESC, month DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := make([]core.Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}
