package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"propledger/internal/core"
	"propledger/internal/ports"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements ports.Store on a single SQLite file.
type SQLiteRepository struct {
	db            *sql.DB
	now           func() time.Time
	schemaVersion uint
}

var _ ports.Store = (*SQLiteRepository)(nil)

// dsn enables foreign keys and a busy timeout on every connection.
func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now, schemaVersion: version}, nil
}

// SchemaVersion is the migration version the database was opened at.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schemaVersion
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) stamp() time.Time {
	return r.now().UTC()
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
}

// expectOne maps "no rows touched" to ErrNotFound.
func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// dateValue stores a valid date as YYYY-MM-DD and a missing one as NULL.
func dateValue(d core.Date) any {
	if !d.Valid() {
		return nil
	}
	return d.String()
}

func scanDate(ns sql.NullString) core.Date {
	if !ns.Valid {
		return core.Date{}
	}
	d, _ := core.ParseDate(ns.String)
	return d
}

func refID(ref *core.Ref) any {
	if id := ref.RefID(); id != "" {
		return id
	}
	return nil
}

func scanRef(id, name sql.NullString) *core.Ref {
	if !id.Valid || id.String == "" {
		return nil
	}
	return &core.Ref{ID: id.String, Name: strings.TrimSpace(name.String)}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
