package backend

import (
	"errors"
	"fmt"
	"strings"

	"propledger/internal/config"
	"propledger/internal/ports"
)

// Type names a store implementation selectable through DATA_BACKEND.
type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

// Types lists the accepted DATA_BACKEND values.
var Types = []Type{SQLite, Memory}

func (t Type) String() string {
	return string(t)
}

// ParseType matches s against Types, ignoring case and surrounding space.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	for _, t := range Types {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	names := make([]string, len(Types))
	for i, t := range Types {
		names[i] = t.String()
	}
	return "", fmt.Errorf("unknown backend %q (want one of %s)", s, strings.Join(names, ", "))
}

// Config is the part of the application config the factory reads.
type Config struct {
	Type         Type
	SQLiteDBPath string
}

// FromAppConfig extracts the backend settings from the application config.
func FromAppConfig(c *config.Config) (Config, error) {
	if c == nil {
		return Config{}, errors.New("app config is nil")
	}
	t, err := ParseType(c.DataBackend)
	if err != nil {
		return Config{}, err
	}
	return Config{Type: t, SQLiteDBPath: strings.TrimSpace(c.SQLiteDBPath)}, nil
}

func (c Config) Validate() error {
	if _, err := ParseType(string(c.Type)); err != nil {
		return err
	}
	if c.Type == SQLite && c.SQLiteDBPath == "" {
		return errors.New("sqlite backend needs SQLITE_DB_PATH")
	}
	return nil
}

// Handle is an opened store together with the function releasing it.
type Handle struct {
	Store ports.Store
	Close func() error
}
