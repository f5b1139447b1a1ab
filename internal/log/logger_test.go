package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf}).WithComponent(ComponentReport)

	logger.Info("generated", FieldOwnerID, "o1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry[FieldComponent] != ComponentReport || entry[FieldOwnerID] != "o1" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestSlogCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Format: "json", Output: &buf}).WithComponent(ComponentAMQP).Slog().Info("connected")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry[FieldComponent] != ComponentAMQP {
		t.Fatalf("component = %v", entry[FieldComponent])
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf})
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug output should be filtered, got %q", buf.String())
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	logger := New(DefaultConfig()).WithComponent(ComponentHTTP)
	var got *Logger
	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("logger not propagated: %+v", got)
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatalf("fallback logger should be tagged unknown")
	}
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().WithOwner("o1").WithPeriod(2025, 3).WithError(nil).WithError(errors.New("boom"))
	if f[FieldOwnerID] != "o1" || f[FieldYear] != 2025 || f[FieldError] != "boom" {
		t.Fatalf("fields = %v", f)
	}
	if len(f.ToSlice()) != len(f)*2 {
		t.Fatalf("slice length mismatch")
	}
}
