package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"propledger/internal/core"
	"propledger/internal/services"
)

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		Body(map[string]int{"n": 1}).
		Write(rr)

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rr.Header().Get("X-Test") != "1" {
		t.Errorf("custom header missing")
	}
	if body := rr.Body.String(); body != "{\"n\":1}\n" {
		t.Errorf("body = %q", body)
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		resource string
		want     int
		message  string
	}{
		{"validation", core.Invalid(core.ErrInvalidAmount), "", http.StatusBadRequest, "Invalid amount"},
		{"service not found", fmt.Errorf("property %w", core.ErrNotFound), "Transaction", http.StatusNotFound, "Property not found"},
		{"store not found", fmt.Errorf("lease l1: %w", core.ErrNotFound), "Lease", http.StatusNotFound, "Lease not found"},
		{"conflict", fmt.Errorf("user already exists: %w", core.ErrConflict), "User", http.StatusConflict, "User already exists"},
		{"unauthorized", services.ErrInvalidCredentials, "", http.StatusUnauthorized, "Not authorized"},
		{"forbidden", fmt.Errorf("not authorized as an admin: %w", core.ErrForbidden), "", http.StatusForbidden, "Not authorized as an admin"},
		{"internal", errors.New("disk on fire"), "", http.StatusInternalServerError, "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
			writeServiceError(rr, req, tt.err, tt.resource)

			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			var body messageBody
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Message != tt.message {
				t.Errorf("message = %q, want %q", body.Message, tt.message)
			}
		})
	}
}
