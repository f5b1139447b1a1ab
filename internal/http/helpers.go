package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"propledger/internal/auth"
	"propledger/internal/core"
)

// maxBodyBytes caps request bodies, including posted transaction lists.
const maxBodyBytes = 4 << 20

// readBody returns the raw request body. An empty body reads as "{}".
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, core.Invalid(fmt.Errorf("read request body: %w", err))
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return []byte("{}"), nil
	}
	return body, nil
}

// decodeJSON decodes the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	return unmarshal(body, v)
}

func unmarshal(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return core.Invalid(fmt.Errorf("invalid JSON body: %w", err))
	}
	return nil
}

// patch returns an apply func that decodes body on top of the stored record.
func patch[T any](body []byte) func(*T) error {
	return func(v *T) error {
		return unmarshal(body, v)
	}
}

// ownerID is the authenticated caller's user id. Every resource is scoped
// by it.
func ownerID(r *http.Request) string {
	p, _ := auth.FromContext(r.Context())
	return p.UserID
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// normalizeType lowercases a recognised transaction type so "Income"
// validates; anything else is left for validation to reject.
func normalizeType(t core.TransactionType) core.TransactionType {
	if parsed, err := core.ParseTransactionType(string(t)); err == nil {
		return parsed
	}
	return t
}

// list keeps empty results encoding as [] rather than null.
func list[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
