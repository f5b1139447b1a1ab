// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// so every handler writes status, headers and body the same way.

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"propledger/internal/core"
	applog "propledger/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Message sets a {"message": ...} body.
func (b *JSONResponseBuilder) Message(msg string) *JSONResponseBuilder {
	return b.Body(messageBody{Message: msg})
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	if b.body != nil {
		_ = json.NewEncoder(w).Encode(b.body)
	}
}

type messageBody struct {
	Message string `json:"message"`
}

// ErrorResponse creates a {"message": ...} response with the given status.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Message(message)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	ErrorResponse(status, msg).Write(w)
}

// writeServiceError maps a service error to its status code. resource names
// the record the handler was after, e.g. "Property", for 404 messages.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, resource string) {
	switch {
	case core.IsValidation(err):
		writeMessage(w, http.StatusBadRequest, clientMessage(err, nil))
	case errors.Is(err, core.ErrNotFound):
		writeMessage(w, http.StatusNotFound, notFoundMessage(err, resource))
	case errors.Is(err, core.ErrConflict):
		writeMessage(w, http.StatusConflict, clientMessage(err, core.ErrConflict))
	case errors.Is(err, core.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
	case errors.Is(err, core.ErrForbidden):
		writeMessage(w, http.StatusForbidden, clientMessage(err, core.ErrForbidden))
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err.Error(),
			"error_type", applog.ErrorTypeInternal)
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}

// clientMessage drops the trailing sentinel text from err and capitalises
// the rest.
func clientMessage(err, sentinel error) string {
	msg := err.Error()
	if sentinel != nil {
		msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
	}
	return capitalize(msg)
}

// notFoundMessage keeps "<kind> not found" errors raised by the services
// and falls back to "<resource> not found" for store errors carrying ids.
func notFoundMessage(err error, resource string) string {
	msg := err.Error()
	if strings.HasSuffix(msg, " "+core.ErrNotFound.Error()) && !strings.Contains(msg, ":") {
		return capitalize(msg)
	}
	if resource == "" {
		return "Not found"
	}
	return resource + " not found"
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
