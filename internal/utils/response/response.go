// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
//
// Error responses always have the same shape, so API consumers can rely
// on it:
//
//	{ "error": "Student not found" }
package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope returned for error cases.
//
// Success responses may return any JSON shape (a student, a page, a health
// report…).
type Response struct {
	Error string `json:"error"`
}

// Messages that are part of the API contract. Clients match on them, so
// they live in one place instead of being retyped in every handler.
const (
	MsgStudentNotFound = "Student not found"
	MsgMissingField    = "Missing required field: %s"
)

// ─────────────────────────────────────────────────────────────────────────────
// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
// ─────────────────────────────────────────────────────────────────────────────
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Encode() appends a newline after the JSON — handy for CLI testing.
	return json.NewEncoder(w).Encode(data)
}

// NoContent writes a bodiless 204, used by DELETE.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// GeneralError wraps any Go error into our standard Response shape.
// Use this for unexpected errors (decode failures, storage faults, etc.)
func GeneralError(err error) Response {
	return Response{Error: err.Error()}
}

// NotFound is the fixed body for an unknown student id.
func NotFound() Response {
	return Response{Error: MsgStudentNotFound}
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError turns validator output into a single Response naming the
// FIRST failing field.
//
// The validator reports one FieldError per failing struct field, in struct
// declaration order. Request structs declare fields in the order clients
// are told they are checked (name, college_id, age, course, year), so the
// first error is the first missing field.
//
// Example output:
//
//	{ "error": "Missing required field: age" }
//
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) Response {
	if len(errs) == 0 {
		return Response{Error: "validation failed"}
	}

	e := errs[0]
	switch e.ActualTag() {
	case "required":
		return Response{Error: fmt.Sprintf(MsgMissingField, e.Field())}
	default:
		return Response{Error: fmt.Sprintf("field %s is invalid", e.Field())}
	}
}
