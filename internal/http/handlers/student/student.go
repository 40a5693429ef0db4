// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// Go's router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// That signature has no room for extra parameters like a store.
// To inject dependencies we use a factory function that:
//  1. Accepts dependencies (storage)
//  2. Returns a function with the exact signature the router needs
//
//	router.HandleFunc("POST /api/students", student.New(storage))
//	//                                              ^^^^^^^^^^^^^
//	//                         New(storage) is called ONCE at startup.
//	//                         It returns a handler func which is called
//	//                         on EVERY incoming request.
//
// STATUS CODES:
//
//	400 — a required field is missing from the body
//	404 — no student with that id
//	500 — the body could not be parsed, or the store failed
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/students-crud/internal/storage"
	"github.com/aanand-mishra/students-crud/internal/types"
	"github.com/aanand-mishra/students-crud/internal/utils/response"
)

// Paging defaults for GET /api/students.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// validate is shared by all handlers: a *validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

// newValidator reports field names by their json tag, so a missing
// CollegeID surfaces as "college_id" — the name the client actually sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
// Creates a new student from the JSON request body.
//
// Request body (JSON):
//
//	{ "name": "John Doe", "college_id": "12345", "age": 20,
//	  "course": "Computer Science", "year": 2 }
//
// Success response (201 Created) — the full record, id and timestamps
// included; created_at equals updated_at.
// ─────────────────────────────────────────────────────────────────────────────
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		fields, ok := readStudent(w, r)
		if !ok {
			return
		}

		student, err := storage.CreateStudent(fields)
		if err != nil {
			slog.Error("error creating student", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		slog.Info("student created", slog.String("id", student.ID))
		response.WriteJSON(w, http.StatusCreated, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/students/{id}
//
// Error responses:
//
//	404 Not Found — { "error": "Student not found" }
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.PathValue("id") extracts the {id} segment from the URL.
		// Ids are opaque strings, so there is nothing to parse.
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		student, err := storage.GetStudentByID(id)
		if err != nil {
			writeStoreError(w, "error getting student", id, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/students?page=1&limit=10
// Returns one page of students in the order they were created.
//
// Success response (200 OK):
//
//	{
//	  "items": [ { "id": "…", "name": "John Doe", … } ],
//	  "pagination_params": { "page": 1, "limit": 10, "total": 1 }
//	}
//
// page and limit never fail validation: a missing or non-integer value
// falls back to the default, and out-of-range values are clamped when the
// offset is computed (offset ≥ 0, limit ≥ 0). The response echoes the
// values as requested. total is always the full table size.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		page := queryInt(query.Get("page"), DefaultPage)
		limit := queryInt(query.Get("limit"), DefaultLimit)

		slog.Info("getting students",
			slog.Int("page", page),
			slog.Int("limit", limit))

		offset, size := Window(page, limit)
		students, total, err := storage.GetStudents(offset, size)
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, types.StudentList{
			Items: students,
			PaginationParams: types.PaginationParams{
				Page:  page,
				Limit: limit,
				Total: total,
			},
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/students/{id}
// Replaces ALL five business fields of an existing student. This is not a
// patch: leaving out a field is a 400 even if its value would not change.
//
// The id is checked before the body is read, so an unknown id is a 404
// regardless of what was sent.
// ─────────────────────────────────────────────────────────────────────────────
func Update(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a student", slog.String("id", id))

		if _, err := storage.GetStudentByID(id); err != nil {
			writeStoreError(w, "error updating student", id, err)
			return
		}

		fields, ok := readStudent(w, r)
		if !ok {
			return
		}

		// The student may have been deleted since the check above; the
		// store reports that as ErrNotFound and we still answer 404.
		updated, err := storage.UpdateStudentByID(id, fields)
		if err != nil {
			writeStoreError(w, "error updating student", id, err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /api/students/{id}
// Permanently removes a student. Answers 204 with an empty body.
// ─────────────────────────────────────────────────────────────────────────────
func Delete(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		if err := storage.DeleteStudentByID(id); err != nil {
			writeStoreError(w, "error deleting student", id, err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.NoContent(w)
	}
}

// Window converts a 1-based page and a page size into the store's
// offset/limit, clamping both at zero. page ≤ 0 therefore reads from the
// start of the table instead of a negative offset.
func Window(page, limit int) (offset, size int) {
	size = max(limit, 0)
	if size > 0 && page-1 > math.MaxInt/size {
		return math.MaxInt, size
	}
	offset = max((page-1)*size, 0)
	return offset, size
}

// readStudent decodes and validates a POST/PUT body. On failure it has
// already written the response and returns false.
func readStudent(w http.ResponseWriter, r *http.Request) (types.StudentFields, bool) {
	var req types.StudentRequest

	// Parse failures are not the client forgetting a field: they are
	// reported as 500 with the decoder's message.
	err := json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusInternalServerError,
			response.GeneralError(errors.New("request body is empty")))
		return types.StudentFields{}, false
	}
	if err != nil {
		slog.Error("error decoding student", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError,
			response.GeneralError(err))
		return types.StudentFields{}, false
	}

	if err := validate.Struct(req); err != nil {
		var validateErrs validator.ValidationErrors
		if !errors.As(err, &validateErrs) {
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return types.StudentFields{}, false
		}
		response.WriteJSON(w, http.StatusBadRequest,
			response.ValidationError(validateErrs))
		return types.StudentFields{}, false
	}

	return req.Fields(), true
}

// writeStoreError maps storage errors onto status codes: ErrNotFound is a
// 404 with the fixed message, anything else a 500.
func writeStoreError(w http.ResponseWriter, msg, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		response.WriteJSON(w, http.StatusNotFound, response.NotFound())
		return
	}

	slog.Error(msg,
		slog.String("id", id),
		slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError,
		response.GeneralError(err))
}

// queryInt parses a query parameter, falling back to def when the value
// is missing or not an integer.
func queryInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return n
}
