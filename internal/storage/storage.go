// Package storage defines the Storage interface — a contract that any
// student store must satisfy to work with this application.
//
// Handlers (HTTP layer) should not know or care which backend they are
// talking to. Two implementations exist, both process-local:
//
//   - memory: a map guarded by a single RWMutex (the default)
//   - sqlite: an in-memory SQLite database that never touches disk
//
// Every method is atomic with respect to every other method: a reader never
// observes a half-written record and two concurrent creates never collide.
package storage

import (
	"errors"

	"github.com/aanand-mishra/students-crud/internal/types"
)

// ErrNotFound is returned when no student has the requested id.
// Callers match it with errors.Is because backends may wrap it.
var ErrNotFound = errors.New("student not found")

// Storage is the student store contract.
type Storage interface {
	// CreateStudent assigns a fresh id and the current UTC time to both
	// timestamps, stores the record, and returns it.
	CreateStudent(fields types.StudentFields) (types.Student, error)

	// GetStudentByID fetches a single student. Returns ErrNotFound if absent.
	GetStudentByID(id string) (types.Student, error)

	// GetStudents returns students in insertion order, sliced to
	// [offset, offset+limit), together with the total number of students.
	// The slice is empty (not nil) when offset is past the end.
	// Negative offset and limit are treated as 0.
	GetStudents(offset, limit int) ([]types.Student, int, error)

	// UpdateStudentByID replaces the business fields of an existing student,
	// keeps ID and CreatedAt, and refreshes UpdatedAt.
	// Returns ErrNotFound if absent.
	UpdateStudentByID(id string, fields types.StudentFields) (types.Student, error)

	// DeleteStudentByID removes a student permanently.
	// Returns ErrNotFound if absent.
	DeleteStudentByID(id string) error

	// CountStudents returns the number of stored students.
	CountStudents() (int, error)
}
