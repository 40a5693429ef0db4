// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, storage, and utils can all import types without depending
// on each other.
package types

import "time"

// Student represents a student record as stored server-side.
//
// ID, CreatedAt and UpdatedAt are owned by the storage layer: clients never
// set them. time.Time encodes to JSON as RFC 3339 with nanoseconds, so a
// timestamp decoded from a response is the exact instant that was stored.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CollegeID string    `json:"college_id"`
	Age       int       `json:"age"`
	Course    string    `json:"course"`
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StudentFields are the five business fields a client supplies on create
// and replaces wholesale on update.
type StudentFields struct {
	Name      string
	CollegeID string
	Age       int
	Course    string
	Year      int
}

// Fields returns the business fields of s.
func (s Student) Fields() StudentFields {
	return StudentFields{
		Name:      s.Name,
		CollegeID: s.CollegeID,
		Age:       s.Age,
		Course:    s.Course,
		Year:      s.Year,
	}
}

// StudentRequest is the JSON body accepted by POST and PUT.
//
// Every field is a pointer so "key absent" (nil) can be told apart from a
// zero value such as "" or 0. The go-playground/validator "required" tag on
// a pointer only checks that the pointer is non-nil, which is exactly the
// presence check the API promises: an empty name is accepted.
//
// Field order matters: the validator reports errors in declaration order and
// the handler surfaces the first one.
type StudentRequest struct {
	Name      *string `json:"name"       validate:"required"`
	CollegeID *string `json:"college_id" validate:"required"`
	Age       *int    `json:"age"        validate:"required"`
	Course    *string `json:"course"     validate:"required"`
	Year      *int    `json:"year"       validate:"required"`
}

// Fields dereferences a validated request. Call it only after validation
// succeeded, otherwise it panics on a nil field.
func (r StudentRequest) Fields() StudentFields {
	return StudentFields{
		Name:      *r.Name,
		CollegeID: *r.CollegeID,
		Age:       *r.Age,
		Course:    *r.Course,
		Year:      *r.Year,
	}
}

// PaginationParams echoes the paging inputs alongside the table size.
type PaginationParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// StudentList is the body of GET /api/students.
type StudentList struct {
	Items            []Student        `json:"items"`
	PaginationParams PaginationParams `json:"pagination_params"`
}

// Health is the body of GET /api/health.
type Health struct {
	Status        string    `json:"status"`
	StudentsCount int       `json:"students_count"`
	Timestamp     time.Time `json:"timestamp"`
}
