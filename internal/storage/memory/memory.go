// Package memory provides a map-backed implementation of the
// storage.Storage interface.
//
// A Go map has no order, but the list endpoint must return students in the
// order they were created. So the store keeps two structures side by side:
//
//	students — id → record, for O(1) lookups
//	order    — ids in insertion order, for paging
//
// One sync.RWMutex guards both. Reads (get, list, count) take the shared
// lock; writes (create, update, delete) take the exclusive one.
package memory

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aanand-mishra/students-crud/internal/storage"
	"github.com/aanand-mishra/students-crud/internal/types"
)

// Memory is the in-memory implementation of storage.Storage.
type Memory struct {
	mu       sync.RWMutex
	students map[string]types.Student
	order    []string

	// now is the clock. Tests swap it to control timestamps.
	now func() time.Time
}

// New returns an empty, ready-to-use store.
func New() *Memory {
	return &Memory{
		students: make(map[string]types.Student),
		order:    make([]string, 0),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateStudent stores a new record under a random UUID.
//
// uuid.NewString draws from crypto/rand; a collision is astronomically
// unlikely, but ids must never be reused, so the loop simply draws again.
// Deleted ids are not remembered: a v4 UUID repeating is not a real concern.
func (m *Memory) CreateStudent(fields types.StudentFields) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	for {
		if _, taken := m.students[id]; !taken {
			break
		}
		id = uuid.NewString()
	}

	now := m.now()
	student := types.Student{
		ID:        id,
		Name:      fields.Name,
		CollegeID: fields.CollegeID,
		Age:       fields.Age,
		Course:    fields.Course,
		Year:      fields.Year,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.students[id] = student
	m.order = append(m.order, id)

	return student, nil
}

// GetStudentByID returns a copy of the stored record.
func (m *Memory) GetStudentByID(id string) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	student, ok := m.students[id]
	if !ok {
		return types.Student{}, fmt.Errorf("GetStudentByID %q: %w", id, storage.ErrNotFound)
	}
	return student, nil
}

// GetStudents returns one page of students in insertion order.
func (m *Memory) GetStudents(offset, limit int) ([]types.Student, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := len(m.order)
	start, end := window(offset, limit, total)

	// Pre-allocate an empty (non-nil) slice so JSON encodes [] not null.
	students := make([]types.Student, 0, end-start)
	for _, id := range m.order[start:end] {
		students = append(students, m.students[id])
	}

	return students, total, nil
}

// UpdateStudentByID overwrites the business fields of an existing record.
//
// UpdatedAt never moves backwards: if the wall clock was stepped back since
// the last write, the previous value is kept so created_at <= updated_at
// holds no matter what.
func (m *Memory) UpdateStudentByID(id string, fields types.StudentFields) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	student, ok := m.students[id]
	if !ok {
		return types.Student{}, fmt.Errorf("UpdateStudentByID %q: %w", id, storage.ErrNotFound)
	}

	student.Name = fields.Name
	student.CollegeID = fields.CollegeID
	student.Age = fields.Age
	student.Course = fields.Course
	student.Year = fields.Year
	if now := m.now(); now.After(student.UpdatedAt) {
		student.UpdatedAt = now
	}

	m.students[id] = student
	return student, nil
}

// DeleteStudentByID removes the record and its slot in the insertion order.
func (m *Memory) DeleteStudentByID(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[id]; !ok {
		return fmt.Errorf("DeleteStudentByID %q: %w", id, storage.ErrNotFound)
	}

	delete(m.students, id)
	if i := slices.Index(m.order, id); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	return nil
}

// CountStudents returns the number of stored records.
func (m *Memory) CountStudents() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.students), nil
}

// window clamps [offset, offset+limit) into [0, total].
func window(offset, limit, total int) (start, end int) {
	start = max(offset, 0)
	limit = max(limit, 0)
	if start > total {
		start = total
	}
	end = total
	if limit < total-start {
		end = start + limit
	}
	return start, end
}
