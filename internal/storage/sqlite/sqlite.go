// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite WITHOUT A FILE?
// ──────────────────────────
// The service keeps its data in process memory only. SQLite can do that:
// a "mode=memory" database lives as long as one connection to it is open
// and disappears with the process. We still get SQL ordering, LIMIT/OFFSET
// paging and a UNIQUE constraint on ids for free.
//
// The pool is pinned to ONE connection. That has two effects:
//
//  1. The in-memory database can never be dropped by the pool closing its
//     last idle connection.
//  2. Every statement and transaction is serialized — the single-lock
//     discipline the store contract asks for.
//
// Importing go-sqlite3 registers the "sqlite3" driver with database/sql.
// We also use it by name to recognise UNIQUE constraint errors.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/students-crud/internal/storage"
	"github.com/aanand-mishra/students-crud/internal/types"
)

// maxIDAttempts bounds the retry loop on a UUID collision.
const maxIDAttempts = 3

// SQLite is the concrete implementation of storage.Storage.
type SQLite struct {
	Db *sql.DB

	// now is the clock. Tests swap it to control timestamps.
	now func() time.Time
}

// New opens a named in-memory SQLite database, creates the students table
// and returns a ready-to-use *SQLite.
//
// The name only distinguishes databases inside one process (tests open
// several); nothing is written to disk.
func New(name string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Schema:
	//   seq        — autoincrement, defines insertion order for paging
	//   id         — the public UUID, never reused
	//   created_at — RFC 3339 text with nanoseconds, always UTC
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT    NOT NULL UNIQUE,
			name       TEXT    NOT NULL,
			college_id TEXT    NOT NULL,
			age        INTEGER NOT NULL,
			course     TEXT    NOT NULL,
			year       INTEGER NOT NULL,
			created_at TEXT    NOT NULL,
			updated_at TEXT    NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{
		Db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close releases the connection, which also drops the in-memory database.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

const selectColumns = "id, name, college_id, age, course, year, created_at, updated_at"

// CreateStudent inserts a new row under a random UUID.
//
// A duplicate id violates the UNIQUE constraint; in that (vanishingly
// rare) case we draw a new UUID and try again.
func (s *SQLite) CreateStudent(fields types.StudentFields) (types.Student, error) {
	now := s.now()
	student := types.Student{
		Name:      fields.Name,
		CollegeID: fields.CollegeID,
		Age:       fields.Age,
		Course:    fields.Course,
		Year:      fields.Year,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for attempt := 1; ; attempt++ {
		student.ID = uuid.NewString()

		_, err := s.Db.Exec(
			"INSERT INTO students (id, name, college_id, age, course, year, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			student.ID, student.Name, student.CollegeID, student.Age,
			student.Course, student.Year,
			formatTime(student.CreatedAt), formatTime(student.UpdatedAt),
		)
		if err == nil {
			return student, nil
		}
		if !isUniqueViolation(err) || attempt == maxIDAttempts {
			return types.Student{}, fmt.Errorf("CreateStudent: exec: %w", err)
		}
	}
}

// GetStudentByID fetches exactly one row by its public id.
func (s *SQLite) GetStudentByID(id string) (types.Student, error) {
	row := s.Db.QueryRow(
		"SELECT "+selectColumns+" FROM students WHERE id = ? LIMIT 1", id,
	)

	student, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("GetStudentByID %q: %w", id, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

// GetStudents returns one page ordered by insertion sequence.
//
// The count and the page are read in the same transaction so the total
// always matches the table the page was cut from.
func (s *SQLite) GetStudents(offset, limit int) ([]types.Student, int, error) {
	offset = max(offset, 0)
	limit = max(limit, 0)

	tx, err := s.Db.Begin()
	if err != nil {
		return nil, 0, fmt.Errorf("GetStudents: begin: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRow("SELECT COUNT(*) FROM students").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("GetStudents: count: %w", err)
	}

	rows, err := tx.Query(
		"SELECT "+selectColumns+" FROM students ORDER BY seq LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, total, nil
}

// UpdateStudentByID replaces the business fields inside a transaction so
// the read of the old updated_at and the write cannot interleave with
// another request.
func (s *SQLite) UpdateStudentByID(id string, fields types.StudentFields) (types.Student, error) {
	tx, err := s.Db.Begin()
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: begin: %w", err)
	}
	defer tx.Rollback()

	student, err := scanStudent(tx.QueryRow(
		"SELECT "+selectColumns+" FROM students WHERE id = ? LIMIT 1", id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("UpdateStudentByID %q: %w", id, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("UpdateStudentByID: scan: %w", err)
	}

	student.Name = fields.Name
	student.CollegeID = fields.CollegeID
	student.Age = fields.Age
	student.Course = fields.Course
	student.Year = fields.Year
	if now := s.now(); now.After(student.UpdatedAt) {
		student.UpdatedAt = now
	}

	_, err = tx.Exec(
		"UPDATE students SET name = ?, college_id = ?, age = ?, course = ?, year = ?, updated_at = ? WHERE id = ?",
		student.Name, student.CollegeID, student.Age, student.Course,
		student.Year, formatTime(student.UpdatedAt), id,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: commit: %w", err)
	}
	return student, nil
}

// DeleteStudentByID removes a row by its public id.
func (s *SQLite) DeleteStudentByID(id string) error {
	result, err := s.Db.Exec("DELETE FROM students WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("DeleteStudentByID %q: %w", id, storage.ErrNotFound)
	}

	return nil
}

// CountStudents returns the number of rows.
func (s *SQLite) CountStudents() (int, error) {
	var total int
	if err := s.Db.QueryRow("SELECT COUNT(*) FROM students").Scan(&total); err != nil {
		return 0, fmt.Errorf("CountStudents: %w", err)
	}
	return total, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (types.Student, error) {
	var (
		student            types.Student
		createdAt, updatedAt string
	)

	// Order must match selectColumns.
	if err := row.Scan(
		&student.ID,
		&student.Name,
		&student.CollegeID,
		&student.Age,
		&student.Course,
		&student.Year,
		&createdAt,
		&updatedAt,
	); err != nil {
		return types.Student{}, err
	}

	var err error
	if student.CreatedAt, err = parseTime(createdAt); err != nil {
		return types.Student{}, fmt.Errorf("created_at: %w", err)
	}
	if student.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return types.Student{}, fmt.Errorf("updated_at: %w", err)
	}

	return student, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
