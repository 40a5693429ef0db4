// Package storagetest is a behavioural test suite that every
// storage.Storage implementation must pass.
package storagetest

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aanand-mishra/students-crud/internal/storage"
	"github.com/aanand-mishra/students-crud/internal/types"
)

// Factory returns a fresh, empty store for one test.
type Factory func(t *testing.T) storage.Storage

// Fields returns a valid set of business fields, varied by n.
func Fields(n int) types.StudentFields {
	return types.StudentFields{
		Name:      fmt.Sprintf("Student %d", n),
		CollegeID: fmt.Sprintf("C-%05d", n),
		Age:       18 + n%10,
		Course:    "Computer Science",
		Year:      1 + n%4,
	}
}

// Run executes the whole suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("CreateEmptyFields", func(t *testing.T) { testCreateEmptyFields(t, newStore(t)) })
	t.Run("UniqueIDs", func(t *testing.T) { testUniqueIDs(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("ListOrderAndPaging", func(t *testing.T) { testListOrderAndPaging(t, newStore(t)) })
	t.Run("ListEmpty", func(t *testing.T) { testListEmpty(t, newStore(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("DeleteKeepsOrder", func(t *testing.T) { testDeleteKeepsOrder(t, newStore(t)) })
	t.Run("ConcurrentCreates", func(t *testing.T) { testConcurrentCreates(t, newStore(t)) })
}

func mustCreate(t *testing.T, s storage.Storage, f types.StudentFields) types.Student {
	t.Helper()
	st, err := s.CreateStudent(f)
	if err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}
	return st
}

func mustCount(t *testing.T, s storage.Storage) int {
	t.Helper()
	n, err := s.CountStudents()
	if err != nil {
		t.Fatalf("CountStudents() error = %v", err)
	}
	return n
}

func testCreateAndGet(t *testing.T, s storage.Storage) {
	want := Fields(1)
	created := mustCreate(t, s, want)

	if created.ID == "" {
		t.Fatal("CreateStudent() returned empty ID")
	}
	if created.Fields() != want {
		t.Errorf("CreateStudent() fields = %+v, want %+v", created.Fields(), want)
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("CreatedAt = %v, UpdatedAt = %v, want equal", created.CreatedAt, created.UpdatedAt)
	}
	if created.CreatedAt.Location().String() != "UTC" {
		t.Errorf("CreatedAt location = %v, want UTC", created.CreatedAt.Location())
	}

	got, err := s.GetStudentByID(created.ID)
	if err != nil {
		t.Fatalf("GetStudentByID() error = %v", err)
	}
	if got.Fields() != want {
		t.Errorf("GetStudentByID() fields = %+v, want %+v", got.Fields(), want)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) || !got.UpdatedAt.Equal(created.UpdatedAt) {
		t.Errorf("GetStudentByID() timestamps = (%v, %v), want (%v, %v)",
			got.CreatedAt, got.UpdatedAt, created.CreatedAt, created.UpdatedAt)
	}

	if n := mustCount(t, s); n != 1 {
		t.Errorf("CountStudents() = %d, want 1", n)
	}
}

func testCreateEmptyFields(t *testing.T, s storage.Storage) {
	created := mustCreate(t, s, types.StudentFields{})

	got, err := s.GetStudentByID(created.ID)
	if err != nil {
		t.Fatalf("GetStudentByID() error = %v", err)
	}
	if got.Fields() != (types.StudentFields{}) {
		t.Errorf("GetStudentByID() fields = %+v, want zero", got.Fields())
	}
}

func testUniqueIDs(t *testing.T, s storage.Storage) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		st := mustCreate(t, s, Fields(i))
		if seen[st.ID] {
			t.Fatalf("duplicate ID %q after %d creates", st.ID, i)
		}
		seen[st.ID] = true
	}
}

func testGetMissing(t *testing.T, s storage.Storage) {
	_, err := s.GetStudentByID("does-not-exist")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetStudentByID() error = %v, want ErrNotFound", err)
	}
}

func testListOrderAndPaging(t *testing.T, s storage.Storage) {
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, mustCreate(t, s, Fields(i)).ID)
	}

	tests := []struct {
		name          string
		offset, limit int
		want          []string
	}{
		{"all", 0, 10, ids},
		{"first page", 0, 2, ids[0:2]},
		{"second page", 2, 2, ids[2:4]},
		{"last partial page", 4, 2, ids[4:5]},
		{"offset at end", 5, 2, nil},
		{"offset past end", 50, 2, nil},
		{"zero limit", 0, 0, nil},
		{"negative offset", -3, 2, ids[0:2]},
		{"negative limit", 0, -1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := s.GetStudents(tt.offset, tt.limit)
			if err != nil {
				t.Fatalf("GetStudents() error = %v", err)
			}
			if total != len(ids) {
				t.Errorf("total = %d, want %d", total, len(ids))
			}
			if got == nil {
				t.Fatal("GetStudents() returned nil slice, want non-nil")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("item %d ID = %q, want %q", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func testListEmpty(t *testing.T, s storage.Storage) {
	got, total, err := s.GetStudents(0, 10)
	if err != nil {
		t.Fatalf("GetStudents() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("GetStudents() = %v, want empty non-nil slice", got)
	}
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
}

func testUpdate(t *testing.T, s storage.Storage) {
	created := mustCreate(t, s, Fields(1))
	mustCreate(t, s, Fields(2))

	want := types.StudentFields{
		Name:      "Jane Roe",
		CollegeID: "99999",
		Age:       22,
		Course:    "Mathematics",
		Year:      4,
	}
	updated, err := s.UpdateStudentByID(created.ID, want)
	if err != nil {
		t.Fatalf("UpdateStudentByID() error = %v", err)
	}

	if updated.ID != created.ID {
		t.Errorf("ID = %q, want %q", updated.ID, created.ID)
	}
	if updated.Fields() != want {
		t.Errorf("fields = %+v, want %+v", updated.Fields(), want)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", updated.CreatedAt, created.CreatedAt)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, went back from %v", updated.UpdatedAt, created.UpdatedAt)
	}

	got, err := s.GetStudentByID(created.ID)
	if err != nil {
		t.Fatalf("GetStudentByID() error = %v", err)
	}
	if got.Fields() != want || !got.UpdatedAt.Equal(updated.UpdatedAt) {
		t.Errorf("GetStudentByID() = %+v, want stored update %+v", got, updated)
	}

	// update keeps the record in its original position
	list, _, err := s.GetStudents(0, 10)
	if err != nil {
		t.Fatalf("GetStudents() error = %v", err)
	}
	if list[0].ID != created.ID {
		t.Errorf("first listed ID = %q, want %q", list[0].ID, created.ID)
	}

	if n := mustCount(t, s); n != 2 {
		t.Errorf("CountStudents() = %d, want 2", n)
	}
}

func testUpdateMissing(t *testing.T, s storage.Storage) {
	_, err := s.UpdateStudentByID("does-not-exist", Fields(1))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateStudentByID() error = %v, want ErrNotFound", err)
	}
	if n := mustCount(t, s); n != 0 {
		t.Errorf("CountStudents() = %d, want 0", n)
	}
}

func testDelete(t *testing.T, s storage.Storage) {
	created := mustCreate(t, s, Fields(1))
	mustCreate(t, s, Fields(2))
	before := mustCount(t, s)

	if err := s.DeleteStudentByID(created.ID); err != nil {
		t.Fatalf("DeleteStudentByID() error = %v", err)
	}

	if n := mustCount(t, s); n != before-1 {
		t.Errorf("CountStudents() = %d, want %d", n, before-1)
	}
	if _, err := s.GetStudentByID(created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetStudentByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteStudentByID(created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second DeleteStudentByID() error = %v, want ErrNotFound", err)
	}
	if n := mustCount(t, s); n != before-1 {
		t.Errorf("CountStudents() after second delete = %d, want %d", n, before-1)
	}
}

func testDeleteKeepsOrder(t *testing.T, s storage.Storage) {
	a := mustCreate(t, s, Fields(1))
	b := mustCreate(t, s, Fields(2))
	c := mustCreate(t, s, Fields(3))

	if err := s.DeleteStudentByID(b.ID); err != nil {
		t.Fatalf("DeleteStudentByID() error = %v", err)
	}
	d := mustCreate(t, s, Fields(4))

	got, total, err := s.GetStudents(0, 10)
	if err != nil {
		t.Fatalf("GetStudents() error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}

	want := []string{a.ID, c.ID, d.ID}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("item %d ID = %q, want %q", i, got[i].ID, want[i])
		}
	}
}

func testConcurrentCreates(t *testing.T, s storage.Storage) {
	const workers, perWorker = 8, 25

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]bool)
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				st, err := s.CreateStudent(Fields(w*perWorker + i))
				if err != nil {
					t.Errorf("CreateStudent() error = %v", err)
					return
				}
				// readers run alongside the writers
				if _, _, err := s.GetStudents(0, 5); err != nil {
					t.Errorf("GetStudents() error = %v", err)
					return
				}
				mu.Lock()
				ids[st.ID] = true
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	if len(ids) != workers*perWorker {
		t.Errorf("unique IDs = %d, want %d", len(ids), workers*perWorker)
	}
	if n := mustCount(t, s); n != workers*perWorker {
		t.Errorf("CountStudents() = %d, want %d", n, workers*perWorker)
	}
}
