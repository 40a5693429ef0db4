package student

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aanand-mishra/students-crud/internal/storage"
	"github.com/aanand-mishra/students-crud/internal/storage/memory"
	"github.com/aanand-mishra/students-crud/internal/storage/storagetest"
	"github.com/aanand-mishra/students-crud/internal/types"
)

const validBody = `{"name":"John Doe","college_id":"12345","age":20,"course":"Computer Science","year":2}`

// newRouter registers the student handlers the way the server does, so
// r.PathValue works.
func newRouter(s storage.Storage) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/students", GetList(s))
	mux.HandleFunc("POST /api/students", New(s))
	mux.HandleFunc("GET /api/students/{id}", GetByID(s))
	mux.HandleFunc("PUT /api/students/{id}", Update(s))
	mux.HandleFunc("DELETE /api/students/{id}", Delete(s))
	return mux
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func TestCreate(t *testing.T) {
	router := newRouter(memory.New())

	rec := do(t, router, http.MethodPost, "/api/students", validBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	got := decode[types.Student](t, rec)
	if got.ID == "" {
		t.Error("ID is empty")
	}
	want := types.StudentFields{Name: "John Doe", CollegeID: "12345", Age: 20, Course: "Computer Science", Year: 2}
	if got.Fields() != want {
		t.Errorf("fields = %+v, want %+v", got.Fields(), want)
	}
	if !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Errorf("created_at = %v, updated_at = %v, want equal", got.CreatedAt, got.UpdatedAt)
	}
}

func TestCreate_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty object", `{}`, "Missing required field: name"},
		{"missing college_id", `{"name":"A","age":1,"course":"C","year":1}`, "Missing required field: college_id"},
		{"missing age", `{"name":"A","college_id":"1","course":"C","year":1}`, "Missing required field: age"},
		{"missing course", `{"name":"A","college_id":"1","age":1,"year":1}`, "Missing required field: course"},
		{"missing year", `{"name":"A","college_id":"1","age":1,"course":"C"}`, "Missing required field: year"},
		{"first missing wins", `{"name":"A","course":"C"}`, "Missing required field: college_id"},
		{"null counts as missing", `{"name":null,"college_id":"1","age":1,"course":"C","year":1}`, "Missing required field: name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.New()
			rec := do(t, newRouter(s), http.MethodPost, "/api/students", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if got := errorMessage(t, rec); got != tt.want {
				t.Errorf("error = %q, want %q", got, tt.want)
			}
			if n, _ := s.CountStudents(); n != 0 {
				t.Errorf("CountStudents() = %d, want 0", n)
			}
		})
	}
}

func TestCreate_ZeroValuesArePresent(t *testing.T) {
	rec := do(t, newRouter(memory.New()), http.MethodPost, "/api/students",
		`{"name":"","college_id":"","age":0,"course":"","year":0}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body)
	}
}

func TestCreate_ParseFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"malformed json", `{"name":`},
		{"wrong type", `{"name":"A","college_id":"1","age":"twenty","course":"C","year":1}`},
		{"array body", `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newRouter(memory.New()), http.MethodPost, "/api/students", tt.body)

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
			}
			if errorMessage(t, rec) == "" {
				t.Error("error message is empty")
			}
		})
	}
}

func TestGetByID(t *testing.T) {
	s := memory.New()
	created, _ := s.CreateStudent(storagetest.Fields(1))
	router := newRouter(s)

	rec := do(t, router, http.MethodGet, "/api/students/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	got := decode[types.Student](t, rec)
	if got.ID != created.ID || got.Fields() != created.Fields() {
		t.Errorf("got %+v, want %+v", got, created)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("created_at = %v, want %v (timestamp must round-trip)", got.CreatedAt, created.CreatedAt)
	}

	rec = do(t, router, http.MethodGet, "/api/students/unknown", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got := errorMessage(t, rec); got != "Student not found" {
		t.Errorf("error = %q, want %q", got, "Student not found")
	}
}

func TestGetList_Pagination(t *testing.T) {
	s := memory.New()
	var ids []string
	for i := 0; i < 3; i++ {
		st, _ := s.CreateStudent(storagetest.Fields(i))
		ids = append(ids, st.ID)
	}
	router := newRouter(s)

	tests := []struct {
		name      string
		query     string
		wantIDs   []string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "", ids, 1, 10},
		{"first page", "?page=1&limit=2", ids[:2], 1, 2},
		{"second page", "?page=2&limit=2", ids[2:], 2, 2},
		{"past the end", "?page=5&limit=2", nil, 5, 2},
		{"page zero clamps offset", "?page=0&limit=2", ids[:2], 0, 2},
		{"negative page clamps offset", "?page=-3&limit=2", ids[:2], -3, 2},
		{"negative limit is empty", "?page=1&limit=-1", nil, 1, -1},
		{"zero limit is empty", "?limit=0", nil, 1, 0},
		{"garbage falls back to defaults", "?page=abc&limit=xyz", ids, 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/api/students"+tt.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}

			got := decode[types.StudentList](t, rec)
			if got.Items == nil {
				t.Fatal("items is null, want array")
			}
			if len(got.Items) != len(tt.wantIDs) {
				t.Fatalf("len(items) = %d, want %d", len(got.Items), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got.Items[i].ID != id {
					t.Errorf("items[%d].id = %q, want %q", i, got.Items[i].ID, id)
				}
			}
			want := types.PaginationParams{Page: tt.wantPage, Limit: tt.wantLimit, Total: 3}
			if got.PaginationParams != want {
				t.Errorf("pagination_params = %+v, want %+v", got.PaginationParams, want)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		page, limit            int
		wantOffset, wantLength int
	}{
		{1, 10, 0, 10},
		{3, 10, 20, 10},
		{0, 10, 0, 10},
		{-2, 5, 0, 5},
		{2, -1, 0, 0},
		{math.MaxInt / 2, 1024, math.MaxInt, 1024},
	}

	for _, tt := range tests {
		offset, size := Window(tt.page, tt.limit)
		if offset != tt.wantOffset || size != tt.wantLength {
			t.Errorf("Window(%d, %d) = (%d, %d), want (%d, %d)",
				tt.page, tt.limit, offset, size, tt.wantOffset, tt.wantLength)
		}
	}
}

func TestUpdate(t *testing.T) {
	s := memory.New()
	created, _ := s.CreateStudent(storagetest.Fields(1))
	router := newRouter(s)

	// make sure the clock can move on between create and update
	time.Sleep(time.Millisecond)

	body := `{"name":"Jane","college_id":"777","age":30,"course":"Physics","year":3}`
	rec := do(t, router, http.MethodPut, "/api/students/"+created.ID, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}

	got := decode[types.Student](t, rec)
	want := types.StudentFields{Name: "Jane", CollegeID: "777", Age: 30, Course: "Physics", Year: 3}
	if got.ID != created.ID {
		t.Errorf("id = %q, want %q", got.ID, created.ID)
	}
	if got.Fields() != want {
		t.Errorf("fields = %+v, want %+v", got.Fields(), want)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, created.CreatedAt)
	}
	if got.UpdatedAt.Before(created.UpdatedAt) {
		t.Errorf("updated_at = %v, before %v", got.UpdatedAt, created.UpdatedAt)
	}
}

func TestUpdate_Errors(t *testing.T) {
	s := memory.New()
	created, _ := s.CreateStudent(storagetest.Fields(1))
	router := newRouter(s)

	tests := []struct {
		name       string
		id         string
		body       string
		wantStatus int
		wantError  string
	}{
		{"unknown id", "nope", validBody, http.StatusNotFound, "Student not found"},
		{"unknown id wins over bad body", "nope", `{}`, http.StatusNotFound, "Student not found"},
		{"partial body is not a patch", created.ID, `{"name":"Only Name"}`, http.StatusBadRequest, "Missing required field: college_id"},
		{"missing year", created.ID, `{"name":"A","college_id":"1","age":1,"course":"C"}`, http.StatusBadRequest, "Missing required field: year"},
		{"malformed json", created.ID, `{`, http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPut, "/api/students/"+tt.id, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			msg := errorMessage(t, rec)
			if tt.wantError != "" && msg != tt.wantError {
				t.Errorf("error = %q, want %q", msg, tt.wantError)
			}
		})
	}

	// failed updates leave the record alone
	got, err := s.GetStudentByID(created.ID)
	if err != nil {
		t.Fatalf("GetStudentByID() error = %v", err)
	}
	if got != created {
		t.Errorf("record changed to %+v, want %+v", got, created)
	}
}

func TestDelete(t *testing.T) {
	s := memory.New()
	created, _ := s.CreateStudent(storagetest.Fields(1))
	router := newRouter(s)

	rec := do(t, router, http.MethodDelete, "/api/students/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}

	rec = do(t, router, http.MethodDelete, "/api/students/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got := errorMessage(t, rec); got != "Student not found" {
		t.Errorf("error = %q, want %q", got, "Student not found")
	}
}

// brokenStore fails every call with a non-NotFound error.
type brokenStore struct{}

var errBroken = errors.New("store unavailable")

func (brokenStore) CreateStudent(types.StudentFields) (types.Student, error) {
	return types.Student{}, errBroken
}
func (brokenStore) GetStudentByID(string) (types.Student, error) { return types.Student{}, errBroken }
func (brokenStore) GetStudents(int, int) ([]types.Student, int, error) {
	return nil, 0, errBroken
}
func (brokenStore) UpdateStudentByID(string, types.StudentFields) (types.Student, error) {
	return types.Student{}, errBroken
}
func (brokenStore) DeleteStudentByID(string) error { return errBroken }
func (brokenStore) CountStudents() (int, error)    { return 0, errBroken }

func TestStoreFailuresAre500(t *testing.T) {
	router := newRouter(brokenStore{})

	tests := []struct {
		method, target, body string
	}{
		{http.MethodPost, "/api/students", validBody},
		{http.MethodGet, "/api/students", ""},
		{http.MethodGet, "/api/students/x", ""},
		{http.MethodPut, "/api/students/x", validBody},
		{http.MethodDelete, "/api/students/x", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.target, tt.body)
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
			}
			if got := errorMessage(t, rec); got != errBroken.Error() {
				t.Errorf("error = %q, want %q", got, errBroken.Error())
			}
		})
	}
}
