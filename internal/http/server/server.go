// Package server assembles the route table and middleware into a single
// http.Handler.
package server

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/students-crud/internal/http/handlers/health"
	"github.com/aanand-mishra/students-crud/internal/http/handlers/student"
	"github.com/aanand-mishra/students-crud/internal/http/middleware"
	"github.com/aanand-mishra/students-crud/internal/storage"
)

// NewHandler returns the complete API handler backed by storage.
//
// Route table:
//
//	GET    /api/students        → list students (paged)
//	POST   /api/students        → create a student
//	GET    /api/students/{id}   → get one student
//	PUT    /api/students/{id}   → replace a student
//	DELETE /api/students/{id}   → delete a student
//	GET    /api/health          → liveness and student count
func NewHandler(storage storage.Storage, log *slog.Logger) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /api/students", student.GetList(storage))
	router.HandleFunc("POST /api/students", student.New(storage))
	router.HandleFunc("GET /api/students/{id}", student.GetByID(storage))
	router.HandleFunc("PUT /api/students/{id}", student.Update(storage))
	router.HandleFunc("DELETE /api/students/{id}", student.Delete(storage))
	router.HandleFunc("GET /api/health", health.New(storage))

	return middleware.Chain(router,
		middleware.Recover(log),
		middleware.Logger(log),
		middleware.CORS,
	)
}
