// Package health serves GET /api/health.
package health

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aanand-mishra/students-crud/internal/storage"
	"github.com/aanand-mishra/students-crud/internal/types"
	"github.com/aanand-mishra/students-crud/internal/utils/response"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// New reports the service status and the current number of students.
//
//	{ "status": "healthy", "students_count": 3, "timestamp": "2026-…Z" }
//
// The memory store cannot fail to count. Should the configured backend
// fail, the endpoint answers 503 with status "unhealthy".
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := storage.CountStudents()
		if err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusServiceUnavailable, types.Health{
				Status:    StatusUnhealthy,
				Timestamp: time.Now().UTC(),
			})
			return
		}

		response.WriteJSON(w, http.StatusOK, types.Health{
			Status:        StatusHealthy,
			StudentsCount: count,
			Timestamp:     time.Now().UTC(),
		})
	}
}
