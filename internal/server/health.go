package server

import (
	"net/http"
	"time"

	"github.com/terraconstructs/authgate/internal/envelope"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "authgate"

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
}

// HandleHealth reports liveness. It never touches a store.
func HandleHealth(now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		envelope.OK(w, HealthResponse{
			Status:    "UP",
			Timestamp: now().UTC(),
			Service:   ServiceName,
		})
	}
}
