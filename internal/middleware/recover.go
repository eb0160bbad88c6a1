package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/talenthive/recruiting_layer/pkg/logger"
)

// Recoverer converts handler panics into 500 responses instead of tearing
// down the connection.
type Recoverer struct {
	log *logger.Logger
}

// NewRecoverer creates a panic recovery middleware.
func NewRecoverer(log *logger.Logger) *Recoverer {
	if log == nil {
		log = logger.NewDefault("middleware")
	}
	return &Recoverer{log: log}
}

// Handler returns the recovery middleware handler.
func (m *Recoverer) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				m.log.WithField("panic", rec).
					WithField("path", r.URL.Path).
					WithField("stack", string(debug.Stack())).
					Error("recovered from handler panic")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"error": map[string]interface{}{
						"kind":    "internal",
						"message": "internal server error",
					},
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
