package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/areascore/internal/api/handlers"
	"github.com/wonny/areascore/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
// metrics adds GET /metrics backed by the default Prometheus registry.
// A nil scoreHandler yields a health/metrics-only router.
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(scoreHandler *handlers.ScoreHandler, metrics bool, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/healthz", healthCheckHandler).Methods("GET")
	if metrics {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// API v1
	if scoreHandler != nil {
		api := r.PathPrefix("/api/v1").Subrouter()

		// Score endpoints
		api.HandleFunc("/scores", scoreHandler.ListScores).Methods("GET")
		api.HandleFunc("/scores/{area_id}", scoreHandler.GetArea).Methods("GET")
		api.HandleFunc("/forecasts", scoreHandler.ListForecasts).Methods("GET")
		api.HandleFunc("/summary", scoreHandler.GetSummary).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "areascore-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
