package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(h *Handler) http.Handler {
	router := mux.NewRouter()
	router.Use(RequestID, AccessLog)

	// Per-city aggregates
	router.HandleFunc("/revenue_per_city", h.RevenuePerCity).Methods("GET")
	router.HandleFunc("/trips_per_city", h.TripsPerCity).Methods("GET")
	router.HandleFunc("/distance_per_city", h.DistancePerCity).Methods("GET")

	// Trip endpoints
	router.HandleFunc("/trips", h.ListTrips).Methods("GET")
	router.HandleFunc("/trips/city/{city_name}", h.TripsByCity).Methods("GET")
	router.HandleFunc("/trips/summary", h.TripSummary).Methods("GET")
	router.HandleFunc("/trips/filter", h.FilterTrips).Methods("GET")
	router.HandleFunc("/trips/fraud-rate", h.FraudRate).Methods("GET")
	router.HandleFunc("/trips/metrics", h.TripMetrics).Methods("GET")
	router.HandleFunc("/trips/fraud-analysis", h.FraudAnalysis).Methods("GET")

	// Operations
	router.HandleFunc("/healthz", h.Health).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Add CORS support for the dashboard
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))

	return recovery(cors(router))
}
