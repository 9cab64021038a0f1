package api

import (
	"net/http"
	"time"

	"github.com/goa-eco-guard/eco-guard/internal/config"
	"github.com/goa-eco-guard/eco-guard/internal/missions"
	"github.com/goa-eco-guard/eco-guard/internal/reports"
	"github.com/goa-eco-guard/eco-guard/internal/sightings"
	"github.com/gorilla/mux"
)

// maxUploadBytes caps multipart report submissions
const maxUploadBytes = 10 << 20

// Server exposes the report, sighting and mission services over HTTP
type Server struct {
	config    *config.Config
	reports   *reports.Service
	sightings *sightings.Service
	missions  *missions.Service
	mediaDir  string
}

// NewServer creates the HTTP layer. mediaDir, when set, is served under /media/.
func NewServer(cfg *config.Config, reportService *reports.Service, sightingService *sightings.Service, missionService *missions.Service, mediaDir string) *Server {
	return &Server{
		config:    cfg,
		reports:   reportService,
		sightings: sightingService,
		missions:  missionService,
		mediaDir:  mediaDir,
	}
}

// Router builds the route table
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	// Health check endpoint
	router.HandleFunc("/health", s.healthCheckHandler).Methods("GET")

	// Metrics endpoint
	router.HandleFunc("/metrics", s.metricsHandler).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(newRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst, 3*time.Minute).middleware)

	api.HandleFunc("/reports", s.listReportsHandler).Methods("GET")
	api.HandleFunc("/reports", s.submitReportHandler).Methods("POST")
	api.HandleFunc("/reports/{id}", s.deleteReportHandler).Methods("DELETE")
	api.HandleFunc("/hotspots", s.hotspotsHandler).Methods("GET")
	api.HandleFunc("/alerts/nearby", s.nearbyAlertsHandler).Methods("GET")
	api.HandleFunc("/report-stats", s.reportStatsHandler).Methods("GET")

	api.HandleFunc("/sightings", s.listSightingsHandler).Methods("GET")
	api.HandleFunc("/sightings", s.submitSightingHandler).Methods("POST")

	api.HandleFunc("/missions", s.listMissionsHandler).Methods("GET")
	api.HandleFunc("/missions", s.createMissionHandler).Methods("POST")
	api.HandleFunc("/missions/{id}/join", s.joinMissionHandler).Methods("POST")

	// Manual trigger endpoint
	api.HandleFunc("/reminders/trigger", s.triggerRemindersHandler).Methods("POST")

	if s.mediaDir != "" {
		router.PathPrefix("/media/").Handler(http.StripPrefix("/media/", http.FileServer(http.Dir(s.mediaDir))))
	}

	return router
}
