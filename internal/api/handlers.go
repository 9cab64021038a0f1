package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goa-eco-guard/eco-guard/internal/missions"
	"github.com/goa-eco-guard/eco-guard/internal/models"
	"github.com/goa-eco-guard/eco-guard/internal/reports"
	"github.com/goa-eco-guard/eco-guard/internal/sightings"
	"github.com/goa-eco-guard/eco-guard/internal/storage"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error      string `json:"error"`
	Kind       string `json:"kind,omitempty"`
	ExistingID string `json:"existing_id,omitempty"`
}

type nearbyResponse struct {
	Alerts []models.NearbyReport `json:"alerts"`
}

type metricsResponse struct {
	Reports json.RawMessage `json:"reports"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

// writeError maps service errors onto HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	var dup *reports.DuplicateError

	switch {
	case errors.As(err, &dup):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:      "This report was already submitted",
			Kind:       string(reports.KindDuplicateReport),
			ExistingID: dup.ExistingID,
		})
	case errors.Is(err, reports.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: string(reports.KindInvalidInput)})
	case errors.Is(err, reports.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Service temporarily unavailable", Kind: string(reports.KindStoreUnavailable)})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Report not found"})
	case errors.Is(err, missions.ErrMissionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, missions.ErrAlreadyJoined):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		logrus.Errorf("Unhandled request error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Kind: string(reports.KindInvalidInput)})
}

func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metricsResponse{Reports: json.RawMessage(s.reports.GetMetrics())})
}

func (s *Server) listReportsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := s.reports.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) submitReportHandler(w http.ResponseWriter, r *http.Request) {
	var (
		req reports.SubmitRequest
		err error
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		req, err = parseMultipartReport(r)
	} else {
		err = json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req)
	}
	if err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}

	created, err := s.reports.Submit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) deleteReportHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.reports.Remove(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseMultipartReport(r *http.Request) (reports.SubmitRequest, error) {
	var req reports.SubmitRequest

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return req, err
	}

	req.Location = r.FormValue("location")
	req.Description = r.FormValue("description")
	req.Severity = r.FormValue("severity")

	var err error
	if req.Latitude, err = optionalFloat(r.FormValue("latitude")); err != nil {
		return req, errors.New("latitude must be a number")
	}
	if req.Longitude, err = optionalFloat(r.FormValue("longitude")); err != nil {
		return req, errors.New("longitude must be a number")
	}

	req.Image, err = readImage(r)
	return req, err
}

// readImage reads the optional "image" file of a parsed multipart form
func readImage(r *http.Request) (*reports.Upload, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &reports.Upload{Filename: header.Filename, ContentType: contentType, Data: data}, nil
}

// optionalFloat parses a form value; empty means absent
func optionalFloat(v string) (*float64, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errors.New("not a number")
	}
	return &f, nil
}

func (s *Server) hotspotsHandler(w http.ResponseWriter, r *http.Request) {
	filter, ok := severityParam(r, "severity")
	if !ok {
		badRequest(w, "severity must be one of low, medium, high, critical")
		return
	}

	summary, err := s.reports.Hotspots(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) nearbyAlertsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, latErr := optionalFloat(q.Get("lat"))
	lng, lngErr := optionalFloat(q.Get("lng"))
	if latErr != nil || lngErr != nil || lat == nil || lng == nil {
		badRequest(w, "lat and lng are required numbers")
		return
	}

	var opts reports.NearbyOptions

	// Unparseable or non-positive radius and hours fall back to the defaults.
	if radius, err := strconv.ParseFloat(q.Get("radius"), 64); err == nil && radius > 0 {
		opts.RadiusKm = radius
	}
	if hours, err := strconv.ParseFloat(q.Get("hours"), 64); err == nil && hours > 0 {
		opts.WithinLast = time.Duration(hours * float64(time.Hour))
	}

	minSeverity, ok := severityParam(r, "min_severity")
	if !ok {
		badRequest(w, "min_severity must be one of low, medium, high, critical")
		return
	}
	opts.MinSeverity = minSeverity

	alerts, err := s.reports.Nearby(r.Context(), *lat, *lng, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nearbyResponse{Alerts: alerts})
}

// severityParam reads an optional canonical severity from the query string
func severityParam(r *http.Request, name string) (models.Severity, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" || strings.EqualFold(raw, "all") {
		return "", true
	}
	return reports.ParseSeverity(raw)
}

func (s *Server) reportStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.reports.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) listSightingsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := s.sightings.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) submitSightingHandler(w http.ResponseWriter, r *http.Request) {
	var (
		req sightings.SubmitRequest
		err error
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		req, err = parseMultipartSighting(r)
	} else {
		err = json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req)
	}
	if err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}

	created, err := s.sightings.Submit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func parseMultipartSighting(r *http.Request) (sightings.SubmitRequest, error) {
	var req sightings.SubmitRequest

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return req, err
	}

	req.SpeciesName = r.FormValue("species_name")
	req.Description = r.FormValue("description")
	req.Location = r.FormValue("location")

	var err error
	if req.Latitude, err = optionalFloat(r.FormValue("latitude")); err != nil {
		return req, errors.New("latitude must be a number")
	}
	if req.Longitude, err = optionalFloat(r.FormValue("longitude")); err != nil {
		return req, errors.New("longitude must be a number")
	}

	req.Image, err = readImage(r)
	return req, err
}

func (s *Server) listMissionsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := s.missions.Upcoming(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createMissionHandler(w http.ResponseWriter, r *http.Request) {
	var req missions.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}

	mission, err := s.missions.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mission)
}

func (s *Server) joinMissionHandler(w http.ResponseWriter, r *http.Request) {
	var req missions.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}

	participant, err := s.missions.Join(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, participant)
}

func (s *Server) triggerRemindersHandler(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.missions.SendReminders(ctx); err != nil {
			logrus.Errorf("Manual reminder trigger failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Mission reminders triggered successfully"})
}
