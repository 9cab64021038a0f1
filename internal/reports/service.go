package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goa-eco-guard/eco-guard/internal/config"
	"github.com/goa-eco-guard/eco-guard/internal/models"
	"github.com/goa-eco-guard/eco-guard/internal/notifications"
	"github.com/goa-eco-guard/eco-guard/internal/storage"
	"github.com/goa-eco-guard/eco-guard/internal/validation"
	"github.com/sirupsen/logrus"
)

const imageFolder = "reports"

// Service accepts report submissions and serves the derived hotspot and
// proximity views over the active report list
type Service struct {
	config              *config.Config
	store               storage.ReportStore
	media               storage.MediaStore
	notificationService notifications.NotificationInterface
	metrics             *Metrics
	mu                  sync.RWMutex
}

// Metrics holds report service counters
type Metrics struct {
	ReportsSubmitted    int       `json:"reports_submitted"`
	DuplicatesRejected  int       `json:"duplicates_rejected"`
	InvalidRejected     int       `json:"invalid_rejected"`
	AlertsRaised        int       `json:"alerts_raised"`
	ImageUploadFailures int       `json:"image_upload_failures"`
	StoreErrors         int       `json:"store_errors"`
	LastSubmission      time.Time `json:"last_submission"`
}

// SubmitRequest is a candidate report as received from a client
type SubmitRequest struct {
	Location    string   `json:"location" validate:"max=200"`
	Latitude    *float64 `json:"latitude" validate:"required,lat"`
	Longitude   *float64 `json:"longitude" validate:"required,lng"`
	Description string   `json:"description" validate:"notblank,max=2000"`
	Severity    string   `json:"severity"`
	Image       *Upload  `json:"-"`
}

// Upload is an image attached to a submission
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// HotspotSummary is the hotspot view served to map and card renderers
type HotspotSummary struct {
	Hotspots     map[string]*models.Hotspot `json:"hotspots"`
	Ranked       []*models.Hotspot          `json:"ranked"`
	TotalReports int                        `json:"total_reports"`
	Locations    int                        `json:"locations"`
}

// NewService creates a new report service. media and notificationService may be nil.
func NewService(cfg *config.Config, store storage.ReportStore, media storage.MediaStore, notificationService notifications.NotificationInterface) *Service {
	return &Service{
		config:              cfg,
		store:               store,
		media:               media,
		notificationService: notificationService,
		metrics:             &Metrics{},
	}
}

// Submit validates a candidate, rejects duplicates and persists it
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.Report, error) {
	if err := validation.ValidateStruct(req); err != nil {
		s.count(func(m *Metrics) { m.InvalidRejected++ })
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Describe(err))
	}

	candidate := models.Report{
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Description: req.Description,
		Severity:    NormalizeSeverity(req.Severity),
		Status:      models.StatusPending,
	}

	existing, err := s.store.FindAtCoordinates(ctx, *candidate.Latitude, *candidate.Longitude)
	if err != nil {
		return nil, s.storeError("check for duplicates", err)
	}

	if dup, found := FindDuplicate(candidate, existing); found {
		s.count(func(m *Metrics) { m.DuplicatesRejected++ })
		logrus.WithField("existing_id", dup.ID).Info("Rejected duplicate report")
		return nil, &DuplicateError{ExistingID: dup.ID}
	}

	if req.Image != nil && len(req.Image.Data) > 0 {
		candidate.Image = s.uploadImage(ctx, req.Image)
	}

	if err := s.store.Insert(ctx, &candidate); err != nil {
		s.discardImage(ctx, candidate.Image)
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, s.lostRace(ctx, candidate)
		}
		return nil, s.storeError("save report", err)
	}

	s.count(func(m *Metrics) {
		m.ReportsSubmitted++
		m.LastSubmission = time.Now()
	})

	logrus.WithFields(logrus.Fields{
		"id":       candidate.ID,
		"severity": candidate.Severity,
		"location": candidate.Location,
	}).Info("Accepted report")

	if candidate.Severity == models.SeverityCritical {
		s.raiseAlert(&candidate)
	}

	return &candidate, nil
}

// lostRace resolves a store-level uniqueness violation into a DuplicateError
// carrying the id of the report that won.
func (s *Service) lostRace(ctx context.Context, candidate models.Report) error {
	s.count(func(m *Metrics) { m.DuplicatesRejected++ })

	existing, err := s.store.FindAtCoordinates(ctx, *candidate.Latitude, *candidate.Longitude)
	if err != nil {
		return s.storeError("resolve duplicate", err)
	}
	dup, found := FindDuplicate(candidate, existing)
	if !found {
		return s.storeError("resolve duplicate", errors.New("conflicting report is no longer present"))
	}
	return &DuplicateError{ExistingID: dup.ID}
}

func (s *Service) uploadImage(ctx context.Context, img *Upload) string {
	if s.media == nil {
		logrus.Warn("Image attached but no media store is configured; saving report without image")
		return ""
	}

	url, err := s.media.Upload(ctx, imageFolder, img.Filename, img.Data, img.ContentType)
	if err != nil {
		s.count(func(m *Metrics) { m.ImageUploadFailures++ })
		logrus.Errorf("Image upload failed, saving report without image: %v", err)
		return ""
	}
	return url
}

func (s *Service) discardImage(ctx context.Context, url string) {
	if url == "" || s.media == nil {
		return
	}
	if err := s.media.Delete(ctx, url); err != nil {
		logrus.Warnf("Failed to remove image of rejected report: %v", err)
	}
}

func (s *Service) raiseAlert(report *models.Report) {
	if s.notificationService == nil {
		return
	}

	label := report.Location
	if label == "" {
		label = UnknownLocation
	}

	alert := &models.Alert{
		ID:        report.ID,
		Type:      "critical",
		Title:     fmt.Sprintf("Critical report at %s", label),
		Message:   report.Description,
		Report:    report,
		CreatedAt: time.Now(),
	}

	if err := s.notificationService.SendAlert(alert); err != nil {
		logrus.Errorf("Failed to send critical report alert: %v", err)
		return
	}
	s.count(func(m *Metrics) { m.AlertsRaised++ })
}

// ListActive returns every non-deleted report, newest first
func (s *Service) ListActive(ctx context.Context) ([]models.Report, error) {
	reports, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, s.storeError("list reports", err)
	}
	return reports, nil
}

// Hotspots aggregates the active list; filter limits Ranked to one severity
func (s *Service) Hotspots(ctx context.Context, filter models.Severity) (*HotspotSummary, error) {
	reports, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	hotspots := Aggregate(reports)
	return &HotspotSummary{
		Hotspots:     hotspots,
		Ranked:       Ranked(hotspots, filter),
		TotalReports: len(reports),
		Locations:    len(hotspots),
	}, nil
}

// Nearby runs FindNearby over the active list. Unset radius and window fall
// back to the configured alert defaults.
func (s *Service) Nearby(ctx context.Context, lat, lng float64, opts NearbyOptions) ([]models.NearbyReport, error) {
	reports, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if opts.RadiusKm <= 0 {
		opts.RadiusKm = s.config.AlertRadiusKm
	}
	if opts.WithinLast <= 0 {
		opts.WithinLast = s.config.AlertWindow
	}

	return FindNearby(lat, lng, reports, opts), nil
}

// Stats counts non-deleted reports by moderation status
func (s *Service) Stats(ctx context.Context) (models.ReportStats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return models.ReportStats{}, s.storeError("compute stats", err)
	}
	return stats, nil
}

// Remove soft-deletes a report
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return s.storeError("delete report", err)
	}
	logrus.WithField("id", id).Info("Soft-deleted report")
	return nil
}

func (s *Service) storeError(op string, err error) error {
	s.count(func(m *Metrics) { m.StoreErrors++ })
	logrus.Errorf("Report store failed to %s: %v", op, err)
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

func (s *Service) count(update func(m *Metrics)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(s.metrics)
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}
