package sightings

import (
	"context"
	"fmt"
	"strings"

	"github.com/goa-eco-guard/eco-guard/internal/models"
	"github.com/goa-eco-guard/eco-guard/internal/reports"
	"github.com/goa-eco-guard/eco-guard/internal/storage"
	"github.com/goa-eco-guard/eco-guard/internal/validation"
	"github.com/sirupsen/logrus"
)

const imageFolder = "sightings"

// Service records wildlife sightings for the biodiversity map layer
type Service struct {
	store storage.SightingStore
	media storage.MediaStore
}

// SubmitRequest is a sighting as received from a client
type SubmitRequest struct {
	SpeciesName string          `json:"species_name" validate:"notblank,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Location    string          `json:"location" validate:"max=200"`
	Latitude    *float64        `json:"latitude" validate:"required,lat"`
	Longitude   *float64        `json:"longitude" validate:"required,lng"`
	Image       *reports.Upload `json:"-"`
}

// NewService creates a new sighting service. media may be nil.
func NewService(store storage.SightingStore, media storage.MediaStore) *Service {
	return &Service{
		store: store,
		media: media,
	}
}

// Submit validates and stores a sighting. A failed image upload is logged
// and the sighting is kept without a photo.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.Sighting, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", reports.ErrInvalidInput, validation.Describe(err))
	}

	sighting := &models.Sighting{
		SpeciesName: strings.TrimSpace(req.SpeciesName),
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
	}

	if req.Image != nil && len(req.Image.Data) > 0 {
		sighting.Image = s.uploadImage(ctx, req.Image)
	}

	if err := s.store.InsertSighting(ctx, sighting); err != nil {
		if sighting.Image != "" {
			if derr := s.media.Delete(ctx, sighting.Image); derr != nil {
				logrus.Warnf("Failed to remove image of unsaved sighting: %v", derr)
			}
		}
		logrus.Errorf("Sighting store failed to save: %v", err)
		return nil, fmt.Errorf("%w: save sighting: %v", reports.ErrStoreUnavailable, err)
	}

	logrus.WithFields(logrus.Fields{
		"id":      sighting.ID,
		"species": sighting.SpeciesName,
	}).Info("Recorded sighting")
	return sighting, nil
}

func (s *Service) uploadImage(ctx context.Context, img *reports.Upload) string {
	if s.media == nil {
		logrus.Warn("Image attached but no media store is configured; saving sighting without image")
		return ""
	}

	url, err := s.media.Upload(ctx, imageFolder, img.Filename, img.Data, img.ContentType)
	if err != nil {
		logrus.Errorf("Image upload failed, saving sighting without image: %v", err)
		return ""
	}
	return url
}

// List returns every sighting, newest first
func (s *Service) List(ctx context.Context) ([]models.Sighting, error) {
	sightings, err := s.store.ListSightings(ctx)
	if err != nil {
		logrus.Errorf("Sighting store failed to list: %v", err)
		return nil, fmt.Errorf("%w: list sightings: %v", reports.ErrStoreUnavailable, err)
	}
	return sightings, nil
}
