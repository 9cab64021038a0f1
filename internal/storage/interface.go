package storage

import (
	"context"
	"errors"

	"github.com/goa-eco-guard/eco-guard/internal/models"
)

var (
	// ErrDuplicate is returned when a write violates a uniqueness constraint
	ErrDuplicate = errors.New("record already exists")
	// ErrNotFound is returned when a lookup by id matches nothing
	ErrNotFound = errors.New("record not found")
)

// ReportStore defines the contract for report persistence
type ReportStore interface {
	// ListActive returns every non-deleted report, newest first
	ListActive(ctx context.Context) ([]models.Report, error)
	// FindAtCoordinates returns non-deleted reports at exactly lat/lng
	FindAtCoordinates(ctx context.Context, lat, lng float64) ([]models.Report, error)
	// Insert assigns ID and CreatedAt when unset and persists the report
	Insert(ctx context.Context, report *models.Report) error
	SoftDelete(ctx context.Context, id string) error
	Stats(ctx context.Context) (models.ReportStats, error)
}

// MissionStore defines the contract for mission and participant persistence
type MissionStore interface {
	CreateMission(ctx context.Context, mission *models.Mission) error
	GetMission(ctx context.Context, id string) (*models.Mission, error)
	// MissionsBetween returns missions dated from..to inclusive (DateLayout), soonest first
	MissionsBetween(ctx context.Context, from, to string) ([]models.Mission, error)
	RegisterParticipant(ctx context.Context, participant *models.Participant) error
	Participants(ctx context.Context, missionID string) ([]models.Participant, error)
}

// SightingStore defines the contract for wildlife sighting persistence
type SightingStore interface {
	// InsertSighting assigns ID and CreatedAt when unset and persists the sighting
	InsertSighting(ctx context.Context, sighting *models.Sighting) error
	// ListSightings returns every sighting, newest first
	ListSightings(ctx context.Context) ([]models.Sighting, error)
}

// MediaStore stores uploaded bytes and hands back a public URL
type MediaStore interface {
	Upload(ctx context.Context, folder, filename string, data []byte, contentType string) (string, error)
	// Delete removes an object previously returned by Upload
	Delete(ctx context.Context, url string) error
}
