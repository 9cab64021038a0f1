package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goa-eco-guard/eco-guard/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists reports, sightings, missions and participants in SQLite
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements ReportStore, SightingStore and MissionStore
var (
	_ ReportStore   = (*SQLiteStore)(nil)
	_ SightingStore = (*SQLiteStore)(nil)
	_ MissionStore  = (*SQLiteStore)(nil)
)

const reportColumns = `id, location, latitude, longitude, description, severity, status, image, created_at, deleted_at`

// NewSQLiteStore opens the database at path (":memory:" works) and applies the schema
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// A single connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	logrus.Infof("Opened SQLite database at %s", path)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			location TEXT NOT NULL DEFAULT '',
			latitude REAL,
			longitude REAL,
			description TEXT NOT NULL,
			description_key TEXT NOT NULL,
			severity TEXT NOT NULL,
			status TEXT NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			deleted_at INTEGER
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_reports_live_unique
			ON reports(latitude, longitude, description_key) WHERE deleted_at IS NULL;
		CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);

		CREATE TABLE IF NOT EXISTS sightings (
			id TEXT PRIMARY KEY,
			species_name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sightings_created_at ON sightings(created_at);

		CREATE TABLE IF NOT EXISTS missions (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_missions_date ON missions(date);

		CREATE TABLE IF NOT EXISTS participants (
			id TEXT PRIMARY KEY,
			mission_id TEXT NOT NULL,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			UNIQUE (mission_id, email),
			FOREIGN KEY (mission_id) REFERENCES missions(id)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListActive returns every non-deleted report, newest first
func (s *SQLiteStore) ListActive(ctx context.Context) ([]models.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE deleted_at IS NULL ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return scanReports(rows)
}

// FindAtCoordinates returns non-deleted reports at exactly lat/lng
func (s *SQLiteStore) FindAtCoordinates(ctx context.Context, lat, lng float64) ([]models.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports
		 WHERE deleted_at IS NULL AND latitude = ? AND longitude = ?
		 ORDER BY created_at DESC, rowid DESC`, lat, lng)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports at %v,%v: %w", lat, lng, err)
	}
	return scanReports(rows)
}

// Insert persists report, assigning ID, CreatedAt and Status when unset
func (s *SQLiteStore) Insert(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	if report.Status == "" {
		report.Status = models.StatusPending
	}

	var deletedAt sql.NullInt64
	if report.DeletedAt != nil {
		deletedAt = sql.NullInt64{Int64: report.DeletedAt.UnixNano(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, location, latitude, longitude, description, description_key,
			severity, status, image, created_at, deleted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.Location,
		nullFloat(report.Latitude),
		nullFloat(report.Longitude),
		report.Description,
		descriptionKey(report.Description),
		string(report.Severity),
		string(report.Status),
		report.Image,
		report.CreatedAt.UnixNano(),
		deletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

// SoftDelete marks a report deleted; deleting twice is ErrNotFound
func (s *SQLiteStore) SoftDelete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats counts non-deleted reports by status
func (s *SQLiteStore) Stats(ctx context.Context) (models.ReportStats, error) {
	var stats models.ReportStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0)
		FROM reports WHERE deleted_at IS NULL`,
	).Scan(&stats.Total, &stats.Approved, &stats.Pending, &stats.Rejected)
	if err != nil {
		return models.ReportStats{}, fmt.Errorf("failed to compute report stats: %w", err)
	}
	return stats, nil
}

// InsertSighting persists a sighting, assigning ID and CreatedAt when unset
func (s *SQLiteStore) InsertSighting(ctx context.Context, sighting *models.Sighting) error {
	if sighting.ID == "" {
		sighting.ID = uuid.NewString()
	}
	if sighting.CreatedAt.IsZero() {
		sighting.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sightings (id, species_name, description, location, latitude, longitude, image, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sighting.ID, sighting.SpeciesName, sighting.Description, sighting.Location,
		sighting.Latitude, sighting.Longitude, sighting.Image, sighting.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert sighting: %w", err)
	}
	return nil
}

// ListSightings returns every sighting, newest first
func (s *SQLiteStore) ListSightings(ctx context.Context) ([]models.Sighting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, species_name, description, location, latitude, longitude, image, created_at
		 FROM sightings ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sightings: %w", err)
	}
	defer rows.Close()

	sightings := make([]models.Sighting, 0)
	for rows.Next() {
		var (
			sg        models.Sighting
			createdAt int64
		)
		if err := rows.Scan(&sg.ID, &sg.SpeciesName, &sg.Description, &sg.Location,
			&sg.Latitude, &sg.Longitude, &sg.Image, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan sighting: %w", err)
		}
		sg.CreatedAt = time.Unix(0, createdAt).UTC()
		sightings = append(sightings, sg)
	}
	return sightings, rows.Err()
}

// CreateMission persists a mission, assigning an ID when unset
func (s *SQLiteStore) CreateMission(ctx context.Context, mission *models.Mission) error {
	if mission.ID == "" {
		mission.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO missions (id, title, description, location, date) VALUES (?, ?, ?, ?, ?)`,
		mission.ID, mission.Title, mission.Description, mission.Location, mission.Date)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert mission: %w", err)
	}
	return nil
}

// GetMission looks a mission up by id
func (s *SQLiteStore) GetMission(ctx context.Context, id string) (*models.Mission, error) {
	var m models.Mission
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, location, date FROM missions WHERE id = ?`, id,
	).Scan(&m.ID, &m.Title, &m.Description, &m.Location, &m.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mission %s: %w", id, err)
	}
	return &m, nil
}

// MissionsBetween returns missions dated from..to inclusive, soonest first
func (s *SQLiteStore) MissionsBetween(ctx context.Context, from, to string) ([]models.Mission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, location, date FROM missions
		 WHERE date >= ? AND date <= ? ORDER BY date ASC, title ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	defer rows.Close()

	missions := make([]models.Mission, 0)
	for rows.Next() {
		var m models.Mission
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Location, &m.Date); err != nil {
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}
		missions = append(missions, m)
	}
	return missions, rows.Err()
}

// RegisterParticipant adds a participant; a repeated email for the same mission is ErrDuplicate
func (s *SQLiteStore) RegisterParticipant(ctx context.Context, p *models.Participant) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO participants (id, mission_id, name, email, phone, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.MissionID, p.Name, strings.ToLower(p.Email), p.Phone, p.CreatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to register participant: %w", err)
	}
	return nil
}

// Participants lists a mission's participants in registration order
func (s *SQLiteStore) Participants(ctx context.Context, missionID string) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mission_id, name, email, phone, created_at FROM participants
		 WHERE mission_id = ? ORDER BY created_at ASC, rowid ASC`, missionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.MissionID, &p.Name, &p.Email, &p.Phone, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.CreatedAt = time.Unix(0, createdAt).UTC()
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func scanReports(rows *sql.Rows) ([]models.Report, error) {
	defer rows.Close()

	reports := make([]models.Report, 0)
	for rows.Next() {
		var (
			r         models.Report
			lat, lng  sql.NullFloat64
			severity  string
			status    string
			createdAt int64
			deletedAt sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Location, &lat, &lng, &r.Description, &severity, &status,
			&r.Image, &createdAt, &deletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		if lat.Valid {
			r.Latitude = &lat.Float64
		}
		if lng.Valid {
			r.Longitude = &lng.Float64
		}
		r.Severity = models.Severity(severity)
		r.Status = models.ReportStatus(status)
		r.CreatedAt = time.Unix(0, createdAt).UTC()
		if deletedAt.Valid {
			t := time.Unix(0, deletedAt.Int64).UTC()
			r.DeletedAt = &t
		}

		reports = append(reports, r)
	}

	return reports, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func descriptionKey(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
