package models

import "time"

// Severity is the normalized urgency level of a report
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ReportStatus is the moderation state of a report
type ReportStatus string

const (
	StatusPending  ReportStatus = "pending"
	StatusApproved ReportStatus = "approved"
	StatusRejected ReportStatus = "rejected"
)

// DateLayout is the calendar-day format used for mission dates
const DateLayout = "2006-01-02"

// Report represents a citizen-submitted environmental report
type Report struct {
	ID          string       `json:"id"`
	Location    string       `json:"location"`
	Latitude    *float64     `json:"latitude"`  // nil when the stored row has no coordinate
	Longitude   *float64     `json:"longitude"` // nil when the stored row has no coordinate
	Description string       `json:"description"`
	Severity    Severity     `json:"severity"`
	Status      ReportStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	DeletedAt   *time.Time   `json:"deleted_at,omitempty"`
	Image       string       `json:"image,omitempty"` // public URL
}

// HasCoordinates reports whether both latitude and longitude are present
func (r Report) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// IsDeleted reports whether the report has been soft-deleted
func (r Report) IsDeleted() bool {
	return r.DeletedAt != nil
}

// Sighting is a citizen record of wildlife seen at a point
type Sighting struct {
	ID          string    `json:"id"`
	SpeciesName string    `json:"species_name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Image       string    `json:"image,omitempty"` // public URL
	CreatedAt   time.Time `json:"created_at"`
}

// Hotspot groups every report filed at one exact coordinate pair
type Hotspot struct {
	Location  string   `json:"location"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Severity  Severity `json:"severity"`
	Reports   []Report `json:"reports"`
	Count     int      `json:"count"`
}

// NearbyReport is a report annotated with its distance from a query point
type NearbyReport struct {
	Report
	DistanceKm float64 `json:"distance_km"`
}

// ReportStats summarizes non-deleted reports by moderation status
type ReportStats struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

// Mission represents a scheduled community cleanup
type Mission struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"` // DateLayout
}

// Participant is a volunteer registered for a mission
type Participant struct {
	ID        string    `json:"id"`
	MissionID string    `json:"mission_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// Reminder is a single mission reminder addressed to one participant
type Reminder struct {
	Mission     Mission     `json:"mission"`
	Participant Participant `json:"participant"`
	DaysLeft    int         `json:"days_left"`
	Urgency     string      `json:"urgency"` // "TODAY!", "Tomorrow!", "In N days"
}

// Alert represents an urgent moderator notification
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "critical", "urgent", "info"
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Report    *Report   `json:"report,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
