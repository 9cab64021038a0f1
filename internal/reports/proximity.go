package reports

import (
	"sort"
	"time"

	"github.com/goa-eco-guard/eco-guard/internal/geo"
	"github.com/goa-eco-guard/eco-guard/internal/models"
)

const (
	DefaultRadiusKm   = 5.0
	DefaultWithinLast = 24 * time.Hour
)

// NearbyOptions tunes FindNearby. Zero values select the defaults.
type NearbyOptions struct {
	RadiusKm   float64
	WithinLast time.Duration
	Now        time.Time

	// MinSeverity, when set, also drops reports ranked below it.
	// Unset means time and distance are the only gates.
	MinSeverity models.Severity
}

func (o NearbyOptions) withDefaults() NearbyOptions {
	if o.RadiusKm <= 0 {
		o.RadiusKm = DefaultRadiusKm
	}
	if o.WithinLast <= 0 {
		o.WithinLast = DefaultWithinLast
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// FindNearby returns the recent, live reports within the radius of the
// user's position, nearest first.
func FindNearby(userLat, userLng float64, reports []models.Report, opts NearbyOptions) []models.NearbyReport {
	opts = opts.withDefaults()
	cutoff := opts.Now.Add(-opts.WithinLast)
	minRank := 0
	if opts.MinSeverity != "" {
		minRank = SeverityRank(opts.MinSeverity)
	}

	nearby := make([]models.NearbyReport, 0)
	for _, report := range reports {
		if report.CreatedAt.Before(cutoff) {
			continue
		}
		if !report.HasCoordinates() {
			continue
		}
		if report.IsDeleted() {
			continue
		}
		if minRank > 0 && SeverityRank(report.Severity) < minRank {
			continue
		}

		dist := geo.DistanceKm(userLat, userLng, *report.Latitude, *report.Longitude)
		if dist <= opts.RadiusKm {
			nearby = append(nearby, models.NearbyReport{Report: report, DistanceKm: dist})
		}
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	return nearby
}
