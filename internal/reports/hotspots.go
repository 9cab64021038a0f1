package reports

import (
	"sort"
	"strconv"

	"github.com/goa-eco-guard/eco-guard/internal/models"
)

// UnknownLocation labels a hotspot whose first report had no location text
const UnknownLocation = "Unknown Location"

// CoordinateKey joins the exact coordinate values as "{lat},{lng}".
// Negative zero is written as "0".
func CoordinateKey(lat, lng float64) string {
	if lat == 0 {
		lat = 0
	}
	if lng == 0 {
		lng = 0
	}
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}

// Aggregate groups reports by exact coordinates in a single pass.
//
// The first report seen for a key sets the hotspot's label and coordinates;
// severity is raised to the highest rank among its members. Member order
// follows the input, so callers pass reports newest-first. Reports without
// coordinates and soft-deleted reports are skipped.
func Aggregate(reports []models.Report) map[string]*models.Hotspot {
	hotspots := make(map[string]*models.Hotspot)

	for _, report := range reports {
		if !report.HasCoordinates() || report.IsDeleted() {
			continue
		}

		key := CoordinateKey(*report.Latitude, *report.Longitude)
		hotspot, ok := hotspots[key]
		if !ok {
			label := report.Location
			if label == "" {
				label = UnknownLocation
			}
			hotspot = &models.Hotspot{
				Location:  label,
				Latitude:  *report.Latitude,
				Longitude: *report.Longitude,
				Severity:  report.Severity,
			}
			hotspots[key] = hotspot
		}

		hotspot.Reports = append(hotspot.Reports, report)
		hotspot.Count++

		if SeverityRank(report.Severity) > SeverityRank(hotspot.Severity) {
			hotspot.Severity = report.Severity
		}
	}

	return hotspots
}

// Flatten returns every member report of hotspots as one list, ordered by
// key and then by member order.
func Flatten(hotspots map[string]*models.Hotspot) []models.Report {
	keys := sortedKeys(hotspots)

	var reports []models.Report
	for _, key := range keys {
		reports = append(reports, hotspots[key].Reports...)
	}
	return reports
}

// Ranked orders hotspots for card display: most reports first, ties by key.
// A non-empty filter keeps only hotspots at exactly that severity.
func Ranked(hotspots map[string]*models.Hotspot, filter models.Severity) []*models.Hotspot {
	keys := sortedKeys(hotspots)

	ranked := make([]*models.Hotspot, 0, len(keys))
	for _, key := range keys {
		hotspot := hotspots[key]
		if filter != "" && hotspot.Severity != filter {
			continue
		}
		ranked = append(ranked, hotspot)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	return ranked
}

func sortedKeys(hotspots map[string]*models.Hotspot) []string {
	keys := make([]string, 0, len(hotspots))
	for key := range hotspots {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
