package reports

import (
	"strings"

	"github.com/goa-eco-guard/eco-guard/internal/models"
)

// NormalizeDescription is the comparison form used for duplicate matching.
func NormalizeDescription(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}

// IsDuplicate reports whether candidate repeats a non-deleted report in
// existing at exactly the same coordinates with the same normalized
// description.
func IsDuplicate(candidate models.Report, existing []models.Report) bool {
	_, found := FindDuplicate(candidate, existing)
	return found
}

// FindDuplicate is IsDuplicate returning the matched report.
// Blank descriptions normalize to "" and therefore match each other.
func FindDuplicate(candidate models.Report, existing []models.Report) (models.Report, bool) {
	if !candidate.HasCoordinates() {
		return models.Report{}, false
	}

	want := NormalizeDescription(candidate.Description)

	for _, report := range existing {
		if report.IsDeleted() || !report.HasCoordinates() {
			continue
		}
		if *report.Latitude != *candidate.Latitude || *report.Longitude != *candidate.Longitude {
			continue
		}
		if NormalizeDescription(report.Description) == want {
			return report, true
		}
	}

	return models.Report{}, false
}
