package reports

import (
	"testing"
	"time"

	"github.com/goa-eco-guard/eco-guard/internal/models"
	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 {
	return &v
}

func report(id string, lat, lng float64, description string) models.Report {
	return models.Report{
		ID:          id,
		Latitude:    ptr(lat),
		Longitude:   ptr(lng),
		Description: description,
		Severity:    models.SeverityLow,
	}
}

func TestIsDuplicate(t *testing.T) {
	existing := []models.Report{report("r1", 15.5, 73.8, "Plastic waste on beach")}

	tests := []struct {
		name      string
		candidate models.Report
		expected  bool
	}{
		{
			name:      "Same text after trimming and lower-casing",
			candidate: report("", 15.5, 73.8, "  PLASTIC WASTE ON BEACH  "),
			expected:  true,
		},
		{
			name:      "Different description at same coordinates",
			candidate: report("", 15.5, 73.8, "Plastic waste on beach, also oil"),
			expected:  false,
		},
		{
			name:      "Same description at slightly different latitude",
			candidate: report("", 15.50001, 73.8, "Plastic waste on beach"),
			expected:  false,
		},
		{
			name:      "Same description at different longitude",
			candidate: report("", 15.5, 73.80001, "Plastic waste on beach"),
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDuplicate(tt.candidate, existing))
		})
	}
}

func TestFindDuplicate_ReturnsExistingReport(t *testing.T) {
	existing := []models.Report{
		report("r1", 15.5, 73.8, "Oil sheen"),
		report("r2", 15.5, 73.8, "Plastic waste on beach"),
	}

	dup, found := FindDuplicate(report("", 15.5, 73.8, "plastic waste on beach"), existing)
	assert.True(t, found)
	assert.Equal(t, "r2", dup.ID)
}

func TestIsDuplicate_IgnoresDeletedReports(t *testing.T) {
	deleted := report("r1", 15.5, 73.8, "Plastic waste on beach")
	now := time.Now()
	deleted.DeletedAt = &now

	assert.False(t, IsDuplicate(report("", 15.5, 73.8, "Plastic waste on beach"), []models.Report{deleted}))
}

func TestIsDuplicate_MissingCoordinates(t *testing.T) {
	noCoords := models.Report{ID: "r1", Description: "Plastic waste on beach"}
	candidate := report("", 15.5, 73.8, "Plastic waste on beach")

	assert.False(t, IsDuplicate(candidate, []models.Report{noCoords}))
	assert.False(t, IsDuplicate(models.Report{Description: "Plastic waste on beach"}, []models.Report{candidate}))
}

func TestIsDuplicate_BlankDescriptionsMatch(t *testing.T) {
	existing := []models.Report{report("r1", 15.5, 73.8, "")}

	assert.True(t, IsDuplicate(report("", 15.5, 73.8, "   "), existing))
	assert.True(t, IsDuplicate(report("", 15.5, 73.8, "\t\n"), existing))
}

func TestIsDuplicate_EmptyExisting(t *testing.T) {
	assert.False(t, IsDuplicate(report("", 15.5, 73.8, "anything"), nil))
}
