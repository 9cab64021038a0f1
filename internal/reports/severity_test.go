package reports

import (
	"testing"

	"github.com/goa-eco-guard/eco-guard/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeSeverity(t *testing.T) {
	tests := []struct {
		input    string
		expected models.Severity
	}{
		{"Emergency spill", models.SeverityCritical},
		{"CRITICAL", models.SeverityCritical},
		{"severe flooding", models.SeverityHigh},
		{"High", models.SeverityHigh},
		{"moderate littering", models.SeverityMedium},
		{"medium", models.SeverityMedium},
		{"low", models.SeverityLow},
		{"just some trash", models.SeverityLow},
		{"", models.SeverityLow},
		// Earlier groups win when several keywords appear.
		{"moderate but an emergency", models.SeverityCritical},
		{"highly moderate", models.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSeverity(tt.input))
		})
	}
}

func TestSeverityRank(t *testing.T) {
	assert.Equal(t, 4, SeverityRank(models.SeverityCritical))
	assert.Equal(t, 3, SeverityRank(models.SeverityHigh))
	assert.Equal(t, 2, SeverityRank(models.SeverityMedium))
	assert.Equal(t, 1, SeverityRank(models.SeverityLow))
	assert.Equal(t, 4, SeverityRank("Critical"))
	assert.Equal(t, 0, SeverityRank("unknown"))
	assert.Equal(t, 0, SeverityRank(""))
}

func TestParseSeverity(t *testing.T) {
	level, ok := ParseSeverity(" High ")
	assert.True(t, ok)
	assert.Equal(t, models.SeverityHigh, level)

	_, ok = ParseSeverity("emergency")
	assert.False(t, ok)

	_, ok = ParseSeverity("")
	assert.False(t, ok)
}
