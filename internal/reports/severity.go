package reports

import (
	"strings"

	"github.com/goa-eco-guard/eco-guard/internal/models"
)

// severityKeywords is checked in order; the first level with a matching
// substring wins.
var severityKeywords = []struct {
	level    models.Severity
	keywords []string
}{
	{models.SeverityCritical, []string{"critical", "emergency"}},
	{models.SeverityHigh, []string{"high", "severe"}},
	{models.SeverityMedium, []string{"medium", "moderate"}},
}

// NormalizeSeverity maps free-text severity input onto one of the four
// canonical levels. Unrecognized or empty input is low.
func NormalizeSeverity(raw string) models.Severity {
	text := strings.ToLower(raw)

	for _, group := range severityKeywords {
		for _, keyword := range group.keywords {
			if strings.Contains(text, keyword) {
				return group.level
			}
		}
	}

	return models.SeverityLow
}

// SeverityRank orders severities: critical 4, high 3, medium 2, low 1 and
// anything unrecognized 0.
func SeverityRank(s models.Severity) int {
	switch models.Severity(strings.ToLower(string(s))) {
	case models.SeverityCritical:
		return 4
	case models.SeverityHigh:
		return 3
	case models.SeverityMedium:
		return 2
	case models.SeverityLow:
		return 1
	default:
		return 0
	}
}

// ParseSeverity accepts only a canonical level name, case-insensitively.
func ParseSeverity(s string) (models.Severity, bool) {
	level := models.Severity(strings.ToLower(strings.TrimSpace(s)))
	if SeverityRank(level) == 0 {
		return "", false
	}
	return level, true
}
