package reports

import (
	"math"
	"testing"
	"time"

	"github.com/goa-eco-guard/eco-guard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSeverity(r models.Report, s models.Severity) models.Report {
	r.Severity = s
	return r
}

func withLocation(r models.Report, label string) models.Report {
	r.Location = label
	return r
}

func TestCoordinateKey(t *testing.T) {
	assert.Equal(t, "1,1", CoordinateKey(1, 1))
	assert.Equal(t, "15.5,73.8", CoordinateKey(15.5, 73.8))
	assert.Equal(t, "-15.4909,-73.8278", CoordinateKey(-15.4909, -73.8278))
	assert.NotEqual(t, CoordinateKey(15.5, 73.8), CoordinateKey(15.50001, 73.8))
}

func TestCoordinateKey_NegativeZero(t *testing.T) {
	negZero := math.Copysign(0, -1)

	assert.Equal(t, "0,73.8", CoordinateKey(negZero, 73.8))
	assert.Equal(t, "15.5,0", CoordinateKey(15.5, negZero))

	a := report("a", negZero, 73.8, "Tar balls")
	b := report("b", 0, 73.8, "tar balls")
	assert.True(t, IsDuplicate(a, []models.Report{b}))

	hotspots := Aggregate([]models.Report{a, report("c", 0, 73.8, "Other")})
	require.Len(t, hotspots, 1)
	assert.Equal(t, 2, hotspots["0,73.8"].Count)
}

func TestAggregate(t *testing.T) {
	reports := []models.Report{
		withSeverity(report("a", 1, 1, "first"), models.SeverityLow),
		withSeverity(report("b", 1, 1, "second"), models.SeverityCritical),
		withSeverity(report("c", 2, 2, "third"), models.SeverityMedium),
	}

	hotspots := Aggregate(reports)
	require.Len(t, hotspots, 2)

	require.Contains(t, hotspots, "1,1")
	assert.Equal(t, 2, hotspots["1,1"].Count)
	assert.Equal(t, models.SeverityCritical, hotspots["1,1"].Severity)

	require.Contains(t, hotspots, "2,2")
	assert.Equal(t, 1, hotspots["2,2"].Count)
	assert.Equal(t, models.SeverityMedium, hotspots["2,2"].Severity)
}

func TestAggregate_SeverityNeverDowngrades(t *testing.T) {
	reports := []models.Report{
		withSeverity(report("a", 1, 1, "x"), models.SeverityHigh),
		withSeverity(report("b", 1, 1, "y"), models.SeverityLow),
		withSeverity(report("c", 1, 1, "z"), models.SeverityMedium),
	}

	assert.Equal(t, models.SeverityHigh, Aggregate(reports)["1,1"].Severity)
}

func TestAggregate_FirstLabelWinsAndOrderIsKept(t *testing.T) {
	reports := []models.Report{
		withLocation(report("newest", 15.5, 73.8, "x"), "Calangute Beach"),
		withLocation(report("middle", 15.5, 73.8, "y"), "Calangute"),
		withLocation(report("oldest", 15.5, 73.8, "z"), "Near the shacks"),
	}

	hotspot := Aggregate(reports)["15.5,73.8"]
	require.NotNil(t, hotspot)
	assert.Equal(t, "Calangute Beach", hotspot.Location)
	assert.Equal(t, 15.5, hotspot.Latitude)
	assert.Equal(t, 73.8, hotspot.Longitude)

	ids := make([]string, 0, len(hotspot.Reports))
	for _, r := range hotspot.Reports {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"newest", "middle", "oldest"}, ids)
}

func TestAggregate_UnknownLocationLabel(t *testing.T) {
	hotspot := Aggregate([]models.Report{report("a", 1, 1, "x")})["1,1"]
	require.NotNil(t, hotspot)
	assert.Equal(t, UnknownLocation, hotspot.Location)
}

func TestAggregate_SkipsMalformedAndDeleted(t *testing.T) {
	deleted := report("deleted", 3, 3, "x")
	now := time.Now()
	deleted.DeletedAt = &now

	reports := []models.Report{
		report("ok", 1, 1, "x"),
		{ID: "no-lat", Longitude: ptr(1), Description: "x"},
		{ID: "no-coords", Description: "x"},
		deleted,
	}

	hotspots := Aggregate(reports)
	assert.Len(t, hotspots, 1)
	assert.Contains(t, hotspots, "1,1")
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
	assert.Empty(t, Aggregate([]models.Report{}))
}

func TestAggregate_IdempotentOverFlatten(t *testing.T) {
	reports := []models.Report{
		withSeverity(report("a", 1, 1, "a"), models.SeverityLow),
		withSeverity(report("b", 2, 2, "b"), models.SeverityHigh),
		withSeverity(report("c", 1, 1, "c"), models.SeverityMedium),
		withSeverity(report("d", 3, 3, "d"), models.SeverityCritical),
		withSeverity(report("e", 2, 2, "e"), models.SeverityLow),
	}

	first := Aggregate(reports)
	second := Aggregate(Flatten(first))

	require.Len(t, second, len(first))
	for key, hotspot := range first {
		require.Contains(t, second, key)
		assert.Equal(t, hotspot.Count, second[key].Count, key)
		assert.Equal(t, hotspot.Severity, second[key].Severity, key)
	}
	assert.Len(t, Flatten(first), len(reports))
}

func TestRanked(t *testing.T) {
	reports := []models.Report{
		withSeverity(report("a", 1, 1, "a"), models.SeverityLow),
		withSeverity(report("b", 2, 2, "b"), models.SeverityHigh),
		withSeverity(report("c", 2, 2, "c"), models.SeverityLow),
		withSeverity(report("d", 3, 3, "d"), models.SeverityHigh),
		withSeverity(report("e", 2, 2, "e"), models.SeverityLow),
		withSeverity(report("f", 3, 3, "f"), models.SeverityLow),
	}
	hotspots := Aggregate(reports)

	ranked := Ranked(hotspots, "")
	require.Len(t, ranked, 3)
	assert.Equal(t, 3, ranked[0].Count)
	assert.Equal(t, 2, ranked[1].Count)
	assert.Equal(t, 1, ranked[2].Count)

	high := Ranked(hotspots, models.SeverityHigh)
	require.Len(t, high, 2)
	assert.Equal(t, 2.0, high[0].Latitude)
	assert.Equal(t, 3.0, high[1].Latitude)

	assert.Empty(t, Ranked(hotspots, models.SeverityCritical))
}
