package reports

import (
	"math"
	"testing"
	"time"

	"github.com/goa-eco-guard/eco-guard/internal/geo"
	"github.com/goa-eco-guard/eco-guard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userLat, userLng = 15.50, 73.80

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// northOfUser returns a report km kilometres due north of the user.
func northOfUser(id string, km float64, age time.Duration) models.Report {
	degPerKm := 180 / (geo.EarthRadiusKm * math.Pi)
	r := report(id, userLat+km*degPerKm, userLng, id)
	r.CreatedAt = fixedNow.Add(-age)
	return r
}

func ids(nearby []models.NearbyReport) []string {
	out := make([]string, 0, len(nearby))
	for _, n := range nearby {
		out = append(out, n.ID)
	}
	return out
}

func TestFindNearby_RadiusAndOrder(t *testing.T) {
	reports := []models.Report{
		northOfUser("10km", 10, time.Hour),
		northOfUser("4km", 4, time.Hour),
		northOfUser("6km", 6, time.Hour),
		northOfUser("2km", 2, time.Hour),
	}

	nearby := FindNearby(userLat, userLng, reports, NearbyOptions{RadiusKm: 5, Now: fixedNow})

	require.Equal(t, []string{"2km", "4km"}, ids(nearby))
	assert.InDelta(t, 2.0, nearby[0].DistanceKm, 1e-6)
	assert.InDelta(t, 4.0, nearby[1].DistanceKm, 1e-6)
}

func TestFindNearby_Defaults(t *testing.T) {
	reports := []models.Report{
		northOfUser("fresh-4km", 4, time.Hour),
		northOfUser("fresh-6km", 6, time.Hour),
		northOfUser("stale-1km", 1, 25*time.Hour),
	}

	nearby := FindNearby(userLat, userLng, reports, NearbyOptions{Now: fixedNow})
	assert.Equal(t, []string{"fresh-4km"}, ids(nearby))
}

func TestFindNearby_ExcludesOldReports(t *testing.T) {
	reports := []models.Report{
		northOfUser("25h", 1, 25*time.Hour),
		northOfUser("23h", 1.5, 23*time.Hour),
	}

	assert.Equal(t, []string{"23h"}, ids(FindNearby(userLat, userLng, reports, NearbyOptions{Now: fixedNow})))

	wider := FindNearby(userLat, userLng, reports, NearbyOptions{Now: fixedNow, WithinLast: 48 * time.Hour})
	assert.Equal(t, []string{"25h", "23h"}, ids(wider))
}

func TestFindNearby_ExcludesMissingCoordinatesAndDeleted(t *testing.T) {
	deleted := northOfUser("deleted", 1, time.Hour)
	deletedAt := fixedNow.Add(-time.Minute)
	deleted.DeletedAt = &deletedAt

	noCoords := models.Report{ID: "no-coords", CreatedAt: fixedNow}
	noLng := models.Report{ID: "no-lng", Latitude: ptr(userLat), CreatedAt: fixedNow}

	reports := []models.Report{deleted, noCoords, noLng, northOfUser("ok", 3, time.Hour)}
	assert.Equal(t, []string{"ok"}, ids(FindNearby(userLat, userLng, reports, NearbyOptions{Now: fixedNow})))
}

func TestFindNearby_NoSeverityGateByDefault(t *testing.T) {
	low := northOfUser("low", 1, time.Hour)
	low.Severity = models.SeverityLow
	critical := northOfUser("critical", 2, time.Hour)
	critical.Severity = models.SeverityCritical

	reports := []models.Report{critical, low}
	assert.Equal(t, []string{"low", "critical"}, ids(FindNearby(userLat, userLng, reports, NearbyOptions{Now: fixedNow})))

	gated := FindNearby(userLat, userLng, reports, NearbyOptions{Now: fixedNow, MinSeverity: models.SeverityHigh})
	assert.Equal(t, []string{"critical"}, ids(gated))
}

func TestFindNearby_TiesKeepInputOrder(t *testing.T) {
	reports := []models.Report{
		northOfUser("first", 2, time.Hour),
		northOfUser("second", 2, 2*time.Hour),
	}

	assert.Equal(t, []string{"first", "second"}, ids(FindNearby(userLat, userLng, reports, NearbyOptions{Now: fixedNow})))
}

func TestFindNearby_EmptyInput(t *testing.T) {
	nearby := FindNearby(userLat, userLng, nil, NearbyOptions{Now: fixedNow})
	assert.NotNil(t, nearby)
	assert.Empty(t, nearby)
}

func TestFindNearby_NaNUserLocationMatchesNothing(t *testing.T) {
	reports := []models.Report{northOfUser("ok", 1, time.Hour)}
	assert.Empty(t, FindNearby(math.NaN(), userLng, reports, NearbyOptions{Now: fixedNow}))
}
