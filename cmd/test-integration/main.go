package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/goa-eco-guard/eco-guard/internal/config"
	"github.com/goa-eco-guard/eco-guard/internal/models"
	"github.com/goa-eco-guard/eco-guard/internal/reports"
	"github.com/goa-eco-guard/eco-guard/internal/sightings"
	"github.com/goa-eco-guard/eco-guard/internal/storage"
)

// SimpleTestNotification for local testing
type SimpleTestNotification struct{}

func (s *SimpleTestNotification) SendReminder(reminder *models.Reminder) error {
	fmt.Printf("📧 Reminder for %s: %s (%s)\n", reminder.Participant.Email, reminder.Mission.Title, reminder.Urgency)
	return nil
}

func (s *SimpleTestNotification) SendAlert(alert *models.Alert) error {
	fmt.Printf("   🚨 ALERT: %s - %s\n", alert.Title, alert.Message)
	return nil
}

func coord(v float64) *float64 {
	return &v
}

func main() {
	fmt.Println("🧪 Goa Eco-Guard - Local Integration Test")
	fmt.Println("=========================================")

	cfg := &config.Config{
		AlertRadiusKm: 5,
		AlertWindow:   24 * time.Hour,
		TimeZone:      "Asia/Kolkata",
	}

	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	mediaDir, err := os.MkdirTemp("", "ecoguard-media")
	if err != nil {
		log.Fatalf("Failed to create media directory: %v", err)
	}
	defer os.RemoveAll(mediaDir)

	media, err := storage.NewLocalMediaStore(mediaDir, "http://localhost:8080")
	if err != nil {
		log.Fatalf("Failed to create media store: %v", err)
	}

	service := reports.NewService(cfg, store, media, &SimpleTestNotification{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	submissions := []reports.SubmitRequest{
		{Location: "Calangute Beach", Latitude: coord(15.5439), Longitude: coord(73.7553), Description: "Plastic waste on beach", Severity: "moderate"},
		{Location: "Calangute", Latitude: coord(15.5439), Longitude: coord(73.7553), Description: "Broken glass near shacks", Severity: "high"},
		{Location: "Mandovi River", Latitude: coord(15.5009), Longitude: coord(73.8274), Description: "Oil spill near ferry jetty", Severity: "Emergency spill",
			Image: &reports.Upload{Filename: "oil.jpg", ContentType: "image/jpeg", Data: []byte("sample-image")}},
		{Location: "Calangute Beach", Latitude: coord(15.5439), Longitude: coord(73.7553), Description: "  PLASTIC WASTE ON BEACH ", Severity: "low"},
		{Location: "Mollem", Latitude: coord(15.3500), Longitude: coord(74.2500), Description: "Illegal tree felling", Severity: "severe"},
		{Location: "Nowhere", Description: "Missing coordinates"},
	}

	fmt.Printf("\n📥 Submitting %d reports...\n", len(submissions))
	for _, req := range submissions {
		created, err := service.Submit(ctx, req)
		if err != nil {
			fmt.Printf("   ❌ %-18s %-30q kind=%s (%v)\n", req.Location, req.Description, reports.KindOf(err), err)
			continue
		}
		fmt.Printf("   ✅ %-18s %-30q severity=%s id=%s\n", created.Location, created.Description, created.Severity, created.ID)
		if created.Image != "" {
			fmt.Printf("      🖼️  %s\n", created.Image)
		}
	}

	summary, err := service.Hotspots(ctx, "")
	if err != nil {
		log.Fatalf("Failed to aggregate hotspots: %v", err)
	}

	fmt.Printf("\n🗺️  %d reports across %d hotspots:\n", summary.TotalReports, summary.Locations)
	for _, h := range summary.Ranked {
		fmt.Printf("   • %-18s %-8s %d report(s) at %s\n", h.Location, h.Severity, h.Count, reports.CoordinateKey(h.Latitude, h.Longitude))
	}

	// Standing at Panaji's Campal promenade
	userLat, userLng := 15.4989, 73.8180
	nearby, err := service.Nearby(ctx, userLat, userLng, reports.NearbyOptions{})
	if err != nil {
		log.Fatalf("Failed to find nearby reports: %v", err)
	}

	fmt.Printf("\n📍 Reports within %.0f km of %.4f,%.4f:\n", cfg.AlertRadiusKm, userLat, userLng)
	if len(nearby) == 0 {
		fmt.Println("   (none)")
	}
	for _, n := range nearby {
		fmt.Printf("   • %.1f km  %s (%s)\n", n.DistanceKm, n.Description, n.Severity)
	}

	stats, err := service.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to compute stats: %v", err)
	}
	fmt.Printf("\n📊 Stats: total=%d approved=%d pending=%d rejected=%d\n", stats.Total, stats.Approved, stats.Pending, stats.Rejected)

	if len(nearby) > 0 {
		id := nearby[0].ID
		if err := service.Remove(ctx, id); err != nil {
			log.Fatalf("Failed to delete report: %v", err)
		}
		after, _ := service.Nearby(ctx, userLat, userLng, reports.NearbyOptions{})
		fmt.Printf("\n🗑️  Soft-deleted %s; %d nearby report(s) remain\n", id, len(after))
	}

	sightingService := sightings.NewService(store, media)
	if _, err := sightingService.Submit(ctx, sightings.SubmitRequest{
		SpeciesName: "Olive Ridley Turtle",
		Location:    "Morjim Beach",
		Latitude:    coord(15.6297),
		Longitude:   coord(73.7335),
		Image:       &reports.Upload{Filename: "turtle.jpg", ContentType: "image/jpeg", Data: []byte("sample")},
	}); err != nil {
		log.Fatalf("Failed to record sighting: %v", err)
	}
	seen, err := sightingService.List(ctx)
	if err != nil {
		log.Fatalf("Failed to list sightings: %v", err)
	}
	fmt.Printf("\n🦎 Sightings:\n")
	for _, sg := range seen {
		fmt.Printf("   • %s at %s (%s)\n", sg.SpeciesName, sg.Location, sg.Image)
	}

	fmt.Printf("\n📈 Metrics:\n%s\n", service.GetMetrics())
	fmt.Println("\n✅ Local integration test completed!")
}
