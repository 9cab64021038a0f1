package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goa-eco-guard/eco-guard/internal/config"
	"github.com/goa-eco-guard/eco-guard/internal/missions"
	"github.com/goa-eco-guard/eco-guard/internal/models"
	"github.com/goa-eco-guard/eco-guard/internal/notifications"
	"github.com/goa-eco-guard/eco-guard/internal/storage"
	"github.com/joho/godotenv"
)

// TestNotificationService outputs reminders to terminal and files
type TestNotificationService struct{}

func (t *TestNotificationService) SendReminder(reminder *models.Reminder) error {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Printf("📧 To:      %s <%s>\n", reminder.Participant.Name, reminder.Participant.Email)
	fmt.Printf("📝 Subject: %s\n", notifications.ReminderSubject(reminder))
	fmt.Println(strings.Repeat("-", 70))
	fmt.Print(notifications.BuildReminderText(reminder))

	if err := t.saveReminderToFile(reminder); err != nil {
		fmt.Printf("\n⚠️  Warning: Could not save to file: %v\n", err)
	}
	return nil
}

func (t *TestNotificationService) SendAlert(alert *models.Alert) error {
	fmt.Println("\n🚨 ALERT")
	fmt.Printf("Type: %s\n", alert.Type)
	fmt.Printf("Message: %s\n", alert.Message)
	return nil
}

func (t *TestNotificationService) saveReminderToFile(reminder *models.Reminder) error {
	dir := "test_output"
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	html, err := notifications.BuildReminderHTML(reminder)
	if err != nil {
		return err
	}

	safeEmail := strings.NewReplacer("@", "_at_", "/", "_").Replace(reminder.Participant.Email)
	filename := filepath.Join(dir, fmt.Sprintf("reminder_%s_%s.html", reminder.Mission.Date, safeEmail))
	if err := os.WriteFile(filename, []byte(html), 0644); err != nil {
		return err
	}

	fmt.Printf("\n💾 HTML saved to: %s\n", filename)
	return nil
}

func main() {
	dbPath := flag.String("db", "", "SQLite database to read missions from (default: in-memory sample data)")
	send := flag.Bool("send", false, "send real emails through the configured SMTP server")
	flag.Parse()

	fmt.Println("🌿 Goa Eco-Guard - Mission Reminder Preview")
	fmt.Println("===========================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	path := *dbPath
	if path == "" {
		path = ":memory:"
	}
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	if *dbPath == "" {
		if err := seedSampleMissions(store, cfg.Location()); err != nil {
			log.Fatalf("Failed to seed sample missions: %v", err)
		}
		fmt.Println("\n📦 Using in-memory sample missions")
	}

	var sender notifications.NotificationInterface = &TestNotificationService{}
	if *send {
		sender = notifications.NewService(cfg)
	}

	service := missions.NewService(cfg, store, sender)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sent, err := service.SendReminders(ctx)
	if err != nil {
		fmt.Printf("❌ Error sending reminders: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n✅ %d reminders processed!\n", sent)
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Check the 'test_output' directory for the rendered HTML emails")
	fmt.Println("   • Re-run with -send to deliver through SMTP")
	fmt.Println("   • Run the full server with 'go run ./cmd/ecoguard'")
}

func seedSampleMissions(store *storage.SQLiteStore, loc *time.Location) error {
	ctx := context.Background()
	today := time.Now().In(loc)

	samples := []struct {
		mission      models.Mission
		participants []models.Participant
	}{
		{
			mission: models.Mission{
				Title:       "Baga Beach Cleanup",
				Description: "Clearing plastic and glass from the high-tide line.",
				Location:    "Baga Beach",
				Date:        today.Format(models.DateLayout),
			},
			participants: []models.Participant{
				{Name: "Asha Naik", Email: "asha@example.com", Phone: "9800000001"},
				{Name: "Rui Fernandes", Email: "rui@example.com"},
			},
		},
		{
			mission: models.Mission{
				Title:       "Mandovi Mangrove Planting",
				Description: "Planting saplings along the Chorao riverbank.",
				Location:    "Chorao Island",
				Date:        today.AddDate(0, 0, 1).Format(models.DateLayout),
			},
			participants: []models.Participant{
				{Name: "Priya Kamat", Email: "priya@example.com"},
			},
		},
		{
			mission: models.Mission{
				Title:    "Western Ghats Trail Sweep",
				Location: "Mollem National Park",
				Date:     today.AddDate(0, 0, 3).Format(models.DateLayout),
			},
			participants: []models.Participant{
				{Name: "Joel D'Souza", Email: "joel@example.com"},
			},
		},
		{
			mission: models.Mission{
				Title:    "Next Month's Cleanup",
				Location: "Colva Beach",
				Date:     today.AddDate(0, 1, 0).Format(models.DateLayout),
			},
			participants: []models.Participant{
				{Name: "Not Yet", Email: "later@example.com"},
			},
		},
	}

	for _, sample := range samples {
		mission := sample.mission
		if err := store.CreateMission(ctx, &mission); err != nil {
			return err
		}
		for _, p := range sample.participants {
			p.MissionID = mission.ID
			if err := store.RegisterParticipant(ctx, &p); err != nil {
				return err
			}
		}
	}

	return nil
}
