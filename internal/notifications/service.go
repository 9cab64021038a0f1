package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goa-eco-guard/eco-guard/internal/config"
	"github.com/goa-eco-guard/eco-guard/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
	send   func(m *gomail.Message) error
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	s := &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
	s.send = func(m *gomail.Message) error {
		d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		return d.DialAndSend(m)
	}
	return s
}

// SendReminder emails a mission reminder to one participant
func (s *Service) SendReminder(reminder *models.Reminder) error {
	if !s.config.EmailEnabled() {
		return fmt.Errorf("email delivery is not configured")
	}
	if reminder.Participant.Email == "" {
		return fmt.Errorf("participant %s has no email address", reminder.Participant.ID)
	}

	m, err := s.buildReminderMessage(reminder)
	if err != nil {
		return err
	}

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"mission": reminder.Mission.ID,
		"email":   reminder.Participant.Email,
	}).Info("Sent mission reminder")
	return nil
}

func (s *Service) buildReminderMessage(reminder *models.Reminder) (*gomail.Message, error) {
	htmlBody, err := BuildReminderHTML(reminder)
	if err != nil {
		return nil, fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.SMTPUsername, s.config.EmailFromName)
	m.SetHeader("To", reminder.Participant.Email)
	m.SetHeader("Subject", ReminderSubject(reminder))
	m.SetBody("text/plain", BuildReminderText(reminder))
	m.AddAlternative("text/html", htmlBody)
	return m, nil
}

// ReminderSubject is the email subject line for a reminder
func ReminderSubject(reminder *models.Reminder) string {
	return fmt.Sprintf("Mission Reminder: %s - %s", reminder.Mission.Title, reminder.Urgency)
}

var reminderTemplate = template.Must(template.New("reminder").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Mission Reminder</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #2e7d32; color: white; padding: 20px; border-radius: 5px; }
        .details { background-color: #f1f8e9; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .urgency { font-size: 1.4em; font-weight: bold; color: #c62828; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Goa Eco-Guard</h1>
        <p>Hi {{.Participant.Name}}, your mission is coming up.</p>
    </div>

    <p class="urgency">{{.Urgency}}</p>

    <div class="details">
        <h2>{{.Mission.Title}}</h2>
        <p><strong>Date:</strong> {{.Mission.Date}}</p>
        {{if .Mission.Location}}<p><strong>Location:</strong> {{.Mission.Location}}</p>{{end}}
        {{if .Mission.Description}}<p>{{.Mission.Description}}</p>{{end}}
    </div>

    <p>Please bring gloves, a water bottle and sun protection. Thank you for protecting Goa's environment!</p>

    <hr>
    <p><small>You are receiving this because you joined this mission on Goa Eco-Guard.</small></p>
</body>
</html>
`))

// BuildReminderHTML renders the HTML reminder body
func BuildReminderHTML(reminder *models.Reminder) (string, error) {
	var buf bytes.Buffer
	if err := reminderTemplate.Execute(&buf, reminder); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildReminderText renders the plain-text reminder body
func BuildReminderText(reminder *models.Reminder) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Hi %s,\n\n", reminder.Participant.Name))
	text.WriteString(fmt.Sprintf("Mission Reminder: %s\n", reminder.Urgency))
	text.WriteString(strings.Repeat("=", 40) + "\n")
	text.WriteString(fmt.Sprintf("Mission:  %s\n", reminder.Mission.Title))
	text.WriteString(fmt.Sprintf("Date:     %s\n", reminder.Mission.Date))
	if reminder.Mission.Location != "" {
		text.WriteString(fmt.Sprintf("Location: %s\n", reminder.Mission.Location))
	}
	if reminder.Mission.Description != "" {
		text.WriteString(fmt.Sprintf("\n%s\n", reminder.Mission.Description))
	}

	text.WriteString("\nPlease bring gloves, a water bottle and sun protection.\n")
	text.WriteString("\n---\nGoa Eco-Guard\n")

	return text.String()
}

// SendAlert posts an urgent moderator alert to Teams
func (s *Service) SendAlert(alert *models.Alert) error {
	if s.config.TeamsWebhookURL == "" {
		logrus.Infof("Alert not sent (no Teams webhook configured): %s - %s", alert.Type, alert.Title)
		return nil
	}

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(buildTeamsAlert(alert)).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	logrus.Infof("Sent %s alert to Teams: %s", alert.Type, alert.Title)
	return nil
}

func buildTeamsAlert(alert *models.Alert) *TeamsMessage {
	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "C62828",
		Title:      alert.Title,
		Text:       alert.Message,
	}

	if r := alert.Report; r != nil {
		facts := []TeamsFact{
			{Name: "Severity", Value: string(r.Severity)},
			{Name: "Location", Value: r.Location},
			{Name: "Reported", Value: r.CreatedAt.Format("2006-01-02 15:04:05 UTC")},
		}
		if r.HasCoordinates() {
			facts = append(facts, TeamsFact{
				Name:  "Coordinates",
				Value: fmt.Sprintf("%.5f, %.5f", *r.Latitude, *r.Longitude),
			})
		}
		if r.Image != "" {
			facts = append(facts, TeamsFact{Name: "Photo", Value: fmt.Sprintf("[view](%s)", r.Image)})
		}

		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Report " + r.ID,
			ActivityText:  r.Description,
			Facts:         facts,
			Markdown:      true,
		})
	}

	return message
}
