package notifications

import "github.com/goa-eco-guard/eco-guard/internal/models"

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendReminder(reminder *models.Reminder) error
	SendAlert(alert *models.Alert) error
}
