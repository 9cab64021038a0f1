package missions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goa-eco-guard/eco-guard/internal/config"
	"github.com/goa-eco-guard/eco-guard/internal/models"
	"github.com/goa-eco-guard/eco-guard/internal/notifications"
	"github.com/goa-eco-guard/eco-guard/internal/reports"
	"github.com/goa-eco-guard/eco-guard/internal/storage"
	"github.com/goa-eco-guard/eco-guard/internal/validation"
	"github.com/sirupsen/logrus"
)

var (
	// ErrMissionNotFound is returned when joining an unknown mission
	ErrMissionNotFound = errors.New("mission not found")
	// ErrAlreadyJoined is returned when an email is registered twice for one mission
	ErrAlreadyJoined = errors.New("already joined this mission")
)

// Service manages cleanup missions and their reminder emails
type Service struct {
	config              *config.Config
	store               storage.MissionStore
	notificationService notifications.NotificationInterface
	now                 func() time.Time
}

// JoinRequest registers a volunteer for a mission
type JoinRequest struct {
	Name  string `json:"name" validate:"notblank,max=100"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"max=20"`
}

// CreateRequest schedules a new mission
type CreateRequest struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Location    string `json:"location" validate:"max=200"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
}

// NewService creates a new mission service
func NewService(cfg *config.Config, store storage.MissionStore, notificationService notifications.NotificationInterface) *Service {
	return &Service{
		config:              cfg,
		store:               store,
		notificationService: notificationService,
		now:                 time.Now,
	}
}

// UrgencyLabel renders days-until-mission for a reminder subject
func UrgencyLabel(daysLeft int) string {
	switch daysLeft {
	case 0:
		return "TODAY!"
	case 1:
		return "Tomorrow!"
	default:
		return fmt.Sprintf("In %d days", daysLeft)
	}
}

// DaysUntil counts calendar days from today to a mission date, both in loc.
func DaysUntil(date string, today time.Time, loc *time.Location) (int, error) {
	missionDay, err := time.ParseInLocation(models.DateLayout, date, loc)
	if err != nil {
		return 0, fmt.Errorf("invalid mission date %q: %w", date, err)
	}
	return int(math.Round(missionDay.Sub(startOfDay(today, loc)).Hours() / 24)), nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DueReminders builds one reminder per participant of every mission dated
// within the lookahead window starting today.
func (s *Service) DueReminders(ctx context.Context) ([]models.Reminder, error) {
	loc := s.config.Location()
	today := startOfDay(s.now(), loc)
	until := today.AddDate(0, 0, s.config.ReminderLookaheadDays)

	missions, err := s.store.MissionsBetween(ctx, today.Format(models.DateLayout), until.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("%w: list upcoming missions: %v", reports.ErrStoreUnavailable, err)
	}

	var reminders []models.Reminder
	for _, mission := range missions {
		daysLeft, err := DaysUntil(mission.Date, today, loc)
		if err != nil {
			logrus.Warnf("Skipping mission %s: %v", mission.ID, err)
			continue
		}

		participants, err := s.store.Participants(ctx, mission.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: list participants of %s: %v", reports.ErrStoreUnavailable, mission.ID, err)
		}

		for _, p := range participants {
			reminders = append(reminders, models.Reminder{
				Mission:     mission,
				Participant: p,
				DaysLeft:    daysLeft,
				Urgency:     UrgencyLabel(daysLeft),
			})
		}
	}

	return reminders, nil
}

// SendReminders emails every due reminder. A failed email is logged and
// skipped; the returned count is the number delivered.
func (s *Service) SendReminders(ctx context.Context) (int, error) {
	start := time.Now()
	logrus.Info("Starting mission reminder run")

	reminders, err := s.DueReminders(ctx)
	if err != nil {
		return 0, err
	}

	sent, failed := 0, 0
	for i := range reminders {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		reminder := &reminders[i]
		if err := s.notificationService.SendReminder(reminder); err != nil {
			failed++
			logrus.WithFields(logrus.Fields{
				"mission": reminder.Mission.ID,
				"email":   reminder.Participant.Email,
			}).Errorf("Failed to send mission reminder: %v", err)
			continue
		}
		sent++
	}

	logrus.Infof("Mission reminder run completed in %v: %d sent, %d failed", time.Since(start), sent, failed)
	return sent, nil
}

// Upcoming lists missions dated today or later, soonest first
func (s *Service) Upcoming(ctx context.Context) ([]models.Mission, error) {
	today := startOfDay(s.now(), s.config.Location()).Format(models.DateLayout)

	missions, err := s.store.MissionsBetween(ctx, today, "9999-12-31")
	if err != nil {
		return nil, fmt.Errorf("%w: list missions: %v", reports.ErrStoreUnavailable, err)
	}
	return missions, nil
}

// Create schedules a new mission
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Mission, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", reports.ErrInvalidInput, validation.Describe(err))
	}

	mission := &models.Mission{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
	}
	if err := s.store.CreateMission(ctx, mission); err != nil {
		return nil, fmt.Errorf("%w: create mission: %v", reports.ErrStoreUnavailable, err)
	}

	logrus.WithFields(logrus.Fields{"id": mission.ID, "date": mission.Date}).Info("Created mission")
	return mission, nil
}

// Join registers a participant for a mission
func (s *Service) Join(ctx context.Context, missionID string, req JoinRequest) (*models.Participant, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", reports.ErrInvalidInput, validation.Describe(err))
	}

	if _, err := s.store.GetMission(ctx, missionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrMissionNotFound
		}
		return nil, fmt.Errorf("%w: get mission: %v", reports.ErrStoreUnavailable, err)
	}

	participant := &models.Participant{
		MissionID: missionID,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
	}
	if err := s.store.RegisterParticipant(ctx, participant); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrAlreadyJoined
		}
		return nil, fmt.Errorf("%w: register participant: %v", reports.ErrStoreUnavailable, err)
	}

	logrus.WithFields(logrus.Fields{"mission": missionID, "participant": participant.ID}).Info("Participant joined mission")
	return participant, nil
}
