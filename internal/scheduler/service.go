package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/goa-eco-guard/eco-guard/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReminderRunner sends the reminders that are due now
type ReminderRunner interface {
	SendReminders(ctx context.Context) (int, error)
}

// Service handles scheduling of mission reminder runs
type Service struct {
	config *config.Config
	runner ReminderRunner
	cron   *cron.Cron

	// runTimeout bounds a single scheduled run
	runTimeout time.Duration
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, runner ReminderRunner) *Service {
	return &Service{
		config:     cfg,
		runner:     runner,
		cron:       cron.New(cron.WithSeconds(), cron.WithLocation(cfg.Location())),
		runTimeout: 10 * time.Minute,
	}
}

// Start registers the reminder job and starts the cron loop
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.config.ReminderSchedule, s.runReminders)
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.config.ReminderSchedule, err)
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with reminder schedule %q in %s", s.config.ReminderSchedule, s.config.TimeZone)
	return nil
}

func (s *Service) runReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	logrus.Info("Starting scheduled mission reminder run")
	sent, err := s.runner.SendReminders(ctx)
	if err != nil {
		logrus.Errorf("Scheduled mission reminder run failed: %v", err)
		return
	}
	logrus.Infof("Scheduled mission reminder run sent %d reminders", sent)
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
