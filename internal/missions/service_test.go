package missions

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/goa-eco-guard/eco-guard/internal/config"
	"github.com/goa-eco-guard/eco-guard/internal/models"
	"github.com/goa-eco-guard/eco-guard/internal/reports"
	"github.com/goa-eco-guard/eco-guard/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNotificationService is a mock implementation of the notification service
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendReminder(reminder *models.Reminder) error {
	args := m.Called(reminder)
	return args.Error(0)
}

func (m *MockNotificationService) SendAlert(alert *models.Alert) error {
	args := m.Called(alert)
	return args.Error(0)
}

func goaConfig() *config.Config {
	return &config.Config{TimeZone: "Asia/Kolkata", ReminderLookaheadDays: 3}
}

// 2024-06-01 08:00 in Goa
var runTime = time.Date(2024, 6, 1, 2, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, notifier *MockNotificationService) (*Service, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	service := NewService(goaConfig(), store, notifier)
	service.now = func() time.Time { return runTime }
	return service, store
}

func seedMission(t *testing.T, store *storage.SQLiteStore, title, date string, emails ...string) *models.Mission {
	t.Helper()
	ctx := context.Background()
	mission := &models.Mission{Title: title, Location: "Baga Beach", Date: date}
	require.NoError(t, store.CreateMission(ctx, mission))
	for _, email := range emails {
		require.NoError(t, store.RegisterParticipant(ctx, &models.Participant{MissionID: mission.ID, Name: email, Email: email}))
	}
	return mission
}

func TestUrgencyLabel(t *testing.T) {
	assert.Equal(t, "TODAY!", UrgencyLabel(0))
	assert.Equal(t, "Tomorrow!", UrgencyLabel(1))
	assert.Equal(t, "In 2 days", UrgencyLabel(2))
	assert.Equal(t, "In 3 days", UrgencyLabel(3))
}

func TestDaysUntil(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 23:30 UTC on May 31 is already June 1 in Goa.
	lateNight := time.Date(2024, 5, 31, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		date     string
		expected int
	}{
		{"2024-06-01", 0},
		{"2024-06-02", 1},
		{"2024-06-04", 3},
		{"2024-05-31", -1},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			days, err := DaysUntil(tt.date, lateNight, loc)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, days)
		})
	}

	_, err = DaysUntil("June 1st", lateNight, loc)
	assert.Error(t, err)
}

func TestService_DueReminders_Window(t *testing.T) {
	service, store := newTestService(t, &MockNotificationService{})

	seedMission(t, store, "Yesterday", "2024-05-31", "old@example.com")
	seedMission(t, store, "Today", "2024-06-01", "a@example.com", "b@example.com")
	seedMission(t, store, "Tomorrow", "2024-06-02", "c@example.com")
	seedMission(t, store, "In three days", "2024-06-04", "d@example.com")
	seedMission(t, store, "Too far", "2024-06-05", "e@example.com")
	seedMission(t, store, "Nobody joined", "2024-06-03")

	reminders, err := service.DueReminders(context.Background())
	require.NoError(t, err)
	require.Len(t, reminders, 4)

	got := map[string]string{}
	for _, r := range reminders {
		got[r.Participant.Email] = r.Urgency
	}
	assert.Equal(t, map[string]string{
		"a@example.com": "TODAY!",
		"b@example.com": "TODAY!",
		"c@example.com": "Tomorrow!",
		"d@example.com": "In 3 days",
	}, got)
}

func TestService_SendReminders_ContinuesPastFailures(t *testing.T) {
	notifier := &MockNotificationService{}
	service, store := newTestService(t, notifier)

	seedMission(t, store, "Beach cleanup", "2024-06-02", "a@example.com", "broken@example.com", "c@example.com")

	notifier.On("SendReminder", mock.MatchedBy(func(r *models.Reminder) bool {
		return r.Participant.Email == "broken@example.com"
	})).Return(errors.New("mailbox unavailable"))
	notifier.On("SendReminder", mock.Anything).Return(nil)

	sent, err := service.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	notifier.AssertNumberOfCalls(t, "SendReminder", 3)
}

func TestService_SendReminders_NothingDue(t *testing.T) {
	notifier := &MockNotificationService{}
	service, _ := newTestService(t, notifier)

	sent, err := service.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	notifier.AssertNotCalled(t, "SendReminder", mock.Anything)
}

func TestService_Upcoming(t *testing.T) {
	service, store := newTestService(t, nil)

	seedMission(t, store, "Past", "2024-05-20")
	seedMission(t, store, "Later", "2024-07-15")
	seedMission(t, store, "Soon", "2024-06-01")

	missions, err := service.Upcoming(context.Background())
	require.NoError(t, err)

	titles := make([]string, 0, len(missions))
	for _, m := range missions {
		titles = append(titles, m.Title)
	}
	assert.Equal(t, []string{"Soon", "Later"}, titles)
	assert.True(t, sort.SliceIsSorted(missions, func(i, j int) bool { return missions[i].Date < missions[j].Date }))
}

func TestService_Create(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()

	mission, err := service.Create(ctx, CreateRequest{Title: " Mangrove planting ", Location: "Chorao", Date: "2024-06-10"})
	require.NoError(t, err)
	assert.NotEmpty(t, mission.ID)
	assert.Equal(t, "Mangrove planting", mission.Title)

	_, err = service.Create(ctx, CreateRequest{Title: "Bad date", Date: "10/06/2024"})
	assert.Equal(t, reports.KindInvalidInput, reports.KindOf(err))

	_, err = service.Create(ctx, CreateRequest{Title: " ", Date: "2024-06-10"})
	assert.Equal(t, reports.KindInvalidInput, reports.KindOf(err))
}

func TestService_Join(t *testing.T) {
	service, store := newTestService(t, nil)
	ctx := context.Background()
	mission := seedMission(t, store, "Beach cleanup", "2024-06-02")

	participant, err := service.Join(ctx, mission.ID, JoinRequest{Name: "Asha", Email: "asha@example.com", Phone: "9800000000"})
	require.NoError(t, err)
	assert.Equal(t, mission.ID, participant.MissionID)

	_, err = service.Join(ctx, mission.ID, JoinRequest{Name: "Asha", Email: "asha@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	_, err = service.Join(ctx, "missing", JoinRequest{Name: "Rui", Email: "rui@example.com"})
	assert.ErrorIs(t, err, ErrMissionNotFound)

	_, err = service.Join(ctx, mission.ID, JoinRequest{Name: "Rui", Email: "not-an-email"})
	assert.Equal(t, reports.KindInvalidInput, reports.KindOf(err))

	participants, err := store.Participants(ctx, mission.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 1)
}
