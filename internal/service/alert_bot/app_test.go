package alert_bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"baselav/internal/model"
	"baselav/internal/reminder"
)

type fakeSource struct {
	mu      sync.Mutex
	due     []model.ServiceRecord
	err     error
	stamped map[string]time.Time
}

func (f *fakeSource) ListDueAlerts(ctx context.Context) ([]model.ServiceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.due, f.err
}

func (f *fakeSource) StampAlertSent(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stamped == nil {
		f.stamped = map[string]time.Time{}
	}
	f.stamped[id] = at
	return nil
}

// fakeRepo журнал в памяти с тем же ограничением уникальности, что и в БД.
type fakeRepo struct {
	mu     sync.Mutex
	items  []model.AlertNotification
	nextID uint
}

func (f *fakeRepo) InsertNotification(n *model.AlertNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.RecordID == n.RecordID && existing.ReminderDate == n.ReminderDate {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	f.nextID++
	n.ID = f.nextID
	f.items = append(f.items, *n)
	return nil
}

func (f *fakeRepo) ExistsByRecordAndReminder(recordID, reminderDate string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.items {
		if n.RecordID == recordID && n.ReminderDate == reminderDate {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) GetUnsentNotifications() ([]model.AlertNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AlertNotification
	for _, n := range f.items {
		if !n.Sent {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkSent(id uint, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Sent = true
			f.items[i].SentAt = &at
			return nil
		}
	}
	return errors.New("not found")
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeNotifier) NotifyAdmins(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeNotifier) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

var checkNow = time.Date(2024, time.January, 11, 8, 0, 0, 0, time.UTC)

func dueRecord() model.ServiceRecord {
	serviceDate := time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC)
	next := reminder.NextReminder(serviceDate)
	return model.ServiceRecord{
		ID:              "rec0000001",
		ClientName:      "Ana Lopez",
		Phone:           "987654321",
		Brand:           "LG",
		ServiceDate:     serviceDate,
		ReminderEnabled: true,
		NextReminder:    &next,
	}
}

func newTestAlertBot(t *testing.T, source *fakeSource, repo *fakeRepo, notifier *fakeNotifier) *AlertBot {
	t.Helper()
	bot := NewAlertBot(source, repo, notifier, zaptest.NewLogger(t), nil, Options{
		Interval: time.Hour,
		Clock:    reminder.ClockFunc(func() time.Time { return checkNow }),
	})
	t.Cleanup(bot.Stop)
	return bot
}

func TestCheckAlerts_DeliversOncePerCycle(t *testing.T) {
	source := &fakeSource{due: []model.ServiceRecord{dueRecord()}}
	repo := &fakeRepo{}
	notifier := &fakeNotifier{}
	bot := newTestAlertBot(t, source, repo, notifier)

	require.NoError(t, bot.CheckAlerts(context.Background()))
	require.NoError(t, bot.CheckAlerts(context.Background()))

	msgs := notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Ana Lopez - LG (1 año desde el último servicio)\nTel: 987654321\nID: rec0000001", msgs[0])

	require.Len(t, repo.items, 1)
	assert.Equal(t, "2024-01-10", repo.items[0].ReminderDate)
	assert.True(t, repo.items[0].Sent)
	assert.Equal(t, checkNow, source.stamped["rec0000001"])
}

func TestCheckAlerts_FailedDeliveryRetriedNextRun(t *testing.T) {
	source := &fakeSource{due: []model.ServiceRecord{dueRecord()}}
	repo := &fakeRepo{}
	notifier := &fakeNotifier{err: errors.New("telegram unavailable")}
	bot := newTestAlertBot(t, source, repo, notifier)

	require.NoError(t, bot.CheckAlerts(context.Background()))
	require.Len(t, repo.items, 1)
	assert.False(t, repo.items[0].Sent)
	assert.Empty(t, source.stamped)

	notifier.mu.Lock()
	notifier.err = nil
	notifier.mu.Unlock()
	source.due = nil

	require.NoError(t, bot.CheckAlerts(context.Background()))
	assert.Len(t, notifier.messages(), 1)
	assert.True(t, repo.items[0].Sent)
}

func TestCheckAlerts_SourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("scan all: quota")}
	repo := &fakeRepo{}
	notifier := &fakeNotifier{}
	bot := newTestAlertBot(t, source, repo, notifier)

	assert.Error(t, bot.CheckAlerts(context.Background()))
	assert.Empty(t, notifier.messages())
}

func TestForceUpdate_TriggersBackgroundRun(t *testing.T) {
	source := &fakeSource{due: []model.ServiceRecord{dueRecord()}}
	repo := &fakeRepo{}
	notifier := &fakeNotifier{}
	bot := newTestAlertBot(t, source, repo, notifier)

	bot.ForceUpdate()
	assert.Eventually(t, func() bool { return len(notifier.messages()) == 1 }, 2*time.Second, 10*time.Millisecond)

	bot.Stop()
	bot.Stop()
}

func TestFormatAlert_Plural(t *testing.T) {
	r := dueRecord()
	msg := FormatAlert(r, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC))
	assert.Contains(t, msg, "Ana Lopez - LG (3 años desde el último servicio)")
}
