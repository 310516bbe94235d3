package alert_bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"baselav/internal/domain"
	"baselav/internal/model"
	"baselav/internal/reminder"

	"go.uber.org/zap"
)

// ReminderDateLayout ключ цикла напоминания в журнале.
const ReminderDateLayout = "2006-01-02"

type AlertBot struct {
	logger           *zap.Logger
	Source           domain.AlertSource
	NotificationRepo domain.NotificationRepo
	Notifier         domain.Notifier
	clock            reminder.Clock
	timeout          time.Duration

	ticker        *time.Ticker
	forceUpdateCh chan struct{}
	stopCh        chan struct{}
	stopOnce      sync.Once
	mu            sync.Mutex
}

// Options параметры фоновой проверки.
type Options struct {
	Interval time.Duration  // период проверки
	Timeout  time.Duration  // ограничение на один проход по таблице
	Clock    reminder.Clock // nil: системные часы
}

// NewAlertBot создает рассылку и запускает фоновую проверку
func NewAlertBot(source domain.AlertSource, repo domain.NotificationRepo, notifier domain.Notifier, logger *zap.Logger, forceUpdateCh chan struct{}, opts Options) *AlertBot {
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = reminder.SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if forceUpdateCh == nil {
		forceUpdateCh = make(chan struct{}, 1)
	}
	bot := &AlertBot{
		logger:           logger.Named("alert_bot"),
		Source:           source,
		NotificationRepo: repo,
		Notifier:         notifier,
		clock:            opts.Clock,
		timeout:          opts.Timeout,
		ticker:           time.NewTicker(opts.Interval),
		forceUpdateCh:    forceUpdateCh,
		stopCh:           make(chan struct{}),
	}
	go bot.backgroundCheck()
	return bot
}

// Фоновая проверка напоминаний
func (b *AlertBot) backgroundCheck() {
	for {
		select {
		case <-b.ticker.C:
			b.runOnce()
		case <-b.forceUpdateCh:
			b.runOnce()
		case <-b.stopCh:
			b.ticker.Stop()
			return
		}
	}
}

func (b *AlertBot) runOnce() {
	ctx := context.Background()
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	if err := b.CheckAlerts(ctx); err != nil {
		b.logger.Error("error checking alerts", zap.Error(err))
	}
}

// CheckAlerts один проход: новые наступившие напоминания попадают в журнал,
// затем все неотправленные записи журнала доставляются администраторам.
func (b *AlertBot) CheckAlerts(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	due, err := b.Source.ListDueAlerts(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения напоминаний: %w", err)
	}
	now := b.clock.Now()
	for _, r := range due {
		b.enqueue(r, now)
	}
	b.logger.Info("alerts checked", zap.Int("due", len(due)))

	b.deliverUnsent(ctx)
	return nil
}

// enqueue записывает уведомление, если для этого цикла его ещё нет
func (b *AlertBot) enqueue(r model.ServiceRecord, now time.Time) {
	if r.NextReminder == nil {
		return
	}
	reminderDate := r.NextReminder.UTC().Format(ReminderDateLayout)
	exists, err := b.NotificationRepo.ExistsByRecordAndReminder(r.ID, reminderDate)
	if err != nil {
		b.logger.Error("error checking notification journal", zap.Error(err), zap.String("record_id", r.ID))
		return
	}
	if exists {
		return
	}
	n := &model.AlertNotification{
		RecordID:     r.ID,
		ReminderDate: reminderDate,
		ClientName:   r.ClientName,
		Phone:        r.Phone,
		Message:      FormatAlert(r, now),
	}
	if err := b.NotificationRepo.InsertNotification(n); err != nil {
		b.logger.Error("error inserting notification", zap.Error(err), zap.String("record_id", r.ID))
	}
}

// deliverUnsent отправляет неотправленные уведомления. Ошибка доставки
// оставляет запись неотправленной до следующего прохода.
func (b *AlertBot) deliverUnsent(ctx context.Context) {
	notifications, err := b.NotificationRepo.GetUnsentNotifications()
	if err != nil {
		b.logger.Error("error getting unsent notifications", zap.Error(err))
		return
	}
	for _, n := range notifications {
		if err := b.Notifier.NotifyAdmins(n.Message); err != nil {
			b.logger.Error("error sending notification", zap.Error(err), zap.String("record_id", n.RecordID))
			continue
		}
		sentAt := b.clock.Now()
		if err := b.NotificationRepo.MarkSent(n.ID, sentAt); err != nil {
			b.logger.Error("error marking notification sent", zap.Error(err), zap.String("record_id", n.RecordID))
		}
		if err := b.Source.StampAlertSent(ctx, n.RecordID, sentAt); err != nil {
			b.logger.Warn("error stamping alert in sheet", zap.Error(err), zap.String("record_id", n.RecordID))
		}
	}
}

// FormatAlert текст уведомления для администратора
func FormatAlert(r model.ServiceRecord, now time.Time) string {
	years := reminder.YearsSince(r.ServiceDate, now)
	unit := "años"
	if years == 1 {
		unit = "año"
	}
	return fmt.Sprintf("%s - %s (%d %s desde el último servicio)\nTel: %s\nID: %s",
		r.ClientName, r.Brand, years, unit, r.Phone, r.ID)
}

// ForceUpdate немедленно запускает проверку
func (b *AlertBot) ForceUpdate() {
	select {
	case b.forceUpdateCh <- struct{}{}:
	default:
	}
}

// Остановка фоновой задачи
func (b *AlertBot) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
}
