package domain

import (
	"context"
	"time"

	"baselav/internal/model"
)

type NotificationRepo interface {
	// Вставка записи журнала
	InsertNotification(n *model.AlertNotification) error

	// Есть ли уже запись для этого цикла напоминания
	ExistsByRecordAndReminder(recordID, reminderDate string) (bool, error)

	// Все неотправленные записи
	GetUnsentNotifications() ([]model.AlertNotification, error)

	// Пометить запись отправленной
	MarkSent(id uint, at time.Time) error
}

// Notifier доставка текстовых уведомлений администраторам.
type Notifier interface {
	NotifyAdmins(text string) error
}

// AlertSource часть трекера, нужная фоновой рассылке.
type AlertSource interface {
	ListDueAlerts(ctx context.Context) ([]model.ServiceRecord, error)
	StampAlertSent(ctx context.Context, id string, at time.Time) error
}

// AdminService операции, доступные администратору из Telegram.
type AdminService interface {
	ListDueAlerts(ctx context.Context) ([]model.ServiceRecord, error)
	MarkContacted(ctx context.Context, id string) error
	SearchHistories(ctx context.Context, clientQuery string) ([]model.History, error)
	Stats(ctx context.Context) (model.Stats, error)
}
