package postgres

import (
	"time"

	"baselav/internal/model"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

// Вставка записи журнала
func (r *NotificationRepository) InsertNotification(n *model.AlertNotification) error {
	return r.DB.Create(n).Error
}

// Проверка, что для записи уже есть уведомление этого цикла напоминания
func (r *NotificationRepository) ExistsByRecordAndReminder(recordID, reminderDate string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.AlertNotification{}).
		Where("record_id = ? AND reminder_date = ?", recordID, reminderDate).
		Count(&count).Error
	return count > 0, err
}

// Получение всех уведомлений с Sent=false, старые первыми
func (r *NotificationRepository) GetUnsentNotifications() ([]model.AlertNotification, error) {
	var notifications []model.AlertNotification
	err := r.DB.Where("sent = ?", false).Order("id").Find(&notifications).Error
	return notifications, err
}

// Отметка об отправке по id
func (r *NotificationRepository) MarkSent(id uint, at time.Time) error {
	return r.DB.Model(&model.AlertNotification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"sent": true, "sent_at": at}).Error
}
