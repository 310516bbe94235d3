package model

import (
	"time"

	"gorm.io/gorm"
)

// AlertNotification журнал отправленных напоминаний.
// Пара (RecordID, ReminderDate) уникальна: на один цикл напоминания одна запись.
type AlertNotification struct {
	gorm.Model
	RecordID     string     `json:"record_id" gorm:"type:varchar(32);uniqueIndex:alert_record_reminder_unique"`
	ReminderDate string     `json:"reminder_date" gorm:"type:varchar(10);uniqueIndex:alert_record_reminder_unique"`
	ClientName   string     `json:"client_name" gorm:"type:varchar(255)"`
	Phone        string     `json:"phone" gorm:"type:varchar(32)"`
	Message      string     `json:"message" gorm:"type:text"`
	Sent         bool       `json:"sent" gorm:"default:false;index"`
	SentAt       *time.Time `json:"sent_at"`
}
