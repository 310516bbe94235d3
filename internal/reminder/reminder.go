// Package reminder считает даты годовых напоминаний и отбирает записи, по которым пора звонить.
package reminder

import (
	"time"

	"baselav/internal/model"
)

// Clock источник текущего времени.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock часы на основе time.Now.
func SystemClock() Clock { return systemClock{} }

// ClockFunc позволяет использовать функцию как Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// NextReminder дата напоминания: ровно на год позже даты обслуживания.
// 29 февраля переходит в 28 февраля следующего года, а не в 1 марта.
func NextReminder(serviceDate time.Time) time.Time {
	y, m, d := serviceDate.Date()
	if m == time.February && d == 29 {
		d = 28
	}
	hh, mm, ss := serviceDate.Clock()
	return time.Date(y+1, m, d, hh, mm, ss, serviceDate.Nanosecond(), serviceDate.Location())
}

// IsDue true, если дата уже наступила (граница включительно). Отсутствующая дата не наступает никогда.
func IsDue(reminderDate *time.Time, now time.Time) bool {
	if reminderDate == nil {
		return false
	}
	return !reminderDate.After(now)
}

// State стадия жизненного цикла напоминания.
type State string

const (
	StateNone      State = "NONE"
	StatePending   State = "PENDING"
	StateDue       State = "DUE"
	StateContacted State = "CONTACTED"
)

// StateOf стадия записи на момент now. CONTACTED конечна.
func StateOf(r model.ServiceRecord, now time.Time) State {
	switch {
	case !r.ReminderEnabled:
		return StateNone
	case r.Contacted:
		return StateContacted
	case IsDue(r.NextReminder, now):
		return StateDue
	default:
		return StatePending
	}
}

// FindDue записи с включённым напоминанием, без контакта и с наступившей датой. Порядок сохраняется.
func FindDue(records []model.ServiceRecord, now time.Time) []model.ServiceRecord {
	due := make([]model.ServiceRecord, 0)
	for _, r := range records {
		if StateOf(r, now) == StateDue {
			due = append(due, r)
		}
	}
	return due
}

// YearsSince полные годы (по 365 дней) между датой обслуживания и now.
func YearsSince(serviceDate, now time.Time) int {
	days := int(now.Sub(serviceDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days / 365
}
