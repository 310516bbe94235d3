package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baselav/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextReminder(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"regular", date(2023, time.January, 10), date(2024, time.January, 10)},
		{"leap day clamps", date(2024, time.February, 29), date(2025, time.February, 28)},
		{"into leap year", date(2023, time.February, 28), date(2024, time.February, 28)},
		{"keeps clock", time.Date(2023, 5, 1, 14, 30, 0, 0, time.UTC), time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextReminder(tt.in))
		})
	}
}

func TestIsDue(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	assert.False(t, IsDue(nil, now))
	assert.True(t, IsDue(&now, now), "boundary is inclusive")
	assert.True(t, IsDue(&past, now))
	assert.False(t, IsDue(&future, now))
}

func TestIsDue_NextReminderOfToday(t *testing.T) {
	now := time.Now()
	next := NextReminder(now)
	assert.False(t, IsDue(&next, now))

	old := now.AddDate(-1, 0, -2)
	next = NextReminder(old)
	assert.True(t, IsDue(&next, now))
}

func TestFindDue(t *testing.T) {
	serviceDate := date(2023, time.January, 10)
	next := NextReminder(serviceDate)

	enabled := model.ServiceRecord{ID: "a", ServiceDate: serviceDate, ReminderEnabled: true, NextReminder: &next}
	disabled := model.ServiceRecord{ID: "b", ServiceDate: serviceDate, ReminderEnabled: false, NextReminder: &next}
	contacted := model.ServiceRecord{ID: "c", ServiceDate: serviceDate, ReminderEnabled: true, NextReminder: &next, Contacted: true}
	noDate := model.ServiceRecord{ID: "d", ServiceDate: serviceDate, ReminderEnabled: true}
	records := []model.ServiceRecord{enabled, disabled, contacted, noDate}

	dayBefore := date(2024, time.January, 9)
	dayAfter := date(2024, time.January, 11)

	assert.Empty(t, FindDue(records, dayBefore))

	due := FindDue(records, dayAfter)
	require.Len(t, due, 1)
	assert.Equal(t, "a", due[0].ID)

	// years later the contacted record stays out
	assert.Len(t, FindDue(records, date(2030, time.January, 1)), 1)
}

func TestStateOf(t *testing.T) {
	next := date(2024, time.January, 10)
	r := model.ServiceRecord{ReminderEnabled: true, NextReminder: &next}

	assert.Equal(t, StatePending, StateOf(r, date(2023, time.December, 1)))
	assert.Equal(t, StateDue, StateOf(r, date(2024, time.February, 1)))

	r.Contacted = true
	assert.Equal(t, StateContacted, StateOf(r, date(2024, time.February, 1)))

	r.ReminderEnabled = false
	assert.Equal(t, StateNone, StateOf(r, date(2024, time.February, 1)))
}

func TestYearsSince(t *testing.T) {
	assert.Equal(t, 0, YearsSince(date(2024, 1, 1), date(2023, 1, 1)))
	assert.Equal(t, 1, YearsSince(date(2023, 1, 1), date(2024, 1, 10)))
	assert.Equal(t, 2, YearsSince(date(2021, 1, 1), date(2023, 6, 1)))
}
