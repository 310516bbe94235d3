// Package codec переводит записи обслуживания в строки таблицы и обратно.
//
// Чтение понимает обе схемы строк, запись всегда идёт в актуальной.
// Старая строка обновляется до актуальной схемы при первой же перезаписи, обратного пути нет.
package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"baselav/internal/domain"
	"baselav/internal/model"
	"baselav/internal/reminder"
)

// DateLayout формат дат в таблице (как toISOString в JS).
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Начало отсчёта серийных дат Google Sheets.
var sheetsEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

type Codec struct {
	clock reminder.Clock
}

// New кодек; clock даёт "сейчас" для нечитаемых обязательных дат.
func New(clock reminder.Clock) *Codec {
	if clock == nil {
		clock = reminder.SystemClock()
	}
	return &Codec{clock: clock}
}

// Decode строку в запись. Не падает на мусоре: числа по умолчанию 0,
// булевы false, пустые необязательные поля отсутствуют (nil).
func (c *Codec) Decode(row domain.Row) model.ServiceRecord {
	layout := DetectLayout(row)
	cols := layout.Columns()
	get := func(field string) interface{} {
		idx, ok := cols[field]
		if !ok || idx >= len(row) {
			return nil
		}
		return row[idx]
	}
	now := c.clock.Now().UTC()

	r := model.ServiceRecord{
		ID:           text(get(FieldID)),
		RegisteredAt: dateOr(get(FieldRegisteredAt), now),

		ClientName: text(get(FieldClientName)),
		Address:    text(get(FieldAddress)),
		Phone:      text(get(FieldPhone)),
		Email:      optText(get(FieldEmail)),

		ApplianceType: model.ApplianceType(text(get(FieldApplianceType))),
		Brand:         text(get(FieldBrand)),
		Model:         optText(get(FieldModel)),
		WeightKg:      number(get(FieldWeightKg)),
		AgeYears:      integer(get(FieldAgeYears)),
		HasRatGuard:   boolean(get(FieldHasRatGuard)),
		HasCover:      boolean(get(FieldHasCover)),

		Kind:            model.ServiceKindRepair,
		ServiceDate:     dateOr(get(FieldServiceDate), now),
		WorkDescription: text(get(FieldWorkDescription)),
		TotalCost:       number(get(FieldTotalCost)),
		Notes:           optText(get(FieldNotes)),
		FutureIssues:    optText(get(FieldFutureIssues)),

		ReminderEnabled: boolean(get(FieldReminderEnabled)),
		NextReminder:    optDate(get(FieldNextReminder)),
		LastAlertSent:   optDate(get(FieldLastAlertSent)),
		Contacted:       boolean(get(FieldContacted)),
	}
	if layout == LayoutCurrent {
		r.Kind, _ = model.ParseServiceKind(text(get(FieldKind)))
	}
	return r
}

// Encode запись в строку актуальной схемы.
// Даты пишутся в UTC с точностью до миллисекунды: Decode(Encode(r)) совпадает
// с r, только если даты r уже усечены до миллисекунд (так делает трекер).
func (c *Codec) Encode(r model.ServiceRecord) domain.Row {
	row := make(domain.Row, Width)
	set := func(field string, v interface{}) {
		row[currentColumns[field]] = v
	}

	set(FieldID, r.ID)
	set(FieldRegisteredAt, FormatDate(r.RegisteredAt))
	set(FieldClientName, r.ClientName)
	set(FieldAddress, r.Address)
	set(FieldPhone, r.Phone)
	set(FieldEmail, deref(r.Email))
	set(FieldApplianceType, string(r.ApplianceType))
	set(FieldBrand, r.Brand)
	set(FieldModel, deref(r.Model))
	set(FieldWeightKg, r.WeightKg)
	set(FieldAgeYears, r.AgeYears)
	set(FieldHasRatGuard, yesNo(r.HasRatGuard))
	set(FieldHasCover, yesNo(r.HasCover))
	set(FieldKind, string(r.Kind))
	set(FieldServiceDate, FormatDate(r.ServiceDate))
	set(FieldWorkDescription, r.WorkDescription)
	set(FieldTotalCost, r.TotalCost)
	set(FieldNotes, deref(r.Notes))
	set(FieldFutureIssues, deref(r.FutureIssues))
	set(FieldReminderEnabled, yesNo(r.ReminderEnabled))
	set(FieldNextReminder, optFormatDate(r.NextReminder))
	set(FieldLastAlertSent, optFormatDate(r.LastAlertSent))
	set(FieldContacted, yesNo(r.Contacted))
	return row
}

// FormatDate дата в формате таблицы, всегда UTC. Доли меньше миллисекунды отбрасываются.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate разбирает дату из ячейки.
func ParseDate(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case float64:
		// серийная дата, если ячейку заполняли руками
		return sheetsEpoch.Add(time.Duration(val * float64(24*time.Hour))), true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range parseLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func text(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(val)
	}
}

func optText(v interface{}) *string {
	s := text(v)
	if s == "" {
		return nil
	}
	return &s
}

func boolean(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "SI" || val == "TRUE"
	}
	return false
}

func number(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func integer(v interface{}) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case string:
		s := strings.TrimSpace(val)
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f)
		}
	}
	return 0
}

func dateOr(v interface{}, fallback time.Time) time.Time {
	if t, ok := ParseDate(v); ok {
		return t
	}
	return fallback
}

func optDate(v interface{}) *time.Time {
	if t, ok := ParseDate(v); ok {
		return &t
	}
	return nil
}

func optFormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDate(*t)
}

func yesNo(b bool) string {
	if b {
		return "SI"
	}
	return "NO"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
