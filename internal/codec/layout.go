package codec

import (
	"baselav/internal/domain"
	"baselav/internal/model"
)

// Имена полей строки.
const (
	FieldID              = "ID"
	FieldRegisteredAt    = "RegisteredAt"
	FieldClientName      = "ClientName"
	FieldAddress         = "Address"
	FieldPhone           = "Phone"
	FieldEmail           = "Email"
	FieldApplianceType   = "ApplianceType"
	FieldBrand           = "Brand"
	FieldModel           = "Model"
	FieldWeightKg        = "WeightKg"
	FieldAgeYears        = "AgeYears"
	FieldHasRatGuard     = "HasRatGuard"
	FieldHasCover        = "HasCover"
	FieldKind            = "Kind"
	FieldServiceDate     = "ServiceDate"
	FieldWorkDescription = "WorkDescription"
	FieldTotalCost       = "TotalCost"
	FieldNotes           = "Notes"
	FieldFutureIssues    = "FutureIssues"
	FieldReminderEnabled = "ReminderEnabled"
	FieldNextReminder    = "NextReminder"
	FieldLastAlertSent   = "LastAlertSent"
	FieldContacted       = "Contacted"
)

// currentOrder порядок колонок актуальной схемы.
var currentOrder = []string{
	FieldID, FieldRegisteredAt,
	FieldClientName, FieldAddress, FieldPhone, FieldEmail,
	FieldApplianceType, FieldBrand, FieldModel, FieldWeightKg, FieldAgeYears, FieldHasRatGuard, FieldHasCover,
	FieldKind,
	FieldServiceDate, FieldWorkDescription, FieldTotalCost, FieldNotes, FieldFutureIssues,
	FieldReminderEnabled, FieldNextReminder, FieldLastAlertSent, FieldContacted,
}

// Headers заголовки листа в порядке актуальной схемы.
var Headers = []string{
	"ID",
	"Fecha Registro",
	"Nombre Cliente",
	"Dirección",
	"Teléfono",
	"Email",
	"Tipo Artefacto",
	"Marca",
	"Modelo",
	"Peso (kg)",
	"Antigüedad (años)",
	"Tiene Taparatones",
	"Tiene Funda",
	"Tipo Servicio",
	"Fecha Servicio",
	"Descripción Trabajo",
	"Costo Total (S/)",
	"Observaciones",
	"Fallas Futuras",
	"Recordatorio Activo",
	"Fecha Próximo Recordatorio",
	"Última Alerta Enviada",
	"Alerta Contactada",
}

// Width число колонок актуальной схемы.
var Width = len(currentOrder)

// ColumnMap поле -> индекс колонки.
type ColumnMap map[string]int

// Layout вариант схемы строки.
type Layout int

const (
	// LayoutLegacy строки до появления колонки вида обслуживания: всё после
	// HasCover сдвинуто на одну колонку влево.
	LayoutLegacy Layout = iota
	// LayoutCurrent актуальная схема из 23 колонок.
	LayoutCurrent
)

func (l Layout) String() string {
	if l == LayoutCurrent {
		return "current"
	}
	return "legacy"
}

var (
	currentColumns = newColumnMap(currentOrder)
	legacyColumns  = newColumnMap(withoutField(currentOrder, FieldKind))
)

// Columns карта колонок варианта.
func (l Layout) Columns() ColumnMap {
	if l == LayoutCurrent {
		return currentColumns
	}
	return legacyColumns
}

// DetectLayout выбирает вариант по дискриминанту: в актуальной схеме колонка
// вида обслуживания содержит допустимый вид. Пустая, отсутствующая или чужая
// (например, дата обслуживания в старой строке) означает старую схему.
func DetectLayout(row domain.Row) Layout {
	idx := currentColumns[FieldKind]
	if len(row) <= idx {
		return LayoutLegacy
	}
	if _, ok := model.ParseServiceKind(text(row[idx])); ok {
		return LayoutCurrent
	}
	return LayoutLegacy
}

func newColumnMap(order []string) ColumnMap {
	m := make(ColumnMap, len(order))
	for idx, field := range order {
		m[field] = idx
	}
	return m
}

func withoutField(order []string, field string) []string {
	out := make([]string, 0, len(order))
	for _, f := range order {
		if f != field {
			out = append(out, f)
		}
	}
	return out
}
