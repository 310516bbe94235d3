package model

import (
	"strings"
	"time"
)

// ServiceKind вид выполненной работы. Значения совпадают с тем, что хранится в таблице.
type ServiceKind string

const (
	ServiceKindRepair      ServiceKind = "reparacion"
	ServiceKindMaintenance ServiceKind = "mantenimiento"
)

func (k ServiceKind) String() string { return string(k) }

func (k ServiceKind) IsValid() bool {
	switch k {
	case ServiceKindRepair, ServiceKindMaintenance:
		return true
	}
	return false
}

// ParseServiceKind принимает как токены таблицы, так и английские синонимы.
func ParseServiceKind(s string) (ServiceKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reparacion", "reparación", "repair":
		return ServiceKindRepair, true
	case "mantenimiento", "maintenance":
		return ServiceKindMaintenance, true
	}
	return "", false
}

// ApplianceType категория техники.
type ApplianceType string

const (
	ApplianceWasher     ApplianceType = "Lavadora"
	ApplianceDryer      ApplianceType = "Secadora"
	ApplianceFridge     ApplianceType = "Refrigeradora"
	ApplianceStove      ApplianceType = "Cocina"
	ApplianceMicrowave  ApplianceType = "Horno Microondas"
	ApplianceDishwasher ApplianceType = "Lavavajillas"
	ApplianceOther      ApplianceType = "Otro"
)

// ApplianceTypes возвращает допустимые категории в порядке отображения.
func ApplianceTypes() []ApplianceType {
	return []ApplianceType{
		ApplianceWasher, ApplianceDryer, ApplianceFridge, ApplianceStove,
		ApplianceMicrowave, ApplianceDishwasher, ApplianceOther,
	}
}

func (t ApplianceType) IsValid() bool {
	for _, known := range ApplianceTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// ServiceRecord одна строка таблицы: ремонт или обслуживание конкретного прибора клиента.
type ServiceRecord struct {
	ID           string    `json:"id"`
	RegisteredAt time.Time `json:"registered_at"`

	// Клиент
	ClientName string  `json:"client_name"`
	Address    string  `json:"address"`
	Phone      string  `json:"phone"`
	Email      *string `json:"email,omitempty"`

	// Прибор
	ApplianceType ApplianceType `json:"appliance_type"`
	Brand         string        `json:"brand"`
	Model         *string       `json:"model,omitempty"`
	WeightKg      float64       `json:"weight_kg"`
	AgeYears      int           `json:"age_years"`
	HasRatGuard   bool          `json:"has_rat_guard"`
	HasCover      bool          `json:"has_cover"`

	// Работа
	Kind            ServiceKind `json:"kind"`
	ServiceDate     time.Time   `json:"service_date"`
	WorkDescription string      `json:"work_description"`
	TotalCost       float64     `json:"total_cost"`
	Notes           *string     `json:"notes,omitempty"`
	FutureIssues    *string     `json:"future_issues,omitempty"`

	// Напоминания
	ReminderEnabled bool       `json:"reminder_enabled"`
	NextReminder    *time.Time `json:"next_reminder,omitempty"`
	LastAlertSent   *time.Time `json:"last_alert_sent,omitempty"`
	Contacted       bool       `json:"contacted"`
}

// ModelOrEmpty модель прибора или пустая строка.
func (r ServiceRecord) ModelOrEmpty() string {
	if r.Model == nil {
		return ""
	}
	return *r.Model
}

// ClientSnapshot данные клиента из записи.
func (r ServiceRecord) ClientSnapshot() ClientSnapshot {
	return ClientSnapshot{
		ClientName: r.ClientName,
		Address:    r.Address,
		Phone:      r.Phone,
		Email:      r.Email,
	}
}

// ApplianceSnapshot данные прибора из записи.
func (r ServiceRecord) ApplianceSnapshot() ApplianceSnapshot {
	return ApplianceSnapshot{
		ApplianceType: r.ApplianceType,
		Brand:         r.Brand,
		Model:         r.Model,
		WeightKg:      r.WeightKg,
		AgeYears:      r.AgeYears,
		HasRatGuard:   r.HasRatGuard,
		HasCover:      r.HasCover,
	}
}
