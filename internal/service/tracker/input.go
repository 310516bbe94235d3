package tracker

import (
	"strings"
	"time"

	"baselav/internal/domain"
	"baselav/internal/model"
)

// RecordInput данные новой записи.
type RecordInput struct {
	ClientName string
	Address    string
	Phone      string
	Email      *string

	ApplianceType model.ApplianceType
	Brand         string
	Model         *string
	WeightKg      float64
	AgeYears      int
	HasRatGuard   bool
	HasCover      bool

	Kind            model.ServiceKind
	ServiceDate     time.Time
	WorkDescription string
	TotalCost       float64
	Notes           *string
	FutureIssues    *string

	ReminderEnabled bool
}

// Validate проверяет обязательные поля. Возвращает *domain.ValidationError со всеми ошибками сразу.
func (in RecordInput) Validate() error {
	var v validator
	v.required("client_name", in.ClientName)
	v.required("address", in.Address)
	v.required("phone", in.Phone)
	v.applianceType(in.ApplianceType)
	v.required("brand", in.Brand)
	v.nonNegative("weight_kg", in.WeightKg)
	v.nonNegative("age_years", float64(in.AgeYears))
	v.kind(in.Kind)
	if in.ServiceDate.IsZero() {
		v.add("service_date", "обязательное поле")
	}
	v.required("work_description", in.WorkDescription)
	v.nonNegative("total_cost", in.TotalCost)
	return v.err()
}

// RecordPatch частичное изменение записи: nil: поле не меняется.
type RecordPatch struct {
	ClientName *string
	Address    *string
	Phone      *string
	Email      *string // пустая строка очищает поле

	ApplianceType *model.ApplianceType
	Brand         *string
	Model         *string // пустая строка очищает поле
	WeightKg      *float64
	AgeYears      *int
	HasRatGuard   *bool
	HasCover      *bool

	Kind            *model.ServiceKind
	ServiceDate     *time.Time
	WorkDescription *string
	TotalCost       *float64
	Notes           *string // пустая строка очищает поле
	FutureIssues    *string // пустая строка очищает поле

	ReminderEnabled *bool
}

// Validate проверяет только заданные поля.
func (p RecordPatch) Validate() error {
	var v validator
	if p.ClientName != nil {
		v.required("client_name", *p.ClientName)
	}
	if p.Address != nil {
		v.required("address", *p.Address)
	}
	if p.Phone != nil {
		v.required("phone", *p.Phone)
	}
	if p.ApplianceType != nil {
		v.applianceType(*p.ApplianceType)
	}
	if p.Brand != nil {
		v.required("brand", *p.Brand)
	}
	if p.WeightKg != nil {
		v.nonNegative("weight_kg", *p.WeightKg)
	}
	if p.AgeYears != nil {
		v.nonNegative("age_years", float64(*p.AgeYears))
	}
	if p.Kind != nil {
		v.kind(*p.Kind)
	}
	if p.ServiceDate != nil && p.ServiceDate.IsZero() {
		v.add("service_date", "обязательное поле")
	}
	if p.WorkDescription != nil {
		v.required("work_description", *p.WorkDescription)
	}
	if p.TotalCost != nil {
		v.nonNegative("total_cost", *p.TotalCost)
	}
	return v.err()
}

// IsEmpty true, если патч ничего не меняет.
func (p RecordPatch) IsEmpty() bool {
	return p == RecordPatch{}
}

// ClientFields поля клиента, общие для всех записей прибора.
type ClientFields struct {
	ClientName string
	Address    string
	Phone      string
	Email      *string
}

func (c ClientFields) patch() RecordPatch {
	email := ""
	if c.Email != nil {
		email = *c.Email
	}
	return RecordPatch{
		ClientName: &c.ClientName,
		Address:    &c.Address,
		Phone:      &c.Phone,
		Email:      &email,
	}
}

// ApplianceFields поля прибора, общие для всех его записей.
type ApplianceFields struct {
	ApplianceType model.ApplianceType
	Brand         string
	Model         *string
	WeightKg      float64
	AgeYears      int
	HasRatGuard   bool
	HasCover      bool
}

func (a ApplianceFields) patch() RecordPatch {
	m := ""
	if a.Model != nil {
		m = *a.Model
	}
	return RecordPatch{
		ApplianceType: &a.ApplianceType,
		Brand:         &a.Brand,
		Model:         &m,
		WeightKg:      &a.WeightKg,
		AgeYears:      &a.AgeYears,
		HasRatGuard:   &a.HasRatGuard,
		HasCover:      &a.HasCover,
	}
}

type validator struct {
	fields []domain.FieldError
}

func (v *validator) add(field, message string) {
	v.fields = append(v.fields, domain.FieldError{Field: field, Message: message})
}

func (v *validator) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "обязательное поле")
	}
}

func (v *validator) nonNegative(field string, value float64) {
	if value < 0 {
		v.add(field, "не может быть отрицательным")
	}
}

func (v *validator) applianceType(t model.ApplianceType) {
	if !t.IsValid() {
		v.add("appliance_type", "неизвестный тип техники")
	}
}

func (v *validator) kind(k model.ServiceKind) {
	if !k.IsValid() {
		v.add("kind", "неизвестный вид обслуживания")
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &domain.ValidationError{Errors: v.fields}
}

// trimmed обрезает пробелы; пустой результат: отсутствующее значение.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
