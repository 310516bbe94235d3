package model

// ClientSnapshot данные клиента, взятые из одной записи.
type ClientSnapshot struct {
	ClientName string  `json:"client_name"`
	Address    string  `json:"address"`
	Phone      string  `json:"phone"`
	Email      *string `json:"email,omitempty"`
}

// ApplianceSnapshot данные прибора, взятые из одной записи.
type ApplianceSnapshot struct {
	ApplianceType ApplianceType `json:"appliance_type"`
	Brand         string        `json:"brand"`
	Model         *string       `json:"model,omitempty"`
	WeightKg      float64       `json:"weight_kg"`
	AgeYears      int           `json:"age_years"`
	HasRatGuard   bool          `json:"has_rat_guard"`
	HasCover      bool          `json:"has_cover"`
}

// History все обслуживания одного прибора, новые первыми.
// Снимки клиента и прибора берутся из первой встреченной записи группы.
type History struct {
	ApplianceID string            `json:"appliance_id"`
	Client      ClientSnapshot    `json:"client"`
	Appliance   ApplianceSnapshot `json:"appliance"`
	Services    []ServiceRecord   `json:"services"`
}

// Appliance прибор клиента вместе с историей.
type Appliance struct {
	ID string `json:"id"`
	ApplianceSnapshot
	Services []ServiceRecord `json:"services"`
}

// Client клиент со всеми своими приборами.
type Client struct {
	ClientSnapshot
	Appliances []Appliance `json:"appliances"`
}

// Stats сводка для панели.
type Stats struct {
	ServicesThisMonth int     `json:"services_this_month"`
	IncomeThisMonth   float64 `json:"income_this_month"`
	PendingAlerts     int     `json:"pending_alerts"`
	TotalServices     int     `json:"total_services"`
}
