package appliance

import (
	"sort"
	"strings"

	"baselav/internal/model"
)

// RecordID идентификатор прибора для записи.
func RecordID(r model.ServiceRecord) string {
	return ID(r.ClientName, r.Brand, r.ModelOrEmpty(), r.WeightKg)
}

// Aggregate группирует записи по прибору.
//
// Группы идут в порядке первого появления. Снимки клиента и прибора берутся из
// первой записи группы без слияния, даже если в других записях адрес или телефон отличаются.
// Обслуживания внутри группы отсортированы по дате, новые первыми.
func Aggregate(records []model.ServiceRecord) []model.History {
	index := make(map[string]int)
	histories := make([]model.History, 0)

	for _, r := range records {
		id := RecordID(r)
		i, ok := index[id]
		if !ok {
			histories = append(histories, model.History{
				ApplianceID: id,
				Client:      r.ClientSnapshot(),
				Appliance:   r.ApplianceSnapshot(),
			})
			i = len(histories) - 1
			index[id] = i
		}
		histories[i].Services = append(histories[i].Services, r)
	}

	for i := range histories {
		services := histories[i].Services
		sort.SliceStable(services, func(a, b int) bool {
			return services[a].ServiceDate.After(services[b].ServiceDate)
		})
	}
	return histories
}

// Find история по идентификатору прибора.
func Find(histories []model.History, applianceID string) (model.History, bool) {
	for _, h := range histories {
		if h.ApplianceID == applianceID {
			return h, true
		}
	}
	return model.History{}, false
}

// SearchByClient истории, где имя клиента содержит query (без учёта регистра).
func SearchByClient(histories []model.History, query string) []model.History {
	q := strings.ToLower(strings.TrimSpace(query))
	found := make([]model.History, 0)
	for _, h := range histories {
		if strings.Contains(strings.ToLower(h.Client.ClientName), q) {
			found = append(found, h)
		}
	}
	return found
}

// Clients группирует истории по клиенту (имя без учёта регистра).
func Clients(histories []model.History) []model.Client {
	index := make(map[string]int)
	clients := make([]model.Client, 0)

	for _, h := range histories {
		key := strings.ToLower(h.Client.ClientName)
		i, ok := index[key]
		if !ok {
			clients = append(clients, model.Client{ClientSnapshot: h.Client})
			i = len(clients) - 1
			index[key] = i
		}
		clients[i].Appliances = append(clients[i].Appliances, model.Appliance{
			ID:                h.ApplianceID,
			ApplianceSnapshot: h.Appliance,
			Services:          h.Services,
		})
	}
	return clients
}
