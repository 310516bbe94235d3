package tracker

import (
	"context"
	"fmt"
	"time"

	"baselav/internal/appliance"
	"baselav/internal/domain"
	"baselav/internal/model"
	"baselav/internal/reminder"

	"go.uber.org/zap"
)

// ListHistories истории всех приборов в порядке первого появления.
func (s *Service) ListHistories(ctx context.Context) ([]model.History, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	return appliance.Aggregate(records), nil
}

// GetHistory история одного прибора или domain.ErrNotFound.
func (s *Service) GetHistory(ctx context.Context, applianceID string) (model.History, error) {
	histories, err := s.ListHistories(ctx)
	if err != nil {
		return model.History{}, err
	}
	h, ok := appliance.Find(histories, applianceID)
	if !ok {
		return model.History{}, fmt.Errorf("прибор %q: %w", applianceID, domain.ErrNotFound)
	}
	return h, nil
}

// SearchHistories истории, где имя клиента содержит строку запроса.
func (s *Service) SearchHistories(ctx context.Context, clientQuery string) ([]model.History, error) {
	histories, err := s.ListHistories(ctx)
	if err != nil {
		return nil, err
	}
	return appliance.SearchByClient(histories, clientQuery), nil
}

// ListClients клиенты со своими приборами.
func (s *Service) ListClients(ctx context.Context) ([]model.Client, error) {
	histories, err := s.ListHistories(ctx)
	if err != nil {
		return nil, err
	}
	return appliance.Clients(histories), nil
}

// UpdateClientFields переписывает данные клиента во всех записях прибора.
// Возвращает число изменённых записей.
func (s *Service) UpdateClientFields(ctx context.Context, applianceID string, fields ClientFields) (int, error) {
	return s.updateSiblings(ctx, applianceID, fields.patch())
}

// UpdateApplianceFields переписывает данные прибора во всех его записях.
func (s *Service) UpdateApplianceFields(ctx context.Context, applianceID string, fields ApplianceFields) (int, error) {
	return s.updateSiblings(ctx, applianceID, fields.patch())
}

// updateSiblings меняет идентификатор группы, поэтому ID записей фиксируются
// одним чтением, а каждая запись затем обновляется со своим свежим чтением.
func (s *Service) updateSiblings(ctx context.Context, applianceID string, patch RecordPatch) (int, error) {
	if err := patch.Validate(); err != nil {
		return 0, err
	}
	records, err := s.records(ctx)
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0)
	for _, r := range records {
		if appliance.RecordID(r) == applianceID {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("прибор %q: %w", applianceID, domain.ErrNotFound)
	}

	for i, id := range ids {
		if _, err := s.UpdateRecord(ctx, id, patch); err != nil {
			return i, fmt.Errorf("обновление записи %s: %w", id, err)
		}
	}
	s.logger.Info("appliance records updated", zap.String("appliance_id", applianceID), zap.Int("count", len(ids)))
	return len(ids), nil
}

// Stats сводка за текущий календарный месяц в настроенном часовом поясе.
func (s *Service) Stats(ctx context.Context) (model.Stats, error) {
	records, err := s.records(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	now := s.clock.Now()
	local := now.In(s.location)
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.location)
	monthEnd := monthStart.AddDate(0, 1, 0)

	stats := model.Stats{
		TotalServices: len(records),
		PendingAlerts: len(reminder.FindDue(records, now)),
	}
	for _, r := range records {
		if !r.ServiceDate.Before(monthStart) && r.ServiceDate.Before(monthEnd) {
			stats.ServicesThisMonth++
			stats.IncomeThisMonth += r.TotalCost
		}
	}
	return stats, nil
}
