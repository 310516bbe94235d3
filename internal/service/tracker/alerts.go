package tracker

import (
	"context"
	"time"

	"baselav/internal/model"
	"baselav/internal/reminder"

	"go.uber.org/zap"
)

// ListDueAlerts записи, по которым пора связаться с клиентом.
func (s *Service) ListDueAlerts(ctx context.Context) ([]model.ServiceRecord, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	return reminder.FindDue(records, s.clock.Now()), nil
}

// MarkContacted отмечает, что клиенту позвонили. Обратного перехода нет.
func (s *Service) MarkContacted(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	e, err := s.locate(ctx, id)
	if err != nil {
		return err
	}
	if e.record.Contacted {
		return nil
	}
	r := e.record
	r.Contacted = true
	if err := s.store.UpdateAt(ctx, e.position, s.codec.Encode(r)); err != nil {
		return err
	}
	s.logger.Info("alert contacted", zap.String("id", id))
	return nil
}

// StampAlertSent сохраняет время последней отправки напоминания.
// Остальные поля берутся из свежего чтения под writeMu, поэтому параллельный
// MarkContacted не откатывается.
func (s *Service) StampAlertSent(ctx context.Context, id string, at time.Time) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	e, err := s.locate(ctx, id)
	if err != nil {
		return err
	}
	r := e.record
	stamp := at.UTC().Truncate(time.Millisecond)
	r.LastAlertSent = &stamp
	return s.store.UpdateAt(ctx, e.position, s.codec.Encode(r))
}
