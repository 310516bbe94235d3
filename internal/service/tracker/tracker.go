// Package tracker операции над журналом обслуживаний: записи, истории приборов, напоминания.
//
// Каждая операция самодостаточна: перед позиционной записью таблица читается заново,
// общего кеша позиций нет. Внутри одного Service чтение позиции и запись строки
// выполняются под мьютексом. Между процессами (бот и trackerctl) окно гонки
// остаётся, при одновременных правках побеждает последний писатель.
package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"baselav/internal/codec"
	"baselav/internal/domain"
	"baselav/internal/model"
	"baselav/internal/reminder"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const idLength = 10

type Service struct {
	store    domain.RowStore
	codec    *codec.Codec
	clock    reminder.Clock
	location *time.Location
	logger   *zap.Logger
	newID    func() (string, error)

	// writeMu держится от чтения позиции до позиционной записи
	writeMu sync.Mutex
}

// NewService конструктор. location: часовой пояс для месячной статистики (nil: UTC).
func NewService(store domain.RowStore, clock reminder.Clock, location *time.Location, logger *zap.Logger) *Service {
	if clock == nil {
		clock = reminder.SystemClock()
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		codec:    codec.New(clock),
		clock:    clock,
		location: location,
		logger:   logger.Named("tracker"),
		newID:    func() (string, error) { return gonanoid.New(idLength) },
	}
}

// EnsureSchema создает лист и заголовок, если их нет.
func (s *Service) EnsureSchema(ctx context.Context) error {
	return s.store.EnsureSchema(ctx)
}

// entry запись вместе с позицией строки на момент чтения.
type entry struct {
	position int
	record   model.ServiceRecord
}

// scan гарантирует схему и читает все записи.
func (s *Service) scan(ctx context.Context) ([]entry, error) {
	if err := s.store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.store.ScanAll(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entry{position: row.Position, record: s.codec.Decode(row.Values)})
	}
	return entries, nil
}

func (s *Service) records(ctx context.Context) ([]model.ServiceRecord, error) {
	entries, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]model.ServiceRecord, len(entries))
	for i, e := range entries {
		records[i] = e.record
	}
	return records, nil
}

// locate свежее чтение и поиск записи по ID.
func (s *Service) locate(ctx context.Context, id string) (entry, error) {
	entries, err := s.scan(ctx)
	if err != nil {
		return entry{}, err
	}
	for _, e := range entries {
		if e.record.ID == id {
			return e, nil
		}
	}
	return entry{}, fmt.Errorf("запись %q: %w", id, domain.ErrNotFound)
}

// ListRecords все записи в порядке строк таблицы.
func (s *Service) ListRecords(ctx context.Context) ([]model.ServiceRecord, error) {
	return s.records(ctx)
}

// ListRecordsByKind записи одного вида обслуживания.
func (s *Service) ListRecordsByKind(ctx context.Context, kind model.ServiceKind) ([]model.ServiceRecord, error) {
	if !kind.IsValid() {
		return nil, domain.NewValidationError("kind", "неизвестный вид обслуживания")
	}
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]model.ServiceRecord, 0)
	for _, r := range records {
		if r.Kind == kind {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// GetRecord запись по ID или domain.ErrNotFound.
func (s *Service) GetRecord(ctx context.Context, id string) (model.ServiceRecord, error) {
	e, err := s.locate(ctx, id)
	if err != nil {
		return model.ServiceRecord{}, err
	}
	return e.record, nil
}

// CreateRecord проверяет данные, присваивает ID и дописывает строку в конец таблицы.
func (s *Service) CreateRecord(ctx context.Context, in RecordInput) (model.ServiceRecord, error) {
	if err := in.Validate(); err != nil {
		return model.ServiceRecord{}, err
	}
	id, err := s.newID()
	if err != nil {
		return model.ServiceRecord{}, fmt.Errorf("не удалось сгенерировать ID: %w", err)
	}

	now := s.clock.Now().UTC()
	r := model.ServiceRecord{
		ID:              id,
		RegisteredAt:    now.Truncate(time.Millisecond),
		ClientName:      strings.TrimSpace(in.ClientName),
		Address:         strings.TrimSpace(in.Address),
		Phone:           strings.TrimSpace(in.Phone),
		Email:           trimmed(in.Email),
		ApplianceType:   in.ApplianceType,
		Brand:           strings.TrimSpace(in.Brand),
		Model:           trimmed(in.Model),
		WeightKg:        in.WeightKg,
		AgeYears:        in.AgeYears,
		HasRatGuard:     in.HasRatGuard,
		HasCover:        in.HasCover,
		Kind:            in.Kind,
		ServiceDate:     in.ServiceDate.UTC().Truncate(time.Millisecond),
		WorkDescription: strings.TrimSpace(in.WorkDescription),
		TotalCost:       in.TotalCost,
		Notes:           trimmed(in.Notes),
		FutureIssues:    trimmed(in.FutureIssues),
		ReminderEnabled: in.ReminderEnabled,
	}
	if r.ReminderEnabled {
		next := reminder.NextReminder(r.ServiceDate)
		r.NextReminder = &next
	}

	if err := s.store.EnsureSchema(ctx); err != nil {
		return model.ServiceRecord{}, err
	}
	if err := s.store.Append(ctx, s.codec.Encode(r)); err != nil {
		return model.ServiceRecord{}, err
	}
	s.logger.Info("record created", zap.String("id", r.ID), zap.String("kind", r.Kind.String()))
	return r, nil
}

// UpdateRecord применяет патч к записи и перезаписывает её строку целиком.
//
// Дата напоминания пересчитывается, если при включённом напоминании сменилась дата
// обслуживания или напоминание включили. Выключение напоминания стирает дату.
func (s *Service) UpdateRecord(ctx context.Context, id string, patch RecordPatch) (model.ServiceRecord, error) {
	if err := patch.Validate(); err != nil {
		return model.ServiceRecord{}, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	e, err := s.locate(ctx, id)
	if err != nil {
		return model.ServiceRecord{}, err
	}
	updated := applyPatch(e.record, patch)
	if err := s.store.UpdateAt(ctx, e.position, s.codec.Encode(updated)); err != nil {
		return model.ServiceRecord{}, err
	}
	s.logger.Info("record updated", zap.String("id", id), zap.Int("position", e.position))
	return updated, nil
}

// DeleteRecord удаляет строку записи; строки ниже сдвигаются вверх.
func (s *Service) DeleteRecord(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	e, err := s.locate(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAt(ctx, e.position); err != nil {
		return err
	}
	s.logger.Info("record deleted", zap.String("id", id), zap.Int("position", e.position))
	return nil
}

func applyPatch(r model.ServiceRecord, p RecordPatch) model.ServiceRecord {
	if p.ClientName != nil {
		r.ClientName = strings.TrimSpace(*p.ClientName)
	}
	if p.Address != nil {
		r.Address = strings.TrimSpace(*p.Address)
	}
	if p.Phone != nil {
		r.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Email != nil {
		r.Email = trimmed(p.Email)
	}
	if p.ApplianceType != nil {
		r.ApplianceType = *p.ApplianceType
	}
	if p.Brand != nil {
		r.Brand = strings.TrimSpace(*p.Brand)
	}
	if p.Model != nil {
		r.Model = trimmed(p.Model)
	}
	if p.WeightKg != nil {
		r.WeightKg = *p.WeightKg
	}
	if p.AgeYears != nil {
		r.AgeYears = *p.AgeYears
	}
	if p.HasRatGuard != nil {
		r.HasRatGuard = *p.HasRatGuard
	}
	if p.HasCover != nil {
		r.HasCover = *p.HasCover
	}
	if p.Kind != nil {
		r.Kind = *p.Kind
	}
	if p.WorkDescription != nil {
		r.WorkDescription = strings.TrimSpace(*p.WorkDescription)
	}
	if p.TotalCost != nil {
		r.TotalCost = *p.TotalCost
	}
	if p.Notes != nil {
		r.Notes = trimmed(p.Notes)
	}
	if p.FutureIssues != nil {
		r.FutureIssues = trimmed(p.FutureIssues)
	}

	dateChanged := false
	if p.ServiceDate != nil {
		d := p.ServiceDate.UTC().Truncate(time.Millisecond)
		dateChanged = !d.Equal(r.ServiceDate)
		r.ServiceDate = d
	}

	switchedOn := false
	if p.ReminderEnabled != nil {
		switchedOn = *p.ReminderEnabled && !r.ReminderEnabled
		r.ReminderEnabled = *p.ReminderEnabled
	}

	switch {
	case !r.ReminderEnabled:
		r.NextReminder = nil
	case dateChanged || switchedOn || r.NextReminder == nil:
		next := reminder.NextReminder(r.ServiceDate)
		r.NextReminder = &next
	}
	return r
}
