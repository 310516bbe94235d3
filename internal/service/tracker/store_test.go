package tracker

import (
	"context"
	"fmt"
	"sync"

	"baselav/internal/domain"
)

// memoryStore RowStore в памяти: rows[0] лежит на позиции 2.
type memoryStore struct {
	mu      sync.Mutex
	rows    []domain.Row
	schema  int
	fail    map[string]error
	updates []int
	deletes []int

	// onScan вызывается до захвата mu, чтобы тест мог вклиниться между чтением и записью
	onScan func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{fail: map[string]error{}}
}

func (m *memoryStore) EnsureSchema(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schema++
	if err := m.fail["ensure schema"]; err != nil {
		return domain.NewSchemaError("ensure schema", err)
	}
	return nil
}

func (m *memoryStore) ScanAll(ctx context.Context) ([]domain.StoredRow, error) {
	if m.onScan != nil {
		m.onScan()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["scan all"]; err != nil {
		return nil, domain.NewStoreError("scan all", err)
	}
	out := make([]domain.StoredRow, 0, len(m.rows))
	for i, row := range m.rows {
		if len(row) == 0 || fmt.Sprint(row[0]) == "" {
			continue
		}
		values := make(domain.Row, len(row))
		copy(values, row)
		out = append(out, domain.StoredRow{Position: i + 2, Values: values})
	}
	return out, nil
}

func (m *memoryStore) Append(ctx context.Context, row domain.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["append"]; err != nil {
		return domain.NewStoreError("append", err)
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *memoryStore) UpdateAt(ctx context.Context, position int, row domain.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["update at"]; err != nil {
		return domain.NewStoreError("update at", err)
	}
	idx := position - 2
	if idx < 0 || idx >= len(m.rows) {
		return domain.NewStoreError("update at", fmt.Errorf("позиция %d вне таблицы", position))
	}
	m.rows[idx] = row
	m.updates = append(m.updates, position)
	return nil
}

func (m *memoryStore) DeleteAt(ctx context.Context, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["delete at"]; err != nil {
		return domain.NewStoreError("delete at", err)
	}
	idx := position - 2
	if idx < 0 || idx >= len(m.rows) {
		return domain.NewStoreError("delete at", fmt.Errorf("позиция %d вне таблицы", position))
	}
	m.rows = append(m.rows[:idx], m.rows[idx+1:]...)
	m.deletes = append(m.deletes, position)
	return nil
}
