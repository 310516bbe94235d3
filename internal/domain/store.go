package domain

import "context"

// Row упорядоченный список ячеек строки таблицы.
type Row []interface{}

// StoredRow строка вместе с её позицией (1: заголовок, данные начинаются со 2).
type StoredRow struct {
	Position int
	Values   Row
}

// RowStore единственный компонент, который ходит в таблицу.
// Позиции нестабильны: после DeleteAt их нужно пересчитать новым ScanAll.
type RowStore interface {
	// Создание листа и заголовка при необходимости. Идемпотентно.
	EnsureSchema(ctx context.Context) error

	// Все строки начиная со второй, без строк с пустым ID.
	ScanAll(ctx context.Context) ([]StoredRow, error)

	// Добавление строки в конец.
	Append(ctx context.Context, row Row) error

	// Полная перезапись строки на позиции.
	UpdateAt(ctx context.Context, position int, row Row) error

	// Удаление строки, следующие сдвигаются вверх.
	DeleteAt(ctx context.Context, position int) error
}
