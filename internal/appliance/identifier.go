// Package appliance группирует записи обслуживания по прибору.
//
// У приборов нет своей таблицы: идентификатор вычисляется из имени клиента,
// марки, модели и веса при каждом чтении и нигде не сохраняется. Поэтому правка
// любого из этих полей переносит запись в другую группу.
package appliance

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const separator = "-"

// ID строит идентификатор прибора.
//
// Клиент и марка: без диакритики, в нижнем регистре, без пробелов.
// Модель дополнительно очищается до [a-z0-9], отсутствующая модель: пустая строка.
// Вес пишется как есть, без округления.
//
// Разные модели могут совпасть после очистки ("A1-B2" и "A1B-2"); это известное ограничение.
func ID(clientName, brand, model string, weightKg float64) string {
	return strings.Join([]string{
		normalize(clientName),
		normalize(brand),
		normalizeModel(model),
		strconv.FormatFloat(weightKg, 'f', -1, 64),
	}, separator)
}

func normalize(s string) string {
	s = foldDiacritics(s)
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func normalizeModel(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, normalize(s))
}

// foldDiacritics убирает надстрочные знаки: "Pérez" -> "Perez".
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
