// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: работа со временем, форматирование чисел, склонение.
package common

import (
	"fmt"
	"time"
)

// StartOfDay возвращает полночь дня t в часовом поясе loc.
// Используется ротацией заданий: всё, что создано раньше, — вчерашнее.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s %03d", FormatNumber(n/1000), n%1000)
}
