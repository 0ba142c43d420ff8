// Package workout — streak.go: решение о стрике при выполнении задания.
package workout

// Границы окна стрика в секундах.
const (
	Day     int64 = 86400
	TwoDays int64 = 172800
)

// EvaluateStreak возвращает новое значение стрика.
//
// last — время предыдущего действия (Unix), hasLast == false — ещё не записано.
// Вызывающий после этого всегда записывает last = now.
//
//	нет записи                  → стрик не меняется
//	last == 0 или 24ч < Δ < 48ч → 1
//	Δ >= 48ч                    → 0
//	Δ <= 24ч (и ровно 24ч)      → не меняется
func EvaluateStreak(streak int, last int64, hasLast bool, now int64) int {
	if !hasLast {
		return streak
	}
	delta := now - last
	switch {
	case last == 0 || (delta > Day && delta < TwoDays):
		return 1
	case delta >= TwoDays:
		return 0
	default:
		return streak
	}
}
