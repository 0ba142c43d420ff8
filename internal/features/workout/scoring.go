// Package workout — scoring.go: очки за выполненное задание.
package workout

import "math"

// Параметры формулы очков.
const (
	BasePoints = 25.0
	StreakBase = 1.1
)

// ScoreTask считает очки за задание:
//
//	points = floor(25 × multiplier × modifier × (1 + log_1.1(streak + 1)))
//
// При streak == 0 бонус равен 1. Результат не бывает отрицательным.
func ScoreTask(multiplier, modifier float64, streak int) int64 {
	if streak < 0 {
		streak = 0
	}
	modifier = normalizeModifier(modifier)
	bonus := 1 + math.Log(float64(streak)+1)/math.Log(StreakBase)

	points := math.Floor(BasePoints * multiplier * modifier * bonus)
	if math.IsNaN(points) || points <= 0 {
		return 0
	}
	if points >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(points)
}

// addPoints прибавляет очки к сумме, упираясь в math.MaxInt64.
func addPoints(total, points int64) int64 {
	if points > 0 && total > math.MaxInt64-points {
		return math.MaxInt64
	}
	return total + points
}
