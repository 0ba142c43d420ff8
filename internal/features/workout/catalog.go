// Package workout — catalog.go: статический каталог упражнений.
package workout

import "math"

// Definition — запись каталога. Неизменяема.
type Definition struct {
	Code       string
	Base       int     // Базовое количество
	Difficulty float64 // Коэффициент сложности
	IsTime     bool    // Количество в секундах, а не в повторениях
}

// Valid сообщает, пригодна ли запись для генерации заданий.
func (d Definition) Valid() bool {
	return d.Code != "" && d.Base > 0 && d.Difficulty > 0 &&
		!math.IsNaN(d.Difficulty) && !math.IsInf(d.Difficulty, 0)
}

// Catalog — все упражнения бота.
var Catalog = []Definition{
	{Code: "task_pushups", Base: 10, Difficulty: 1.0},
	{Code: "task_squats", Base: 15, Difficulty: 0.8},
	{Code: "task_diamond_pushups", Base: 5, Difficulty: 1.2},
	{Code: "task_lunges", Base: 10, Difficulty: 0.9},
	{Code: "task_plank", Base: 30, Difficulty: 0.7, IsTime: true},
	{Code: "task_mountain_climbers", Base: 16, Difficulty: 0.9},
	{Code: "task_high_knees", Base: 30, Difficulty: 0.5, IsTime: true},
	{Code: "task_jump_squats", Base: 10, Difficulty: 1.1},
	{Code: "task_crunches", Base: 20, Difficulty: 0.7},
	{Code: "task_burpees", Base: 5, Difficulty: 1.5},
}

// Lookup ищет упражнение по коду.
func Lookup(code string) (Definition, bool) {
	for _, d := range Catalog {
		if d.Code == code {
			return d, true
		}
	}
	return Definition{}, false
}
