// Package workout — generator.go генерирует ежедневную пачку заданий.
package workout

import (
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"
)

// Границы случайного множителя r: [FactorMin, FactorMax).
// Нижняя граница включена, верхняя — нет.
const (
	FactorMin = 0.8
	FactorMax = 1.5
)

// Generator выбирает упражнения из каталога и масштабирует их под пользователя.
type Generator struct {
	mu      sync.Mutex // rand.Rand не потокобезопасен
	catalog []Definition
	rng     *rand.Rand
	now     func() time.Time
}

// NewGenerator создаёт генератор. rng и now подменяются в тестах.
func NewGenerator(catalog []Definition, rng *rand.Rand, now func() time.Time) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{catalog: catalog, rng: rng, now: now}
}

// Generate возвращает min(3, размер каталога) заданий без повторов.
//
// Для каждого выбранного упражнения один раз берётся r ∈ [0.8, 1.5):
//
//	quantity   = max(1, floor(base × difficulty × modifier × r))
//	multiplier = difficulty × modifier × r
//
// Битые записи каталога пропускаются: пачка просто становится короче.
func (g *Generator) Generate(userID int64, modifier float64) []Task {
	modifier = normalizeModifier(modifier)

	g.mu.Lock()
	defer g.mu.Unlock()

	pool := make([]Definition, 0, len(g.catalog))
	for _, d := range g.catalog {
		if d.Valid() {
			pool = append(pool, d)
		}
	}
	// Сортируем, чтобы результат зависел только от rng, а не от порядка каталога
	slices.SortFunc(pool, func(a, b Definition) int { return strings.Compare(a.Code, b.Code) })
	g.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	n := min(TasksPerDay, len(pool))
	createdAt := g.now().Unix()
	tasks := make([]Task, 0, n)
	for i, d := range pool[:n] {
		r := randomFactor(g.rng.Float64())
		multiplier := d.Difficulty * modifier * r
		tasks = append(tasks, Task{
			UserID:     userID,
			Code:       d.Code,
			Quantity:   quantity(float64(d.Base) * d.Difficulty * modifier * r),
			Multiplier: multiplier,
			CreatedAt:  createdAt,
			Index:      i,
			Status:     StatusPending,
		})
	}
	return tasks
}

// randomFactor отображает u ∈ [0, 1) в [FactorMin, FactorMax).
// При u близком к 1 сумма округляется до 1.5 — прижимаем к ближайшему меньшему.
func randomFactor(u float64) float64 {
	r := FactorMin + u*(FactorMax-FactorMin)
	if r >= FactorMax {
		return math.Nextafter(FactorMax, FactorMin)
	}
	return r
}

// quantity = floor(raw), но не меньше 1.
func quantity(raw float64) int {
	q := int(math.Floor(raw))
	if q < 1 {
		return 1
	}
	return q
}

// normalizeModifier подставляет 1.0 вместо отсутствующего или битого модификатора.
func normalizeModifier(m float64) float64 {
	if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return 1.0
	}
	return m
}
