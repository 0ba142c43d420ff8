// Package profile хранит профили пользователей: очки, стрик, счётчик заданий
// и модификатор силы.
// models.go описывает структуры профиля и строки лидерборда.
package profile

import "time"

// DefaultStrengthModifier — модификатор силы нового пользователя.
const DefaultStrengthModifier = 1.0

// User представляет профиль пользователя бота.
// Создаётся при выборе языка. Счётчики меняются через Service.UpdateProfile
// и вместе с заданием в workout.TaskStore.CommitCompletion.
type User struct {
	ID               int64     `db:"id"`                // Telegram user ID
	Username         string    `db:"username"`          // Отображаемое имя
	Lang             string    `db:"lang"`              // Язык интерфейса: en / ru
	Points           int64     `db:"points"`            // Сумма очков (>= 0)
	Streak           int       `db:"streak"`            // Текущий стрик (>= 0)
	TasksCompleted   int       `db:"tasks_completed"`   // Всего выполнено заданий
	StrengthModifier float64   `db:"strength_modifier"` // Калибровка сложности и награды
	CreatedAt        time.Time `db:"created_at"`
}

// Entry — строка лидерборда.
type Entry struct {
	UserID   int64  `db:"id"`
	Username string `db:"username"`
	Points   int64  `db:"points"`
	Streak   int    `db:"streak"`
}
