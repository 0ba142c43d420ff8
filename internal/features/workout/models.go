// Package workout — ядро бота: каталог упражнений, генерация ежедневных заданий,
// расчёт стрика и начисление очков.
// models.go описывает экземпляр задания.
package workout

// TasksPerDay — размер ежедневной пачки заданий.
const TasksPerDay = 3

// Status — состояние задания. Переход только pending → completed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Task — конкретное задание пользователя на день, полученное из записи каталога.
type Task struct {
	ID          int64   `db:"id"`
	UserID      int64   `db:"user_id"`
	Code        string  `db:"task_code"`    // Код упражнения из каталога
	Quantity    int     `db:"number"`       // Повторения или секунды
	Multiplier  float64 `db:"multiplier"`   // difficulty × modifier × r, нужен для очков
	CreatedAt   int64   `db:"created_at"`   // Unix-время создания
	Index       int     `db:"task_index"`   // Позиция в пачке: 0..2
	Status      Status  `db:"status"`       // pending / completed
	CompletedAt *int64  `db:"completed_at"` // Unix-время выполнения
}

// IsTime сообщает, что количество задано в секундах.
func (t Task) IsTime() bool {
	d, ok := Lookup(t.Code)
	return ok && d.IsTime
}
