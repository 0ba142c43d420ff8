// Package workout — repository.go выполняет операции с таблицей tasks.
package workout

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/fitmates-bot/internal/common"
)

// Repository предоставляет методы для работы с таблицей tasks.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий заданий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// AddTaskBatch сохраняет пачку заданий одной транзакцией:
// либо вся пачка, либо ничего.
func (r *Repository) AddTaskBatch(ctx context.Context, userID int64, tasks []Task) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return common.StorageError("начало транзакции", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, t := range tasks {
		batch.Queue(`
			INSERT INTO tasks (user_id, task_code, number, multiplier, created_at, task_index, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, userID, t.Code, t.Quantity, t.Multiplier, t.CreatedAt, t.Index, string(StatusPending))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return common.StorageError("запись пачки заданий", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return common.StorageError("коммит пачки заданий", err)
	}
	return nil
}

// GetPendingTasks возвращает невыполненные задания по порядку task_index.
func (r *Repository) GetPendingTasks(ctx context.Context, userID int64) ([]Task, error) {
	query := `
		SELECT id, user_id, task_code, number, multiplier, created_at, task_index, status, completed_at
		FROM tasks
		WHERE user_id = $1 AND status = 'pending'
		ORDER BY task_index
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, common.StorageError("чтение заданий", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var status string
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Code, &t.Quantity, &t.Multiplier,
			&t.CreatedAt, &t.Index, &status, &t.CompletedAt,
		); err != nil {
			return nil, common.StorageError("сканирование задания", err)
		}
		t.Status = Status(status)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError("чтение заданий", err)
	}
	return tasks, nil
}

// CommitCompletion одной транзакцией отмечает задание выполненным
// и перезаписывает профиль вместе со streak_timestamp.
// Задание уже не pending — common.ErrTaskNotFound, ничего не меняется.
func (r *Repository) CommitCompletion(ctx context.Context, rec CompletionRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return common.StorageError("начало транзакции", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE tasks
		SET status = 'completed', completed_at = $3
		WHERE user_id = $1 AND task_code = $2 AND status = 'pending'
	`, rec.UserID, rec.Code, rec.CompletedAt)
	if err != nil {
		return common.StorageError("отметка задания", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user_id=%d code=%s: %w", rec.UserID, rec.Code, common.ErrTaskNotFound)
	}

	tag, err = tx.Exec(ctx, `
		UPDATE users
		SET points = $2, streak = $3, tasks_completed = $4,
		    streak_timestamp = $5, updated_at = NOW()
		WHERE id = $1
	`, rec.UserID, rec.Points, rec.Streak, rec.TasksCompleted, rec.CompletedAt)
	if err != nil {
		return common.StorageError("обновление пользователя", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user_id=%d: %w", rec.UserID, common.ErrUserNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return common.StorageError("коммит выполнения задания", err)
	}
	return nil
}

// DeleteStalePending удаляет невыполненные задания, созданные раньше before.
// Возвращает число удалённых строк.
func (r *Repository) DeleteStalePending(ctx context.Context, before int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE status = 'pending' AND created_at < $1`, before)
	if err != nil {
		return 0, common.StorageError("ротация заданий", err)
	}
	return tag.RowsAffected(), nil
}
