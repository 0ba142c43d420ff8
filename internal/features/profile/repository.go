// Package profile — repository.go выполняет операции с таблицей users.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/fitmates-bot/internal/common"
)

// Repository предоставляет методы для работы с таблицей users.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий профилей.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// AddUser создаёт пользователя или обновляет язык уже существующего.
func (r *Repository) AddUser(ctx context.Context, userID int64, username, lang string) error {
	query := `
		INSERT INTO users (id, username, lang)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET lang = EXCLUDED.lang, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, userID, username, lang); err != nil {
		return common.StorageError("создание пользователя", err)
	}
	return nil
}

// GetUser возвращает профиль. Если не найден — common.ErrUserNotFound.
func (r *Repository) GetUser(ctx context.Context, userID int64) (*User, error) {
	query := `
		SELECT id, username, lang, points, streak, tasks_completed, strength_modifier, created_at
		FROM users
		WHERE id = $1
	`
	var u User
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&u.ID, &u.Username, &u.Lang, &u.Points, &u.Streak,
		&u.TasksCompleted, &u.StrengthModifier, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user_id=%d: %w", userID, common.ErrUserNotFound)
		}
		return nil, common.StorageError("чтение пользователя", err)
	}
	return &u, nil
}

// UpdateUser перезаписывает очки, стрик и счётчик заданий.
func (r *Repository) UpdateUser(ctx context.Context, userID int64, points int64, streak, tasksCompleted int) error {
	query := `
		UPDATE users
		SET points = $2, streak = $3, tasks_completed = $4, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, userID, points, streak, tasksCompleted)
	if err != nil {
		return common.StorageError("обновление пользователя", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user_id=%d: %w", userID, common.ErrUserNotFound)
	}
	return nil
}

// Leaderboard возвращает всех пользователей по убыванию очков.
// При равенстве очков порядок по id — стабильный между вызовами.
func (r *Repository) Leaderboard(ctx context.Context) ([]Entry, error) {
	query := `
		SELECT id, username, points, streak
		FROM users
		ORDER BY points DESC, id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, common.StorageError("лидерборд", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Points, &e.Streak); err != nil {
			return nil, common.StorageError("сканирование лидерборда", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError("лидерборд", err)
	}
	return entries, nil
}

// GetStreakTimestamp возвращает время последнего действия для стрика.
// ok == false, если значение NULL (ещё не записано).
func (r *Repository) GetStreakTimestamp(ctx context.Context, userID int64) (int64, bool, error) {
	var ts *int64
	err := r.db.QueryRow(ctx, `SELECT streak_timestamp FROM users WHERE id = $1`, userID).Scan(&ts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, fmt.Errorf("user_id=%d: %w", userID, common.ErrUserNotFound)
		}
		return 0, false, common.StorageError("чтение streak_timestamp", err)
	}
	if ts == nil {
		return 0, false, nil
	}
	return *ts, true, nil
}

// SetStreakTimestamp записывает время последнего действия для стрика.
func (r *Repository) SetStreakTimestamp(ctx context.Context, userID int64, ts int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET streak_timestamp = $2 WHERE id = $1`, userID, ts)
	if err != nil {
		return common.StorageError("запись streak_timestamp", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user_id=%d: %w", userID, common.ErrUserNotFound)
	}
	return nil
}
