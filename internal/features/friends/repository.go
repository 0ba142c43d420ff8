// Package friends — repository.go выполняет операции с таблицей friends.
package friends

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/fitmates-bot/internal/common"
	"serotonyl.ru/fitmates-bot/internal/features/profile"
)

// Repository предоставляет методы для работы с таблицей friends.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий друзей.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// AcceptFriend записывает дружбу в обе стороны. Повтор — не ошибка.
func (r *Repository) AcceptFriend(ctx context.Context, userA, userB int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return common.StorageError("начало транзакции", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO friends (user1_id, user2_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := tx.Exec(ctx, query, userA, userB); err != nil {
		return common.StorageError("запись дружбы", err)
	}
	if _, err := tx.Exec(ctx, query, userB, userA); err != nil {
		return common.StorageError("запись дружбы", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return common.StorageError("коммит дружбы", err)
	}
	return nil
}

// GetFriends возвращает друзей пользователя в порядке лидерборда.
func (r *Repository) GetFriends(ctx context.Context, userID int64) ([]profile.Entry, error) {
	query := `
		SELECT u.id, u.username, u.points, u.streak
		FROM friends f
		JOIN users u ON f.user2_id = u.id
		WHERE f.user1_id = $1
		ORDER BY u.points DESC, u.id ASC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, common.StorageError("чтение друзей", err)
	}
	defer rows.Close()

	var out []profile.Entry
	for rows.Next() {
		var e profile.Entry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Points, &e.Streak); err != nil {
			return nil, common.StorageError("сканирование друга", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError("чтение друзей", err)
	}
	return out, nil
}
